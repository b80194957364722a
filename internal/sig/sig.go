/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package sig is spec.md §4.10's signal and guard-page layer, re-expressed
// for a Go process rather than copied from the teacher's sigaction/
// sigaltstack handler chain.
//
// The original installs one handler for SIGSEGV/SIGBUS/SIGFPE/a user
// signal and classifies every fault by address: a load against the
// thread-check guard page is a safepoint, a load just past a thread's
// stack pointer is StackOverflowError, and a null-object field access is
// NullPointerException -- all without an explicit check at the call
// site. Go's own runtime intercepts SIGSEGV/SIGBUS/SIGFPE raised by Go
// code before any sigaction-style handler would ever see them (they
// become runtime.Error panics, or a fatal, unrecoverable crash when the
// fault address isn't one the runtime's own nil-check heuristic
// recognizes), so this package cannot reproduce "elide the check, let
// the trap synthesize the exception" for ordinary interpreted bytecode.
// internal/interp, internal/frames and internal/thread instead perform
// every one of those checks explicitly and unconditionally -- see
// fields.go/arrays.go's nil-ref tests, frames.PushFrame's depth probe,
// and thread.ThreadCheck's cooperative poll -- which is the honest,
// always-correct substitute the teacher's own tests
// (classloader/codeCheck_test.go's defensive style) already lean on
// elsewhere.
//
// What this package still does for real: it owns an actual mmap'd,
// mprotect'd guard page (guard.go) that mirrors the revoke/restore
// half of the stop-the-world contract literally rather than only
// cooperatively, and it installs signal.Notify for the signals Go's
// runtime *does* forward unmodified -- SIGBUS/SIGFPE/SIGSEGV raised
// from outside the Go runtime's own fault path (handler.go), and
// SIGUSR1 as spec.md's "one user signal" debug-thread callback, which
// works exactly as described since it never originates from a memory
// fault.
package sig

import "sync/atomic"

// handlingSignal is the Go analogue of spec.md §4.10's per-thread
// handling_signal flag, collapsed to one process-wide flag since this
// package's handler is itself process-wide (Go delivers a given signal
// to one goroutine at a time via the runtime's internal dispatch,
// never re-entrantly for the same signal number).
var handlingSignal atomic.Bool

// Guarding reports whether a signal is currently being classified,
// mirroring the re-entrancy guard spec.md §4.10 describes.
func Guarding() bool { return handlingSignal.Load() }
