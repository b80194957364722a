/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package sig

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"corevm/internal/trace"
)

// DebugCallback is invoked on SIGUSR1, spec.md §4.10's "user signal ->
// invoke the debug-thread callback if configured." Unlike SIGSEGV/
// SIGBUS/SIGFPE, SIGUSR1 is never raised by a Go-internal fault, so
// Go's signal.Notify delivers it exactly as the teacher's sigaction
// chain would.
var DebugCallback func()

var (
	startOnce sync.Once
	sigCh     chan os.Signal
	stopCh    chan struct{}
)

// Start installs the signal handler goroutine. Safe to call more than
// once; only the first call has any effect.
func Start() {
	startOnce.Do(func() {
		sigCh = make(chan os.Signal, 8)
		stopCh = make(chan struct{})
		signal.Notify(sigCh, syscall.SIGBUS, syscall.SIGFPE, syscall.SIGSEGV, syscall.SIGUSR1)
		go loop()
	})
}

// Stop tears down signal delivery; used by tests. internal/shutdown
// does not call it.
func Stop() {
	if sigCh == nil {
		return
	}
	signal.Stop(sigCh)
	close(stopCh)
}

func loop() {
	for {
		select {
		case s := <-sigCh:
			handle(s)
		case <-stopCh:
			return
		}
	}
}

// handle classifies an incoming signal. SIGSEGV/SIGBUS/SIGFPE arriving
// here came from outside the Go runtime's own synchronous-fault path
// (see package doc) -- a fault inside Go code never reaches a
// signal.Notify channel at all, it becomes a runtime panic or a fatal
// crash first. So this branch is a diagnostic trace, not the NPE/
// StackOverflowError classification spec.md §4.10 describes; that
// classification is performed unconditionally by internal/interp and
// internal/frames instead (see package doc).
func handle(s os.Signal) {
	if !handlingSignal.CompareAndSwap(false, true) {
		return
	}
	defer handlingSignal.Store(false)

	switch s {
	case syscall.SIGUSR1:
		if DebugCallback != nil {
			DebugCallback()
		}
	default:
		trace.Trace("sig: received " + s.String() + " from outside the Go fault path; ignoring")
	}
}
