/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package shutdown centralizes the core's exit codes (spec.md §6 "Exit
// codes") so that every fatal path -- bootstrap failure, double signal,
// invariant failure -- agrees on what number the process leaves behind.
package shutdown

import (
	"os"

	"corevm/internal/trace"
)

// Exit code classes. 0 is reserved for a normal System.exit(0)/return
// from main; everything else names a reason a fatal path picked it.
const (
	OK              = 0
	JVM_EXCEPTION   = 1 // uncaught Java exception reached main
	CL_ERROR        = 2 // classloader/linkage error during bootstrap
	VM_OPT_ERROR    = 3 // malformed system property/CLI argument
	APP_EXCEPTION   = 4 // application called System.exit(n) with n != 0
	UNHANDLED_ERROR = 5 // fatal error invariant failure
)

// exiter is swapped out in tests so a fatal path can be asserted against
// without actually killing the test binary.
var exiter = os.Exit

// Exit terminates the process with the given code. No code path calls
// it; cmd/corevm's main calls os.Exit(1) directly on error.
func Exit(code int) {
	exiter(code)
}

// Abort is the fatal-error path of spec.md §7: invariant failure, double
// signal, or an error so severe recovery isn't attempted. It always exits
// with UNHANDLED_ERROR. No code path calls it; internal/sig ignores a
// re-entrant signal rather than aborting.
func Abort(reason string) {
	trace.Error("fatal: " + reason)
	exiter(UNHANDLED_ERROR)
}
