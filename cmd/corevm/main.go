/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command corevm boots the core runtime: it parses the command line
// and JVM system properties, resolves a boot/extension/app classpath,
// loads and links the requested main class, and drives it on the
// bytecode interpreter. It also exposes a "monitor" subcommand, a live
// TUI over the running VM's heap, GC and thread state.
package main

import (
	"os"

	// Side-effect imports: both packages install themselves into
	// frames's hook variables (RunJavaFrame, RunNativeMethod) from
	// their init() functions. Nothing in this command calls into
	// interp or gfunction directly -- frames.Trampoline is the only
	// caller -- but one of them must be linked into the binary for
	// Trampoline to have anything to call.
	_ "corevm/internal/gfunction"
	_ "corevm/internal/interp"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
