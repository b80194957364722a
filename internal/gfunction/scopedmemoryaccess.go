/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Adapted from the teacher's gfunction/jdkInternalMiscScopedMemoryAccess.go.
// The JDK's ScopedMemoryAccess backs java.lang.foreign's MemorySegment
// with raw off-heap pointers and a closed/open scope check; spec.md
// has no foreign-memory module, so every entry here traps rather than
// pretending to support unsafe off-heap access. Registered (instead of
// left absent) so a program that touches java.lang.foreign gets a
// clear UnsatisfiedLinkError pointing at the specific method instead
// of a generic "no native method found."
package gfunction

func loadScopedMemoryAccess() {
	const cls = "jdk/internal/misc/ScopedMemoryAccess"

	for _, sig := range []string{
		cls + ".closeScope(Ljdk/internal/misc/ScopedMemoryAccess$Scope;Ljdk/internal/misc/ScopedMemoryAccess$Scope$ScopedAccessError;)V",
		cls + ".getByte(Ljdk/internal/misc/ScopedMemoryAccess$Scope;Ljava/lang/Object;J)B",
		cls + ".putByte(Ljdk/internal/misc/ScopedMemoryAccess$Scope;Ljava/lang/Object;JB)V",
	} {
		MethodSignatures[sig] = GMeth{GFunction: trapFunction}
	}
}
