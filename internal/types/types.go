/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds the small, shared value types that nearly every
// other package in corevm needs: the Java primitive descriptors, the
// sentinel string-pool indices, and the byte type used to model a Java
// byte distinctly from a Go byte (Java bytes are signed).
package types

// JavaByte is a signed 8-bit value, distinct from Go's unsigned byte.
// Java byte arrays (and Latin-1-backed Strings) are stored as []JavaByte
// so that sign-extension on read matches JVMS semantics.
type JavaByte int8

// Field descriptor characters, JVMS 4.3.2.
const (
	Bool      = "Z"
	Byte      = "B"
	Char      = "C"
	Double    = "D"
	Float     = "F"
	Int       = "I"
	Long      = "J"
	Ref       = "L"
	Short     = "S"
	Void      = "V"
	Array     = "["
	RefArray  = "[L"
	ByteArray = "[B"
)

// StringClassName and ObjectClassName are the fully qualified internal-form
// names the loader and object model special-case frequently enough that
// spelling them out is both slower and worse for typo-proofing.
const (
	StringClassName = "java/lang/String"
	ObjectClassName  = "java/lang/Object"
	ClassClassName   = "java/lang/Class"
)

// String-pool sentinel indices. InvalidStringIndex marks "no entry" the
// way a nil pointer would in a language with nullable references; it is
// distinct from any real pool index because index 0 is reserved (mirrors
// the constant-pool convention of never using index 0 for a live entry).
const (
	InvalidStringIndex    uint32 = 0xFFFFFFFF
	ObjectPoolStringIndex uint32 = 1
	// StringPoolStringIndex is the well-known pool slot for "java/lang/String"
	// itself, populated during stringPool initialization.
	StringPoolStringIndex uint32 = 2
)

// <clinit> run-state values. classloader.Type carries its own
// ClInitState with the same four values; nothing reads these constants.
const (
	NoClinit          byte = 0
	ClInitNotRun      byte = 1
	ClInitInProgress  byte = 2
	ClInitRun         byte = 3
)

// JavaBoolTrue / JavaBoolFalse are the canonical Go representations gfunction
// implementations return for a Java boolean result.
const (
	JavaBoolFalse int64 = 0
	JavaBoolTrue  int64 = 1
)
