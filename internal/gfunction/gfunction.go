/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction is spec.md §6's native-method bridge: Go
// implementations of java.lang/java.util/java.io methods that the
// loader marks ACC_NATIVE instead of giving a Code attribute, grounded
// on the teacher's gfunction package (javaLangString.go,
// javaLangStringBuilder.go, javaLangThread.go, javaUtilHashMap.go,
// javaIoInputStreamReader.go, jdkInternalMiscScopedMemoryAccess.go).
//
// The teacher's GFunction signature returns a single interface{} and
// signals failure with a sentinel "error block" value the caller has
// to type-switch for, because every entry in MethodSignatures has to
// share one function shape. Go's frames.RunNativeMethod hook already
// returns (interface{}, error), so this package's GFunction carries
// the error as a real second return instead of inventing a sentinel --
// same registry shape and lookup-by-descriptor convention, idiomatic
// error return in place of the teacher's GErrBlk type.
package gfunction

import (
	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/frames"
)

// GFunction is a native method body. params is slot-ordered: params[0]
// is the receiver for an instance method, then declared arguments in
// order, matching frames.RunNativeMethod's calling convention.
type GFunction func(params []interface{}) (interface{}, error)

// GMeth is one entry in MethodSignatures: the function plus the
// logical parameter-slot count the teacher's table records for
// documentation/validation purposes (this runtime derives the actual
// slot count from the method descriptor at call time, so ParamSlots
// here is informational, kept for parity with the teacher's table).
type GMeth struct {
	ParamSlots int
	GFunction  GFunction
}

// MethodSignatures maps "class/Name.method(descriptor)returnType" to
// its native implementation, the same key format as the teacher's
// registry (class internal name + JVMS method descriptor, dot-joined).
var MethodSignatures = make(map[string]GMeth)

func init() {
	loadLangString()
	loadLangStringBuilder()
	loadLangThread()
	loadUtilHashMap()
	loadIoInputStreamReader()
	loadScopedMemoryAccess()

	frames.RunNativeMethod = run
}

// run looks up and invokes the registered native implementation for
// m, the frames.RunNativeMethod hook gfunction installs at init.
func run(m *classloader.Method, args []interface{}) (interface{}, error) {
	owner := ""
	if m.Owner != nil {
		owner = m.Owner.Name
	}
	key := owner + "." + m.Name + m.Descriptor
	gm, ok := MethodSignatures[key]
	if !ok {
		return nil, excnames.NewVMError(excnames.UnsatisfiedLinkError, key)
	}
	return gm.GFunction(args)
}

// trapFunction is registered against signatures this package
// deliberately does not implement (deep reflection, security manager
// hooks, and other methods outside spec.md's scope): it fails loudly
// with UnsatisfiedLinkError rather than silently returning a zero
// value, the same choice the teacher's trapFunction makes.
func trapFunction(params []interface{}) (interface{}, error) {
	return nil, excnames.NewVMError(excnames.UnsatisfiedLinkError, "method intentionally not implemented")
}

// trapDeprecated is registered against JDK methods deprecated for
// removal (String's encode/decode-by-platform-charset variants, most
// notably); real JDKs still run them, so this returns a quiet
// UnsupportedOperationException rather than UnsatisfiedLinkError.
func trapDeprecated(params []interface{}) (interface{}, error) {
	return nil, excnames.NewVMError(excnames.UnsupportedOperationException, "deprecated method not implemented")
}
