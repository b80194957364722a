/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"strings"

	"corevm/internal/classloader"
	"corevm/internal/excnames"
)

// RetKind is the return ptype a trampoline tail-calls into, one of
// the ten interpreter entry points spec.md §4.7 describes.
type RetKind int

const (
	RetVoid RetKind = iota
	RetInt
	RetLong
	RetFloat
	RetDouble
	RetRef
	RetBoolean
	RetByte
	RetChar
	RetShort
)

// RetKindOf maps a method descriptor's return type to the ptype its
// trampoline dispatches through.
func RetKindOf(descriptor string) RetKind {
	paren := strings.LastIndexByte(descriptor, ')')
	if paren < 0 || paren+1 >= len(descriptor) {
		return RetVoid
	}
	ret := descriptor[paren+1:]
	switch {
	case ret == "V":
		return RetVoid
	case ret == "J":
		return RetLong
	case ret == "F":
		return RetFloat
	case ret == "D":
		return RetDouble
	case ret == "Z":
		return RetBoolean
	case ret == "B":
		return RetByte
	case ret == "C":
		return RetChar
	case ret == "S":
		return RetShort
	case ret == "I":
		return RetInt
	default: // L...; or [...
		return RetRef
	}
}

// RunJavaFrame executes the Java method described by fs's top frame
// until it returns or throws. interp installs this hook at init time;
// frames itself only owns the stack data structure, avoiding an
// import cycle between frames and interp.
var RunJavaFrame func(fs *FrameStack) error

// RunNativeMethod invokes a go-implemented (gfunction) method. Set by
// the gfunction package at init.
var RunNativeMethod func(m *classloader.Method, args []interface{}) (interface{}, error)

// Trampoline marshals args/argRefs into a fresh frame for m and runs
// it to completion, matching spec.md §4.7's description of storing
// Method* into the thread's interp slot and tail-calling the ptype
// entry point. argRefs carries reference-typed arguments (including
// the receiver at slot 0 for an instance method), keyed by local slot
// index the same way Frame.LocalRefs is. A second family
// (RunNativeMethod) handles native methods in JNI calling convention
// instead. The returned Frame's Returned/RetKind/RetVal/RetRef fields
// carry the method's result back to the caller.
func Trampoline(fs *FrameStack, m *classloader.Method, args []int64, argRefs map[int]interface{}) (*Frame, error) {
	if m.IsAbstract {
		return nil, nil
	}
	if m.IsNative {
		return runNative(m, args, argRefs)
	}
	f := CreateFrame(int(m.Code.MaxStack) + 2)
	f.Method = m
	f.MethName = m.Name
	f.MethType = m.Descriptor
	if m.Owner != nil {
		f.ClName = m.Owner.Name
		f.CP = m.Owner.CP
	}
	f.Meth = append(f.Meth, m.Code.Code...)
	f.Locals = make([]int64, m.Code.MaxLocals)
	copy(f.Locals, args)
	for i, v := range argRefs {
		f.LocalRefs[i] = v
	}

	if err := PushFrame(fs, f); err != nil {
		return nil, err
	}
	if RunJavaFrame != nil {
		if err := RunJavaFrame(fs); err != nil {
			PopFrame(fs)
			return nil, err
		}
	}
	PopFrame(fs)
	return f, nil
}

// runNative marshals args/argRefs into the slot-ordered params list
// RunNativeMethod expects (the receiver, if any, at slot 0, then
// declared parameters in order -- this runtime never spans a
// parameter across two slots, so the logical argument list and the
// slot-indexed one coincide) and wraps the result back into a Frame
// the same way a Java-bodied trampoline would, so execInvoke doesn't
// need to know whether it called native or interpreted code.
func runNative(m *classloader.Method, args []int64, argRefs map[int]interface{}) (*Frame, error) {
	if RunNativeMethod == nil {
		owner := ""
		if m.Owner != nil {
			owner = m.Owner.Name + "."
		}
		return nil, excnames.NewVMError(excnames.UnsatisfiedLinkError, owner+m.Name+m.Descriptor)
	}
	params := make([]interface{}, len(args))
	for i := range params {
		if v, ok := argRefs[i]; ok {
			params[i] = v
		} else {
			params[i] = args[i]
		}
	}
	result, err := RunNativeMethod(m, params)
	if err != nil {
		return nil, err
	}
	f := &Frame{Method: m, MethName: m.Name, MethType: m.Descriptor, Returned: true}
	if m.Owner != nil {
		f.ClName = m.Owner.Name
	}
	f.RetKind = RetKindOf(m.Descriptor)
	if f.RetKind == RetRef {
		f.RetRef = result
	} else if f.RetKind != RetVoid {
		if iv, ok := result.(int64); ok {
			f.RetVal = iv
		}
	}
	return f, nil
}
