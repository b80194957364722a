/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"encoding/binary"

	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/frames"
	"corevm/internal/object"
	"corevm/internal/opcodes"
	"corevm/internal/thread"
)

// parseParamDescriptors splits a method descriptor's "(...)" parameter
// segment into its individual field descriptors, in declared order.
func parseParamDescriptors(descriptor string) []string {
	var params []string
	i := 1 // skip the leading '('
	for i < len(descriptor) && descriptor[i] != ')' {
		start := i
		for i < len(descriptor) && descriptor[i] == '[' {
			i++
		}
		if i < len(descriptor) && descriptor[i] == 'L' {
			for i < len(descriptor) && descriptor[i] != ';' {
				i++
			}
			i++
		} else {
			i++
		}
		params = append(params, descriptor[start:i])
	}
	return params
}

// execInvoke resolves and dispatches invokevirtual/invokespecial/
// invokestatic/invokeinterface, per spec.md §4.6: pop the receiver and
// arguments off the caller's operand stack according to the resolved
// descriptor, select the target method (static lookup for
// special/static, runtime-type dispatch for virtual/interface via
// classloader's vtable/itable), trampoline into it, and push back
// whatever it returns.
func execInvoke(th *thread.ExecThread, fs *frames.FrameStack, f *frames.Frame, op opcodes.Opcode) error {
	idx := binary.BigEndian.Uint16(f.Meth[f.PC:])
	f.PC += 2
	if op == opcodes.INVOKEINTERFACE {
		f.PC += 2 // count byte + reserved zero byte (JVMS §6.5 invokeinterface)
	}
	if f.Method == nil || f.Method.Owner == nil {
		return excnames.NewVMError(excnames.ClassFormatError, "invoke outside a linked method")
	}
	ref, err := resolveRef(f.Method.Owner.CP, idx)
	if err != nil {
		return err
	}
	owner, err := resolveRefClass(f.Method.Owner, ref)
	if err != nil {
		return err
	}

	params := parseParamDescriptors(ref.Descriptor)
	popped := make([]interface{}, len(params))
	isRef := make([]bool, len(params))
	for i := len(params) - 1; i >= 0; i-- {
		if isRefDescriptor(params[i]) {
			popped[i] = f.PopRef()
			isRef[i] = true
		} else {
			popped[i] = f.Pop()
		}
	}

	static := op == opcodes.INVOKESTATIC
	var receiver interface{}
	if !static {
		receiver = f.PopRef()
		if receiver == nil {
			return excnames.NewVMError(excnames.NullPointerException, "")
		}
	}

	var target *classloader.Method
	switch op {
	case opcodes.INVOKESTATIC, opcodes.INVOKESPECIAL:
		target = owner.ResolveMethod(ref.Name, ref.Descriptor)
	case opcodes.INVOKEVIRTUAL:
		recvType, ok := typeOfObject(receiver.(*object.Object))
		if !ok {
			recvType = owner
		}
		target = recvType.ResolveMethod(ref.Name, ref.Descriptor)
	case opcodes.INVOKEINTERFACE:
		recvType, ok := typeOfObject(receiver.(*object.Object))
		if !ok {
			recvType = owner
		}
		target = recvType.LookupInterfaceMethod(ref.Name, ref.Descriptor)
	}
	if target == nil {
		return excnames.NewVMError(excnames.AbstractMethodError, ref.ClassName+"."+ref.Name+ref.Descriptor)
	}

	args := make([]int64, 1)
	argRefs := map[int]interface{}{}
	slot := 0
	if !static {
		argRefs[0] = receiver
		slot = 1
	}
	for i, v := range popped {
		for slot >= len(args) {
			args = append(args, 0)
		}
		if isRef[i] {
			argRefs[slot] = v
		} else {
			args[slot] = v.(int64)
		}
		slot++
	}

	retFrame, err := frames.Trampoline(fs, target, args, argRefs)
	if err != nil {
		return err
	}
	if retFrame == nil {
		return nil
	}
	switch retFrame.RetKind {
	case frames.RetVoid:
		// nothing to push
	case frames.RetRef:
		f.PushRef(retFrame.RetRef)
	default:
		f.Push(retFrame.RetVal)
	}
	return nil
}
