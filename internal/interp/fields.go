/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"encoding/binary"
	"math"

	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/frames"
	"corevm/internal/object"
	"corevm/internal/opcodes"
)

func execFieldOp(f *frames.Frame, op opcodes.Opcode) error {
	idx := binary.BigEndian.Uint16(f.Meth[f.PC:])
	f.PC += 2
	if f.Method == nil || f.Method.Owner == nil {
		return excnames.NewVMError(excnames.ClassFormatError, "field op outside a linked method")
	}
	ref, err := resolveRef(f.Method.Owner.CP, idx)
	if err != nil {
		return err
	}
	owner, err := resolveRefClass(f.Method.Owner, ref)
	if err != nil {
		return err
	}
	slot, declaring := owner.ResolveField(ref.Name)
	if slot == nil {
		return excnames.NewVMError(excnames.NoSuchFieldError, ref.ClassName+"."+ref.Name)
	}

	switch op {
	case opcodes.GETSTATIC:
		v := declaring.StaticValue[slot.StaticSlot]
		pushFieldValue(f, slot.Descriptor, v)
		return nil
	case opcodes.PUTSTATIC:
		declaring.StaticValue[slot.StaticSlot] = popFieldValue(f, slot.Descriptor)
		return nil
	case opcodes.GETFIELD:
		ref := f.PopRef()
		if ref == nil {
			return excnames.NewVMError(excnames.NullPointerException, "")
		}
		obj := ref.(*object.Object)
		fld := obj.FieldTable[slot.Name]
		var v interface{}
		if fld != nil {
			v = fld.Fvalue
		}
		pushFieldValue(f, slot.Descriptor, v)
		return nil
	case opcodes.PUTFIELD:
		v := popFieldValue(f, slot.Descriptor)
		ref := f.PopRef()
		if ref == nil {
			return excnames.NewVMError(excnames.NullPointerException, "")
		}
		obj := ref.(*object.Object)
		obj.AddField(slot.Name, &object.Field{Ftype: slot.Descriptor, Fvalue: v})
		return nil
	}
	return nil
}

func isRefDescriptor(d string) bool {
	return len(d) > 0 && (d[0] == 'L' || d[0] == '[')
}

func pushFieldValue(f *frames.Frame, descriptor string, v interface{}) {
	if isRefDescriptor(descriptor) {
		f.PushRef(v)
		return
	}
	switch vv := v.(type) {
	case float32:
		f.Push(int64(math.Float32bits(vv)))
	case float64:
		f.Push(int64(math.Float64bits(vv)))
	case int64:
		f.Push(vv)
	case bool:
		if vv {
			f.Push(1)
		} else {
			f.Push(0)
		}
	case nil:
		f.Push(0)
	default:
		f.Push(0)
	}
}

func popFieldValue(f *frames.Frame, descriptor string) interface{} {
	if isRefDescriptor(descriptor) {
		return f.PopRef()
	}
	raw := f.Pop()
	switch descriptor {
	case "F":
		return math.Float32frombits(uint32(raw))
	case "D":
		return math.Float64frombits(uint64(raw))
	case "Z":
		return raw != 0
	default:
		return raw
	}
}

func execCastCheck(f *frames.Frame, op opcodes.Opcode) error {
	idx := binary.BigEndian.Uint16(f.Meth[f.PC:])
	f.PC += 2
	if f.Method == nil || f.Method.Owner == nil {
		return excnames.NewVMError(excnames.ClassFormatError, "checkcast/instanceof outside a linked method")
	}
	v, ok := f.Method.Owner.FetchCPEntry(idx)
	if !ok {
		return excnames.NewVMError(excnames.ClassFormatError, "bad class index")
	}
	target, _ := v.(*classloader.Type)

	if op == opcodes.INSTANCEOF {
		ref := f.PopRef()
		result := int64(0)
		if ref != nil && target != nil {
			obj := ref.(*object.Object)
			if ownerType, ok2 := typeOfObject(obj); ok2 && ownerType.IsInstance(target) {
				result = 1
			}
		}
		f.Push(result)
		return nil
	}

	// CHECKCAST
	ref := f.PopRef()
	if ref != nil && target != nil {
		obj := ref.(*object.Object)
		if ownerType, ok2 := typeOfObject(obj); ok2 && !ownerType.IsInstance(target) {
			f.PushRef(ref)
			return excnames.NewVMError(excnames.ClassCastException, "")
		}
	}
	f.PushRef(ref)
	return nil
}

// typeOfObject recovers obj's derived *classloader.Type via its
// defining loader, used by checkcast/instanceof. Objects carry only
// their class name string (object.Object.Klass) to stay independent
// of the classloader package; interp is the boundary that reconnects
// the two.
func typeOfObject(obj *object.Object) (*classloader.Type, bool) {
	if obj == nil || obj.Klass == nil {
		return nil, false
	}
	for _, l := range classloader.AllLoaders() {
		if t, ok := l.FindType(*obj.Klass); ok {
			return t, true
		}
	}
	return nil, false
}
