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

// newArrayTypes maps NEWARRAY's atype operand (JVMS §6.5 newarray) to
// the element descriptor letter.
var newArrayTypes = map[byte]string{
	4:  "Z",
	5:  "C",
	6:  "F",
	7:  "D",
	8:  "B",
	9:  "S",
	10: "I",
	11: "J",
}

func execNew(f *frames.Frame) error {
	idx := binary.BigEndian.Uint16(f.Meth[f.PC:])
	f.PC += 2
	if f.Method == nil || f.Method.Owner == nil {
		return excnames.NewVMError(excnames.ClassFormatError, "new outside a linked method")
	}
	v, ok := f.Method.Owner.FetchCPEntry(idx)
	if !ok {
		return excnames.NewVMError(excnames.ClassFormatError, "bad class index")
	}
	t, ok := v.(*classloader.Type)
	if !ok {
		return excnames.NewVMError(excnames.ClassFormatError, "new operand is not a class")
	}
	obj, err := NewInstance(t)
	if err != nil {
		return err
	}
	f.PushRef(obj)
	return nil
}

func execNewArray(f *frames.Frame) error {
	atype := f.Meth[f.PC]
	f.PC++
	desc, ok := newArrayTypes[atype]
	if !ok {
		return excnames.NewVMError(excnames.ClassFormatError, "bad newarray atype")
	}
	length := int(int32(f.Pop()))
	obj, err := NewArray(desc, length)
	if err != nil {
		return err
	}
	f.PushRef(obj)
	return nil
}

func execANewArray(f *frames.Frame) error {
	idx := binary.BigEndian.Uint16(f.Meth[f.PC:])
	f.PC += 2
	if f.Method == nil || f.Method.Owner == nil {
		return excnames.NewVMError(excnames.ClassFormatError, "anewarray outside a linked method")
	}
	v, ok := f.Method.Owner.FetchCPEntry(idx)
	if !ok {
		return excnames.NewVMError(excnames.ClassFormatError, "bad class index")
	}
	t, ok := v.(*classloader.Type)
	if !ok {
		return excnames.NewVMError(excnames.ClassFormatError, "anewarray operand is not a class")
	}
	length := int(int32(f.Pop()))
	elemDescriptor := t.Name
	if len(elemDescriptor) == 0 || elemDescriptor[0] != '[' {
		elemDescriptor = "L" + elemDescriptor + ";"
	}
	obj, err := NewArray(elemDescriptor, length)
	if err != nil {
		return err
	}
	f.PushRef(obj)
	return nil
}

// execArrayLoad handles the non-reference *aload opcodes, converting
// each element's native Go representation back to the operand stack's
// int64 word (bit-pattern-preserving for float/double, per JVMS §2.6.1).
func execArrayLoad(f *frames.Frame, op opcodes.Opcode) error {
	index := int(int32(f.Pop()))
	ref := f.PopRef()
	if ref == nil {
		return excnames.NewVMError(excnames.NullPointerException, "")
	}
	v, err := ArrayGet(ref.(*object.Object), index)
	if err != nil {
		return err
	}
	switch op {
	case opcodes.FALOAD:
		f.Push(int64(math.Float32bits(toFloat32(v))))
	case opcodes.DALOAD:
		f.Push(int64(math.Float64bits(toFloat64(v))))
	case opcodes.BALOAD:
		f.Push(int64(int8(toInt64(v))))
	case opcodes.CALOAD:
		f.Push(int64(uint16(toInt64(v))))
	case opcodes.SALOAD:
		f.Push(int64(int16(toInt64(v))))
	default: // IALOAD, LALOAD
		f.Push(toInt64(v))
	}
	return nil
}

func execArrayLoadRef(f *frames.Frame) error {
	index := int(int32(f.Pop()))
	ref := f.PopRef()
	if ref == nil {
		return excnames.NewVMError(excnames.NullPointerException, "")
	}
	v, err := ArrayGet(ref.(*object.Object), index)
	if err != nil {
		return err
	}
	f.PushRef(v)
	return nil
}

// execArrayStore handles the non-reference *astore opcodes, converting
// the popped operand-stack word into the element's native Go
// representation before ArraySet.
func execArrayStore(f *frames.Frame, op opcodes.Opcode) error {
	raw := f.Pop()
	index := int(int32(f.Pop()))
	ref := f.PopRef()
	if ref == nil {
		return excnames.NewVMError(excnames.NullPointerException, "")
	}
	obj := ref.(*object.Object)
	var v interface{}
	switch op {
	case opcodes.FASTORE:
		v = math.Float32frombits(uint32(raw))
	case opcodes.DASTORE:
		v = math.Float64frombits(uint64(raw))
	default: // IASTORE, LASTORE, BASTORE, CASTORE, SASTORE
		v = raw
	}
	return ArraySet(obj, index, v)
}

func execArrayStoreRef(f *frames.Frame) error {
	v := f.PopRef()
	index := int(int32(f.Pop()))
	ref := f.PopRef()
	if ref == nil {
		return excnames.NewVMError(excnames.NullPointerException, "")
	}
	obj := ref.(*object.Object)
	if v != nil {
		if elemType, ok := typeOfObject(v.(*object.Object)); ok {
			if arrType, ok2 := resolveArrayElementType(obj); ok2 && !elemType.IsInstance(arrType) {
				return excnames.NewVMError(excnames.ArrayStoreException, elemType.Name)
			}
		}
	}
	return ArraySet(obj, index, v)
}

// resolveArrayElementType resolves obj's component type for aastore's
// store-compatibility check, when obj's ArrayType names a loaded class.
func resolveArrayElementType(obj *object.Object) (*classloader.Type, bool) {
	if obj == nil || len(obj.ArrayType) < 2 || obj.ArrayType[0] != 'L' {
		return nil, false
	}
	name := obj.ArrayType[1 : len(obj.ArrayType)-1]
	for _, l := range classloader.AllLoaders() {
		if t, ok := l.FindType(name); ok {
			return t, true
		}
	}
	return nil, false
}

func toInt64(v interface{}) int64 {
	switch vv := v.(type) {
	case int64:
		return vv
	case bool:
		if vv {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func toFloat32(v interface{}) float32 {
	if vv, ok := v.(float32); ok {
		return vv
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	if vv, ok := v.(float64); ok {
		return vv
	}
	return 0
}
