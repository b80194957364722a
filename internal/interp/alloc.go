/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"strconv"

	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/heap"
	"corevm/internal/object"
)

// maxSmallSlots is the largest size class heap.DefaultSizeClasses
// offers; a request bigger than this goes through AllocLarge instead.
const maxSmallSlots = 256

func allocSlots(slots int) (*object.Object, error) {
	if slots < 1 {
		slots = 1
	}
	h := heap.Default()
	var obj *object.Object
	var err error
	if slots <= maxSmallSlots {
		obj, err = h.AllocSmall(slots)
	} else {
		npages := (slots + maxSmallSlots - 1) / maxSmallSlots
		obj, err = h.AllocLarge(npages)
	}
	if err != nil {
		return nil, excnames.NewVMError(excnames.OutOfMemoryError, err.Error())
	}
	return obj, nil
}

// NewInstance allocates and zero-initializes an instance of t,
// including its superclass's declared fields, matching the `new`
// opcode's semantics (spec.md §4.2's layout -- field slots are already
// computed at derivation time; this just gives each one a default
// value).
func NewInstance(t *classloader.Type) (*object.Object, error) {
	slots := 1
	for cur := t; cur != nil; cur = cur.Super {
		slots += len(cur.Fields)
	}
	obj, err := allocSlots(slots)
	if err != nil {
		return nil, err
	}
	name := t.Name
	obj.Klass = &name
	obj.Lock = t.LockTemplate

	for cur := t; cur != nil; cur = cur.Super {
		for _, f := range cur.Fields {
			if f.IsStatic {
				continue
			}
			obj.AddField(f.Name, &object.Field{Ftype: f.Descriptor, Fvalue: zeroValueFor(f.Descriptor)})
		}
	}
	return obj, nil
}

// zeroValueFor returns a descriptor's JVMS §2.3/§2.4 default value.
func zeroValueFor(descriptor string) interface{} {
	if len(descriptor) == 0 {
		return nil
	}
	switch descriptor[0] {
	case 'J':
		return int64(0)
	case 'F':
		return float32(0)
	case 'D':
		return float64(0)
	case 'Z':
		return false
	case 'B', 'C', 'S', 'I':
		return int64(0)
	default: // L...; or [...
		return nil
	}
}

// NewArray allocates a length-element array object whose component
// type is elemDescriptor (a single basic-type letter for NEWARRAY, or
// a full reference/array descriptor for ANEWARRAY/MULTIANEWARRAY).
func NewArray(elemDescriptor string, length int) (*object.Object, error) {
	if length < 0 {
		return nil, excnames.NewVMError(excnames.NegativeArraySizeException, "")
	}
	obj, err := allocSlots(length)
	if err != nil {
		return nil, err
	}
	obj.IsArray = true
	obj.ArrayType = elemDescriptor
	obj.Lock.SetArray(true)
	elems := make([]interface{}, length)
	zero := zeroValueFor(elemDescriptor)
	for i := range elems {
		elems[i] = zero
	}
	obj.AddField("length", &object.Field{Ftype: "I", Fvalue: int64(length)})
	obj.AddField("elements", &object.Field{Ftype: "[" + elemDescriptor, Fvalue: elems})
	return obj, nil
}

// ArrayLength returns obj's element count, or an error if obj isn't an
// array.
func ArrayLength(obj *object.Object) (int, error) {
	if obj == nil || !obj.IsArray {
		return 0, excnames.NewVMError(excnames.NullPointerException, "")
	}
	f := obj.FieldTable["elements"]
	if f == nil {
		return 0, nil
	}
	return len(f.Fvalue.([]interface{})), nil
}

// ArrayGet/ArraySet implement bounds-checked element access for
// *aload/*astore, per spec.md §4.6's "every array access ... performs
// an explicit check."
func ArrayGet(obj *object.Object, index int) (interface{}, error) {
	if obj == nil {
		return nil, excnames.NewVMError(excnames.NullPointerException, "")
	}
	f := obj.FieldTable["elements"]
	elems := f.Fvalue.([]interface{})
	if index < 0 || index >= len(elems) {
		return nil, excnames.NewVMError(excnames.ArrayIndexOutOfBoundsException, boundsMsg(index, len(elems)))
	}
	return elems[index], nil
}

func ArraySet(obj *object.Object, index int, v interface{}) error {
	if obj == nil {
		return excnames.NewVMError(excnames.NullPointerException, "")
	}
	f := obj.FieldTable["elements"]
	elems := f.Fvalue.([]interface{})
	if index < 0 || index >= len(elems) {
		return excnames.NewVMError(excnames.ArrayIndexOutOfBoundsException, boundsMsg(index, len(elems)))
	}
	elems[index] = v
	return nil
}

func boundsMsg(index, length int) string {
	return "Index " + strconv.Itoa(index) + " out of bounds for length " + strconv.Itoa(length)
}
