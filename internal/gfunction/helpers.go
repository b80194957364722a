/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"strconv"

	"corevm/internal/excnames"
	"corevm/internal/interp"
	"corevm/internal/object"
	"corevm/internal/types"
)

// javaBool converts a Go bool to the int64 encoding a Java boolean
// return uses.
func javaBool(b bool) int64 {
	if b {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}

// asString extracts the Go string inside a java/lang/String instance,
// the adapted equivalent of the teacher's object.GoStringFromStringObject.
func asString(v interface{}) (string, error) {
	obj, ok := v.(*object.Object)
	if !ok || obj == nil {
		return "", excnames.NewVMError(excnames.NullPointerException, "")
	}
	return object.GoStringFromJavaByteArray(object.JavaByteArrayFromStringObject(obj)), nil
}

// newJavaString builds a fresh java/lang/String instance around a Go
// string, the adapted equivalent of the teacher's
// object.StringObjectFromGoString.
func newJavaString(s string) *object.Object {
	return object.StringObjectFromJavaByteArray(object.JavaByteArrayFromGoString(s))
}

// setJavaString overwrites an already-allocated String object's
// backing bytes in place. Needed because Java's String constructors
// are void instance initializers (<init>) that mutate the receiver
// rather than returning a new object -- the teacher's equivalent is
// object.UpdateStringObjectFromBytes, which has no analogue yet in
// this repo's object package since nothing needed in-place String
// mutation before gfunction's <init> methods did.
func setJavaString(obj *object.Object, s string) {
	obj.AddField("value", &object.Field{Ftype: types.ByteArray, Fvalue: object.JavaByteArrayFromGoString(s)})
}

// populator wraps a Go slice into a corevm array object of the given
// element descriptor, the adapted equivalent of the teacher's
// populator helper (which additionally took a Java array-type name
// string purely for a debug label; this runtime's NewArray only needs
// the element descriptor).
func populator(elemDescriptor string, values []interface{}) (*object.Object, error) {
	arr, err := interp.NewArray(elemDescriptor, len(values))
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if err := interp.ArraySet(arr, i, v); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

// stringSliceToRefArray builds a [Ljava/lang/String; array object from
// a Go []string, the common shape String.split/String.lines need.
func stringSliceToRefArray(parts []string) (*object.Object, error) {
	values := make([]interface{}, len(parts))
	for i, p := range parts {
		values[i] = newJavaString(p)
	}
	return populator("Ljava/lang/String;", values)
}

// runesToCharArray builds a [C array object from a Go []rune,
// String.toCharArray's return shape.
func runesToCharArray(runes []rune) (*object.Object, error) {
	values := make([]interface{}, len(runes))
	for i, r := range runes {
		values[i] = int64(r)
	}
	return populator("C", values)
}

// byteSliceToByteArray builds a [B array object from a Go []byte,
// String.getBytes's return shape.
func byteSliceToByteArray(b []byte) (*object.Object, error) {
	values := make([]interface{}, len(b))
	for i, v := range b {
		values[i] = int64(int8(v))
	}
	return populator("B", values)
}

func boundsCheck(index, length int) error {
	if index < 0 || index >= length {
		return excnames.NewVMError(excnames.StringIndexOutOfBoundsException,
			"index "+strconv.Itoa(index)+", length "+strconv.Itoa(length))
	}
	return nil
}
