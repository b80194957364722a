/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package jni is spec.md §6's thin JNI façade: a read-only projection
// of classloader.Type/Field/Method plus the small set of env
// operations a native method actually needs against this runtime's
// object model (string marshaling, field/method lookup by name and
// descriptor). No native (.so) loading is implemented -- spec.md
// scopes that out, and internal/gfunction's registry already covers
// what this runtime calls "native methods" without going through a
// real C calling convention.
package jni

import (
	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/object"
)

// Type is the read-only view of a classloader.Type a native method
// sees through JNIEnv->GetObjectClass and friends: enough to inspect
// but not to mutate linkage state.
type Type struct {
	Name       string
	Super      string
	Interfaces []string
}

// Field/Method mirror JVMS's jfieldID/jmethodID concept: an opaque
// handle a native method passes back into further env calls, modeled
// here as the plain descriptor pair since corevm has no separate
// native heap to allocate an opaque ID from.
type Field struct {
	Name       string
	Descriptor string
	IsStatic   bool
}

type Method struct {
	Name       string
	Descriptor string
	IsStatic   bool
}

// ReflectType projects a linked Type into jni's read-only view.
func ReflectType(t *classloader.Type) Type {
	if t == nil {
		return Type{}
	}
	out := Type{Name: t.Name}
	if t.Super != nil {
		out.Super = t.Super.Name
	}
	for _, i := range t.Ifaces {
		out.Interfaces = append(out.Interfaces, i.Name)
	}
	return out
}

// GetFieldID resolves a field by name on t, JNIEnv->GetFieldID's
// read-only analogue -- no offset/caching, since field access already
// goes through classloader.Type.ResolveField at full speed.
func GetFieldID(t *classloader.Type, name, descriptor string) (*Field, error) {
	slot, owner := t.ResolveField(name)
	if slot == nil || owner == nil || slot.Descriptor != descriptor {
		return nil, excnames.NewVMError(excnames.NoSuchFieldError, name)
	}
	return &Field{Name: slot.Name, Descriptor: slot.Descriptor, IsStatic: slot.IsStatic}, nil
}

// GetMethodID resolves a method by name+descriptor, JNIEnv->GetMethodID's
// analogue.
func GetMethodID(t *classloader.Type, name, descriptor string) (*Method, error) {
	m := t.ResolveMethod(name, descriptor)
	if m == nil {
		return nil, excnames.NewVMError(excnames.NoSuchMethodError, name+descriptor)
	}
	return &Method{Name: m.Name, Descriptor: m.Descriptor, IsStatic: m.IsStatic}, nil
}

// NewStringUTF/GetStringUTFChars bridge a Go string and a heap String
// object the way JNIEnv's UTF-8 string functions do, reusing the same
// byte-array conversions internal/gfunction's helpers do (both sides
// of the JNI boundary need the identical Latin-1-backed representation).
func NewStringUTF(s string) *object.Object {
	return object.StringObjectFromJavaByteArray(object.JavaByteArrayFromGoString(s))
}

func GetStringUTFChars(obj *object.Object) (string, error) {
	if obj == nil {
		return "", excnames.NewVMError(excnames.NullPointerException, "")
	}
	return object.GoStringFromJavaByteArray(object.JavaByteArrayFromStringObject(obj)), nil
}
