/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object implements spec.md §3/§4.4: the heap object model and
// its packed lockword header. An Object here is the Go-side mirror of a
// managed Java object -- the header plus a field table -- modeled on the
// teacher's jacobin/object package (object_test.go, javaByteArray.go).
package object

import (
	"fmt"
	"sort"
	"strings"

	"corevm/internal/types"
)

// Field is one instance or static field slot. Ftype is the JVMS field
// descriptor ("I", "Ljava/lang/String;", "[B", ...); Fvalue holds the Go
// representation (int64, float64, bool, *Object, []types.JavaByte, ...).
type Field struct {
	Ftype    string
	Fvalue   interface{}
	IsStatic bool
	Volatile bool
}

// Object is the Go-side representation of a heap object. Klass names the
// object's defining type in internal form; FieldTable holds both instance
// and (for a Class mirror) static fields keyed by field name.
//
// The lockword (object/lockword.go) models spec.md's packed header word
// precisely, including bit layout; Object itself additionally carries the
// bookkeeping a garbage-collected Go program needs but a C JVM would
// instead get from raw memory layout (the reference-field list, the
// array payload). This is the "how a GC'd host language expresses a
// manually laid out header" adaptation the spec's §9 design notes call
// out as fair game for a borrow/GC-checked implementation.
type Object struct {
	Klass     *string // defining type name, internal form
	KlassName uint32  // string-pool index of Klass, when interned

	Lock Lockword

	FieldTable map[string]*Field

	// IsArray / ArrayType describe array objects (spec.md §3); the
	// element count is not stored on Object.
	IsArray   bool
	ArrayType string // element descriptor, e.g. "I" or "Ljava/lang/String;"

	// Mark/GC bookkeeping outside the lockword bits that a Go GC needs:
	// RefFields lists the names of FieldTable entries that hold *Object,
	// recoverable in a real layout from the type (spec.md §3's "the
	// number of references is recoverable from the type"); here we cache
	// it per object for O(1) GC tracing (internal/gc/scan.go).
	RefFields []string
}

// MakeEmptyObject returns a new, otherwise-blank Object with an
// initialized field table and a fresh lockword in its post-allocation
// state (ODD=1, LIVE=0, KEEP=0 -- the allocator/GC set LIVE/KEEP when the
// object is published; see heap/heap.go).
func MakeEmptyObject() *Object {
	return &Object{
		FieldTable: make(map[string]*Field),
		Lock:       NewLockword(),
	}
}

// NewStringObject returns an empty java/lang/String-typed object, the way
// the teacher's object.NewStringObject is used from javaByteArray.go.
func NewStringObject() *Object {
	obj := MakeEmptyObject()
	name := types.StringClassName
	obj.Klass = &name
	obj.KlassName = types.StringPoolStringIndex
	return obj
}

// ToString renders a human-readable dump of an object's fields, sorted by
// name for determinism -- used by diagnostics and by jvm/errors_test.go's
// frame-stack display style trace output in the teacher.
func (o *Object) ToString() string {
	if o == nil {
		return "null"
	}
	var sb strings.Builder
	klass := "?"
	if o.Klass != nil {
		klass = *o.Klass
	}
	fmt.Fprintf(&sb, "%s {", klass)

	names := make([]string, 0, len(o.FieldTable))
	for n := range o.FieldTable {
		names = append(names, n)
	}
	sort.Strings(names)

	for i, n := range names {
		f := o.FieldTable[n]
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s(%s)=%v", n, f.Ftype, f.Fvalue)
	}
	sb.WriteString("}")
	return sb.String()
}

// AddField inserts or replaces a field, recording it in RefFields when it
// is reference-typed so the GC tracer has O(1) access to the reference
// set without re-deriving it from descriptors on every mark pass.
func (o *Object) AddField(name string, f *Field) {
	o.FieldTable[name] = f
	if strings.HasPrefix(f.Ftype, types.Ref) || strings.HasPrefix(f.Ftype, types.Array) {
		for _, existing := range o.RefFields {
			if existing == name {
				return
			}
		}
		o.RefFields = append(o.RefFields, name)
	}
}
