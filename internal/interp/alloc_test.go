/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"testing"

	"corevm/internal/classloader"
	"corevm/internal/excnames"
)

func testType(name string, fields []classloader.FieldSlot) *classloader.Type {
	idx := map[string]int{}
	for i, f := range fields {
		idx[f.Name] = i
	}
	staticCount := 0
	for _, f := range fields {
		if f.IsStatic {
			staticCount++
		}
	}
	return &classloader.Type{
		Name:        name,
		Fields:      fields,
		FieldIndex:  idx,
		StaticValue: make([]interface{}, staticCount),
	}
}

func TestNewInstanceZeroInitializesDeclaredFields(t *testing.T) {
	super := testType("java/lang/Object", nil)
	sub := testType("pkg/Widget", []classloader.FieldSlot{
		{Name: "count", Descriptor: "I"},
		{Name: "label", Descriptor: "Ljava/lang/String;"},
	})
	sub.Super = super

	obj, err := NewInstance(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Klass == nil || *obj.Klass != "pkg/Widget" {
		t.Fatalf("expected Klass to be set to pkg/Widget, got %v", obj.Klass)
	}
	if obj.FieldTable["count"].Fvalue.(int64) != 0 {
		t.Fatal("expected int field to default to 0")
	}
	if obj.FieldTable["label"].Fvalue != nil {
		t.Fatal("expected reference field to default to nil")
	}
}

func TestNewInstanceSkipsStaticFields(t *testing.T) {
	typ := testType("pkg/Counters", []classloader.FieldSlot{
		{Name: "total", Descriptor: "I", IsStatic: true, StaticSlot: 0},
		{Name: "id", Descriptor: "I"},
	})

	obj, err := NewInstance(typ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := obj.FieldTable["total"]; ok {
		t.Fatal("static field must not appear in an instance's field table")
	}
	if _, ok := obj.FieldTable["id"]; !ok {
		t.Fatal("instance field must appear in the field table")
	}
}

func TestNewArrayRejectsNegativeLength(t *testing.T) {
	_, err := NewArray("I", -1)
	if err == nil {
		t.Fatal("expected NegativeArraySizeException")
	}
	vmErr, ok := err.(*excnames.VMError)
	if !ok || vmErr.Name != excnames.NegativeArraySizeException {
		t.Fatalf("expected NegativeArraySizeException, got %v", err)
	}
}

func TestArrayGetSetRoundTrip(t *testing.T) {
	obj, err := NewArray("I", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ArraySet(obj, 1, int64(42)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := ArrayGet(obj, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int64) != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestArrayGetOutOfBoundsReturnsArrayIndexOutOfBoundsException(t *testing.T) {
	obj, err := NewArray("I", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ArrayGet(obj, 5); err == nil {
		t.Fatal("expected ArrayIndexOutOfBoundsException")
	} else if vmErr, ok := err.(*excnames.VMError); !ok || vmErr.Name != excnames.ArrayIndexOutOfBoundsException {
		t.Fatalf("expected ArrayIndexOutOfBoundsException, got %v", err)
	}
}

func TestArrayLengthReflectsAllocatedSize(t *testing.T) {
	obj, err := NewArray("J", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := ArrayLength(obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected length 7, got %d", n)
	}
}

func TestZeroValueForMatchesJVMSDefaults(t *testing.T) {
	cases := map[string]interface{}{
		"I": int64(0),
		"J": int64(0),
		"Z": false,
		"F": float32(0),
		"D": float64(0),
	}
	for descriptor, want := range cases {
		if got := zeroValueFor(descriptor); got != want {
			t.Errorf("zeroValueFor(%q) = %v, want %v", descriptor, got, want)
		}
	}
	if zeroValueFor("Ljava/lang/Object;") != nil {
		t.Error("expected reference descriptor to default to nil")
	}
}
