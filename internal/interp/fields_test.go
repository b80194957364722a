/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"testing"

	"corevm/internal/frames"
	"corevm/internal/object"
)

func TestIsRefDescriptor(t *testing.T) {
	cases := map[string]bool{
		"I": false, "J": false, "Z": false, "F": false, "D": false,
		"Ljava/lang/String;": true, "[I": true, "[Ljava/lang/Object;": true,
	}
	for d, want := range cases {
		if got := isRefDescriptor(d); got != want {
			t.Errorf("isRefDescriptor(%q) = %v, want %v", d, got, want)
		}
	}
}

func TestPushPopFieldValueRoundTripsFloat(t *testing.T) {
	f := frames.CreateFrame(4)
	pushFieldValue(f, "F", float32(2.5))
	got := popFieldValue(f, "F")
	if got.(float32) != 2.5 {
		t.Fatalf("expected 2.5, got %v", got)
	}
}

func TestPushPopFieldValueRoundTripsDouble(t *testing.T) {
	f := frames.CreateFrame(4)
	pushFieldValue(f, "D", 7.125)
	got := popFieldValue(f, "D")
	if got.(float64) != 7.125 {
		t.Fatalf("expected 7.125, got %v", got)
	}
}

func TestPushFieldValueBooleanEncodesAsOneOrZero(t *testing.T) {
	f := frames.CreateFrame(4)
	pushFieldValue(f, "Z", true)
	if f.Pop() != 1 {
		t.Fatal("expected true to push as 1")
	}
	pushFieldValue(f, "Z", false)
	if f.Pop() != 0 {
		t.Fatal("expected false to push as 0")
	}
}

func TestPushFieldValueReferenceGoesThroughRefs(t *testing.T) {
	f := frames.CreateFrame(4)
	obj := object.MakeEmptyObject()
	pushFieldValue(f, "Ljava/lang/Object;", obj)
	got := popFieldValue(f, "Ljava/lang/Object;")
	if got.(*object.Object) != obj {
		t.Fatal("expected the same object pointer back")
	}
}

func TestTypeOfObjectReturnsFalseForUnknownClass(t *testing.T) {
	obj := object.MakeEmptyObject()
	name := "pkg/NeverLoaded"
	obj.Klass = &name
	if _, ok := typeOfObject(obj); ok {
		t.Fatal("expected typeOfObject to report false for an unregistered class")
	}
}

func TestTypeOfObjectReturnsFalseForNilObject(t *testing.T) {
	if _, ok := typeOfObject(nil); ok {
		t.Fatal("expected typeOfObject(nil) to report false")
	}
}
