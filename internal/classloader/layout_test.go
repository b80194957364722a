/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "testing"

func TestLayoutFieldsStaticBeforeInstance(t *testing.T) {
	fields := []rawField{
		{Name: "x", Descriptor: "I", IsStatic: false},
		{Name: "COUNT", Descriptor: "I", IsStatic: true},
	}
	slots, _, _, staticCount := layoutFields(fields, 0, 0)
	if staticCount != 1 {
		t.Fatalf("expected 1 static field, got %d", staticCount)
	}
	if !slots[0].IsStatic {
		t.Fatalf("expected static field sorted first, got %+v", slots[0])
	}
}

func TestLayoutFieldsReferencesGetNegativeOffsets(t *testing.T) {
	fields := []rawField{
		{Name: "name", Descriptor: "Ljava/lang/String;"},
		{Name: "count", Descriptor: "I"},
	}
	slots, refCount, primCount, _ := layoutFields(fields, 0, 0)
	if refCount != 1 || primCount != 1 {
		t.Fatalf("expected 1 ref + 1 prim, got refs=%d prims=%d", refCount, primCount)
	}
	for _, s := range slots {
		if s.Name == "name" && s.Offset >= 0 {
			t.Fatalf("expected reference field to get a negative offset, got %d", s.Offset)
		}
		if s.Name == "count" && s.Offset < 0 {
			t.Fatalf("expected primitive field to get a non-negative offset, got %d", s.Offset)
		}
	}
}

func TestLayoutFieldsContinuesInheritedOffsets(t *testing.T) {
	fields := []rawField{{Name: "extra", Descriptor: "I"}}
	slots, _, primCount, _ := layoutFields(fields, 2, 3)
	if primCount != 4 {
		t.Fatalf("expected primCount to continue from inherited 3, got %d", primCount)
	}
	if slots[0].Offset != 3 {
		t.Fatalf("expected new primitive to be appended at offset 3, got %d", slots[0].Offset)
	}
}

func TestSizeClassOrdering(t *testing.T) {
	order := []string{"Ljava/lang/Object;", "J", "I", "S", "B"}
	for i := 0; i < len(order)-1; i++ {
		if sizeClass(order[i]) >= sizeClass(order[i+1]) {
			t.Fatalf("expected %s to sort before %s", order[i], order[i+1])
		}
	}
}
