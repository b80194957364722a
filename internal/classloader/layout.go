/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "sort"

// sizeClass buckets a field descriptor by spec.md §4.2's comparator
// order: references, then long/double, then int/float, then short/char,
// then byte/boolean.
func sizeClass(descriptor string) int {
	if len(descriptor) == 0 {
		return 4
	}
	switch descriptor[0] {
	case 'L', '[':
		return 0
	case 'J', 'D':
		return 1
	case 'I', 'F':
		return 2
	case 'S', 'C':
		return 3
	case 'B', 'Z':
		return 4
	default:
		return 4
	}
}

func isReference(descriptor string) bool {
	return len(descriptor) > 0 && (descriptor[0] == 'L' || descriptor[0] == '[')
}

// rawField is the pre-layout shape layoutFields consumes, independent of
// classfile.FieldInfo so tests can build one directly.
type rawField struct {
	Name       string
	Descriptor string
	IsStatic   bool
}

// layoutFields implements spec.md §4.2's field layout: sorted by
// static-before-instance, then size class, then name, then descriptor;
// instance references get negative offsets (1-indexed, growing further
// negative, so the header sits at offset 0); instance primitives are
// appended after the inherited instance tail, one slot each whatever
// their width; statics are packed into their own per-class block.
//
// inheritedRefCount and inheritedPrimCount are the reference and
// primitive instance slots already claimed by inherited fields, so a
// subclass's new instance fields continue packing after them rather
// than overlapping.
func layoutFields(fields []rawField, inheritedRefCount, inheritedPrimCount int) ([]FieldSlot, int, int, int) {
	sorted := make([]rawField, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsStatic != b.IsStatic {
			return a.IsStatic // static sorts before instance
		}
		ca, cb := sizeClass(a.Descriptor), sizeClass(b.Descriptor)
		if ca != cb {
			return ca < cb
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Descriptor < b.Descriptor
	})

	slots := make([]FieldSlot, len(sorted))
	refCount := inheritedRefCount
	primCount := inheritedPrimCount
	staticCount := 0

	for i, f := range sorted {
		slot := FieldSlot{Name: f.Name, Descriptor: f.Descriptor, IsStatic: f.IsStatic}
		switch {
		case f.IsStatic:
			slot.StaticSlot = staticCount
			staticCount++
		case isReference(f.Descriptor):
			refCount++
			slot.Offset = -refCount
		default:
			slot.Offset = primCount
			primCount++
		}
		slots[i] = slot
	}

	return slots, refCount, primCount, staticCount
}
