/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Runtime constant-pool lookups the interpreter needs once a Type is
// linked: resolving an ldc/ldc2_w/getstatic/invokestatic operand back
// into a usable Go value. Adapted from the teacher's CPutils.go
// FetchCPentry, generalized from its discriminated-union return value
// (EntryType/RetType/IntVal/FloatVal/AddrVal/StringVal) into a plain Go
// interface{} now that this repo has no C-struct-compatibility constraint.
package classloader

import "corevm/internal/classfile"

// FetchCPEntry resolves CP index idx in t's constant pool to a Go value
// suitable for pushing onto the operand stack: int32/int64/float32/
// float64 for the numeric constant kinds, string for a Utf8/String
// entry, or the already-linked *Type for a Class entry. Returns nil,
// false for an out-of-range index or an entry kind this core doesn't
// resolve directly (MethodHandle/MethodType/Dynamic, which the
// interpreter resolves through the method/field machinery instead).
func (t *Type) FetchCPEntry(idx uint16) (interface{}, bool) {
	if t.CP == nil || int(idx) >= len(t.CP.ConstantPool) {
		return nil, false
	}
	entry := t.CP.ConstantPool[idx]
	switch entry.Tag {
	case classfile.TagInteger:
		return entry.IntVal, true
	case classfile.TagLong:
		return entry.LongVal, true
	case classfile.TagFloat:
		return entry.FloatVal, true
	case classfile.TagDouble:
		return entry.DoubleVal, true
	case classfile.TagUtf8:
		return entry.Utf8, true
	case classfile.TagString:
		if int(entry.NameIndex) < len(t.CP.ConstantPool) {
			return t.CP.ConstantPool[entry.NameIndex].Utf8, true
		}
		return nil, false
	case classfile.TagClass:
		name := t.resolveClassName(idx)
		if name == "" {
			return nil, false
		}
		resolved, err := t.Loader.LoadByNameOnly(name)
		if err != nil {
			return nil, false
		}
		return resolved, true
	default:
		return nil, false
	}
}

// resolveClassName returns the UTF-8 name a TagClass entry at idx
// refers to, or "" if idx isn't a TagClass entry.
func (t *Type) resolveClassName(idx uint16) string {
	if t.CP == nil || int(idx) >= len(t.CP.ConstantPool) {
		return ""
	}
	entry := t.CP.ConstantPool[idx]
	if entry.Tag != classfile.TagClass || int(entry.NameIndex) >= len(t.CP.ConstantPool) {
		return ""
	}
	return t.CP.ConstantPool[entry.NameIndex].Utf8
}
