/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"testing"

	"corevm/internal/classfile"
)

func TestFetchCPEntryResolvesIntAndUtf8(t *testing.T) {
	typ := &Type{
		CP: &classfile.Parsed{
			ConstantPool: []classfile.CPEntry{
				{}, // slot 0 unused
				{Tag: classfile.TagUtf8, Utf8: "hello"},
				{Tag: classfile.TagInteger, IntVal: 7},
			},
		},
	}

	v, ok := typ.FetchCPEntry(1)
	if !ok || v.(string) != "hello" {
		t.Fatalf("expected Utf8 'hello', got %v ok=%v", v, ok)
	}
	v, ok = typ.FetchCPEntry(2)
	if !ok || v.(int32) != 7 {
		t.Fatalf("expected int32 7, got %v ok=%v", v, ok)
	}
	if _, ok := typ.FetchCPEntry(99); ok {
		t.Fatal("expected out-of-range index to fail")
	}
}
