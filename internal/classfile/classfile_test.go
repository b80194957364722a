/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildMinimalClass assembles the bytes of a classfile with an empty
// constant pool (besides the mandatory index-0 placeholder), no fields,
// no methods, no attributes -- just enough to exercise Decode's header
// and section-count handling.
func buildMinimalClass() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(magic))
	binary.Write(&buf, binary.BigEndian, uint16(0))  // minor
	binary.Write(&buf, binary.BigEndian, uint16(61)) // major (Java 17)
	binary.Write(&buf, binary.BigEndian, uint16(1))  // constant_pool_count: only slot 0
	binary.Write(&buf, binary.BigEndian, uint16(0x0021)) // access flags: PUBLIC|SUPER
	binary.Write(&buf, binary.BigEndian, uint16(0))  // this_class
	binary.Write(&buf, binary.BigEndian, uint16(0))  // super_class
	binary.Write(&buf, binary.BigEndian, uint16(0))  // interfaces_count
	binary.Write(&buf, binary.BigEndian, uint16(0))  // fields_count
	binary.Write(&buf, binary.BigEndian, uint16(0))  // methods_count
	binary.Write(&buf, binary.BigEndian, uint16(0))  // attributes_count
	return buf.Bytes()
}

func TestDecodeMinimalClass(t *testing.T) {
	p, err := Decode(buildMinimalClass())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MajorVersion != 61 {
		t.Fatalf("expected major version 61, got %d", p.MajorVersion)
	}
	if len(p.ConstantPool) != 1 {
		t.Fatalf("expected a 1-entry constant pool (index 0 unused), got %d", len(p.ConstantPool))
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	bad := buildMinimalClass()
	bad[0] = 0x00
	if _, err := Decode(bad); err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	full := buildMinimalClass()
	for cut := 0; cut < 8; cut++ {
		if _, err := Decode(full[:cut]); err == nil {
			t.Fatalf("expected an error decoding %d truncated bytes", cut)
		}
	}
}

func TestDecodeUtf8AndIntegerConstants(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(magic))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(61))
	binary.Write(&buf, binary.BigEndian, uint16(3)) // slots 1 (Utf8) and 2 (Integer)

	buf.WriteByte(TagUtf8)
	binary.Write(&buf, binary.BigEndian, uint16(5))
	buf.WriteString("hello")

	buf.WriteByte(TagInteger)
	binary.Write(&buf, binary.BigEndian, uint32(42))

	binary.Write(&buf, binary.BigEndian, uint16(0)) // access flags
	binary.Write(&buf, binary.BigEndian, uint16(0)) // this_class
	binary.Write(&buf, binary.BigEndian, uint16(0)) // super_class
	binary.Write(&buf, binary.BigEndian, uint16(0)) // interfaces
	binary.Write(&buf, binary.BigEndian, uint16(0)) // fields
	binary.Write(&buf, binary.BigEndian, uint16(0)) // methods
	binary.Write(&buf, binary.BigEndian, uint16(0)) // attributes

	p, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ConstantPool[1].Utf8 != "hello" {
		t.Fatalf("expected Utf8 %q, got %q", "hello", p.ConstantPool[1].Utf8)
	}
	if p.ConstantPool[2].IntVal != 42 {
		t.Fatalf("expected int 42, got %d", p.ConstantPool[2].IntVal)
	}
}
