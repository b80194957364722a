/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"corevm/internal/classfile"
	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/frames"
	"corevm/internal/opcodes"
	"corevm/internal/thread"
)

func runMethod(t *testing.T, code []byte, maxStack, maxLocals uint16, args []int64) *frames.Frame {
	t.Helper()
	owner := &classloader.Type{Name: "pkg/Direct"}
	m := &classloader.Method{
		Name: "run", Descriptor: "()I", IsStatic: true, Owner: owner,
		Code: &classfile.CodeAttr{MaxStack: maxStack, MaxLocals: maxLocals, Code: code},
	}
	th := thread.New("t")
	thread.Register(th)
	t.Cleanup(func() { thread.Unregister(th) })
	f, err := frames.Trampoline(th.Frames, m, args, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func TestRunFrameAddsTwoLocalsAndReturns(t *testing.T) {
	code := []byte{byte(opcodes.ILOAD_0), byte(opcodes.ILOAD_1), byte(opcodes.IADD), byte(opcodes.IRETURN)}
	f := runMethod(t, code, 4, 2, []int64{3, 4})
	if f.RetVal != 7 {
		t.Fatalf("expected 7, got %d", f.RetVal)
	}
}

func TestRunFrameIDivByZeroThrowsArithmeticException(t *testing.T) {
	// iconst_1, iconst_0, idiv, ireturn -- uncaught, so RunFrame
	// returns the error rather than a completed frame.
	owner := &classloader.Type{Name: "pkg/Direct"}
	code := []byte{byte(opcodes.ICONST_1), byte(opcodes.ICONST_0), byte(opcodes.IDIV), byte(opcodes.IRETURN)}
	m := &classloader.Method{
		Name: "boom", Descriptor: "()I", IsStatic: true, Owner: owner,
		Code: &classfile.CodeAttr{MaxStack: 4, MaxLocals: 1, Code: code},
	}
	th := thread.New("t2")
	thread.Register(th)
	defer thread.Unregister(th)

	_, err := frames.Trampoline(th.Frames, m, nil, nil)
	if err == nil {
		t.Fatal("expected an ArithmeticException")
	}
	vmErr, ok := err.(*excnames.VMError)
	if !ok || vmErr.Name != excnames.ArithmeticException {
		t.Fatalf("expected ArithmeticException, got %v", err)
	}
}

func TestRunFrameTrapTableCatchesArithmeticException(t *testing.T) {
	// iconst_1 (pc0), iconst_0 (pc1), idiv (pc2, throws at pc3 after
	// advancing past the 1-byte opcode), handler at pc3: pop the
	// exception, push -1, return.
	code := []byte{
		byte(opcodes.ICONST_1),
		byte(opcodes.ICONST_0),
		byte(opcodes.IDIV),
		byte(opcodes.POP),
		byte(opcodes.ICONST_M1),
		byte(opcodes.IRETURN),
	}
	owner := &classloader.Type{Name: "pkg/Direct"}
	m := &classloader.Method{
		Name: "guarded", Descriptor: "()I", IsStatic: true, Owner: owner,
		Code: &classfile.CodeAttr{
			MaxStack: 4, MaxLocals: 1, Code: code,
			Exceptions: []classfile.ExceptionTableEntry{
				{StartPC: 0, EndPC: 3, HandlerPC: 3, CatchType: 0},
			},
		},
	}
	th := thread.New("t3")
	thread.Register(th)
	defer thread.Unregister(th)

	f, err := frames.Trampoline(th.Frames, m, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.RetVal != -1 {
		t.Fatalf("expected the handler's -1, got %d", f.RetVal)
	}
}

// buildTestClass assembles a minimal classfile for className,
// optionally extending superName ("" means no superclass), and
// returns the bytes plus the constant-pool slot of its own this_class
// TagClass entry -- usable as a CatchType index to name the class
// itself in an exception table.
func buildTestClass(t *testing.T, className, superName string) ([]byte, uint16) {
	t.Helper()
	var cpUtf8s []string
	add := func(s string) uint16 {
		cpUtf8s = append(cpUtf8s, s)
		return uint16(len(cpUtf8s))
	}
	classNameIdx := add(className)
	var superNameIdx uint16
	if superName != "" {
		superNameIdx = add(superName)
	}

	thisClassEntrySlot := uint16(len(cpUtf8s) + 1)
	var superClassEntrySlot uint16
	if superName != "" {
		superClassEntrySlot = uint16(len(cpUtf8s) + 2)
	}

	cpCount := len(cpUtf8s) + 1
	if superName != "" {
		cpCount++
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(61))
	binary.Write(&buf, binary.BigEndian, uint16(cpCount+1))

	for _, s := range cpUtf8s {
		buf.WriteByte(classfile.TagUtf8)
		binary.Write(&buf, binary.BigEndian, uint16(len(s)))
		buf.WriteString(s)
	}
	buf.WriteByte(classfile.TagClass)
	binary.Write(&buf, binary.BigEndian, classNameIdx)
	if superName != "" {
		buf.WriteByte(classfile.TagClass)
		binary.Write(&buf, binary.BigEndian, superNameIdx)
	}

	binary.Write(&buf, binary.BigEndian, uint16(0x0021)) // access: PUBLIC|SUPER
	binary.Write(&buf, binary.BigEndian, thisClassEntrySlot)
	binary.Write(&buf, binary.BigEndian, superClassEntrySlot)
	binary.Write(&buf, binary.BigEndian, uint16(0)) // interfaces
	binary.Write(&buf, binary.BigEndian, uint16(0)) // fields
	binary.Write(&buf, binary.BigEndian, uint16(0)) // methods
	binary.Write(&buf, binary.BigEndian, uint16(0)) // attributes
	return buf.Bytes(), thisClassEntrySlot
}

func writeTestClassFile(t *testing.T, dir, relPath string, data []byte) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(relPath)+".class")
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTryHandleRespectsCatchType(t *testing.T) {
	dir := t.TempDir()
	baseBytes, baseSlot := buildTestClass(t, "catch/Base", "")
	subBytes, _ := buildTestClass(t, "catch/Sub", "catch/Base")
	otherBytes, _ := buildTestClass(t, "catch/Other", "")
	writeTestClassFile(t, dir, "catch/Base", baseBytes)
	writeTestClassFile(t, dir, "catch/Sub", subBytes)
	writeTestClassFile(t, dir, "catch/Other", otherBytes)

	classloader.Init(nil, nil, []string{dir})
	base, err := classloader.App.LoadByNameOnly("catch/Base")
	if err != nil {
		t.Fatalf("loading catch/Base: %v", err)
	}

	code := []byte{byte(opcodes.NOP)}
	m := &classloader.Method{
		Name: "guarded", Descriptor: "()V", IsStatic: true, Owner: base,
		Code: &classfile.CodeAttr{
			MaxStack: 1, MaxLocals: 0, Code: code,
			Exceptions: []classfile.ExceptionTableEntry{
				{StartPC: 0, EndPC: 1, HandlerPC: 0, CatchType: baseSlot},
			},
		},
	}
	f := &frames.Frame{
		Method: m, Meth: code, PC: 1,
		TOS:  -1,
		Refs: make(map[int]interface{}),
	}

	if _, ok := tryHandle(f, excnames.NewVMError("catch/Sub", "")); !ok {
		t.Fatal("a handler catching Base should match a thrown Sub, a subtype of Base")
	}

	f.PC = 1
	f.TOS = -1
	f.Refs = make(map[int]interface{})
	if _, ok := tryHandle(f, excnames.NewVMError("catch/Other", "")); ok {
		t.Fatal("a handler catching Base should not match an unrelated Other")
	}
}
