/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"testing"

	"corevm/internal/classfile"
	"corevm/internal/classloader"
)

func TestPushPopFrameOrdering(t *testing.T) {
	fs := NewFrameStack()
	f1 := CreateFrame(4)
	f1.MethName = "a"
	f2 := CreateFrame(4)
	f2.MethName = "b"

	if err := PushFrame(fs, f1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := PushFrame(fs, f2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if top := PeekFrame(fs); top.MethName != "b" {
		t.Fatalf("expected top frame to be 'b', got %q", top.MethName)
	}
	PopFrame(fs)
	if top := PeekFrame(fs); top.MethName != "a" {
		t.Fatalf("expected top frame to be 'a' after pop, got %q", top.MethName)
	}
}

func TestPushFrameOverflowsAtMaxDepth(t *testing.T) {
	fs := NewFrameStack()
	for i := 0; i < MaxJavaFrameDepth; i++ {
		if err := PushFrame(fs, CreateFrame(1)); err != nil {
			t.Fatalf("unexpected error at depth %d: %v", i, err)
		}
	}
	if err := PushFrame(fs, CreateFrame(1)); err == nil {
		t.Fatal("expected StackOverflowError once MaxJavaFrameDepth is exceeded")
	}
}

func TestOperandStackPushPop(t *testing.T) {
	f := CreateFrame(2)
	f.Push(10)
	f.Push(20)
	if v := f.Pop(); v != 20 {
		t.Fatalf("expected 20, got %d", v)
	}
	if v := f.Pop(); v != 10 {
		t.Fatalf("expected 10, got %d", v)
	}
}

func TestRefPushPopRoundTrips(t *testing.T) {
	f := CreateFrame(2)
	f.PushRef("hello")
	if v := f.PopRef(); v != "hello" {
		t.Fatalf("expected 'hello', got %v", v)
	}
}

func TestRetKindOfDescriptors(t *testing.T) {
	cases := map[string]RetKind{
		"()V":                       RetVoid,
		"()I":                       RetInt,
		"()J":                       RetLong,
		"()F":                       RetFloat,
		"()D":                       RetDouble,
		"()Z":                       RetBoolean,
		"()Ljava/lang/String;":      RetRef,
		"(II)[Ljava/lang/Object;":   RetRef,
	}
	for desc, want := range cases {
		if got := RetKindOf(desc); got != want {
			t.Errorf("RetKindOf(%q) = %v, want %v", desc, got, want)
		}
	}
}

func TestNativeBoundaryEnterLeave(t *testing.T) {
	var b NativeBoundary
	m := &classloader.Method{Name: "sleep"}
	b.Enter(m)
	if b.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", b.Depth())
	}
	if b.Top().Method != m {
		t.Fatal("expected top boundary to reference the entered method")
	}
	b.Leave()
	if b.Depth() != 0 {
		t.Fatalf("expected depth 0 after Leave, got %d", b.Depth())
	}
}

func TestTrampolineRunsMethodAndPopsFrame(t *testing.T) {
	fs := NewFrameStack()
	m := &classloader.Method{
		Name:       "add",
		Descriptor: "(II)I",
		Code: &classfile.CodeAttr{
			MaxStack:  2,
			MaxLocals: 2,
			Code:      []byte{},
		},
	}
	ran := false
	RunJavaFrame = func(fs *FrameStack) error {
		ran = true
		if Depth(fs) != 1 {
			t.Fatalf("expected exactly one frame while running, got %d", Depth(fs))
		}
		return nil
	}
	defer func() { RunJavaFrame = nil }()

	if _, err := Trampoline(fs, m, []int64{1, 2}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("expected RunJavaFrame to be invoked")
	}
	if Depth(fs) != 0 {
		t.Fatalf("expected frame to be popped after return, got depth %d", Depth(fs))
	}
}
