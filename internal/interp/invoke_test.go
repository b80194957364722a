/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"testing"

	"corevm/internal/classfile"
	"corevm/internal/classloader"
	"corevm/internal/frames"
	"corevm/internal/opcodes"
	"corevm/internal/thread"
)

func TestParseParamDescriptors(t *testing.T) {
	cases := []struct {
		descriptor string
		want       []string
	}{
		{"()V", nil},
		{"(I)I", []string{"I"}},
		{"(IJLjava/lang/String;[I)V", []string{"I", "J", "Ljava/lang/String;", "[I"}},
		{"([[Ljava/lang/Object;)V", []string{"[[Ljava/lang/Object;"}},
	}
	for _, c := range cases {
		got := parseParamDescriptors(c.descriptor)
		if len(got) != len(c.want) {
			t.Fatalf("parseParamDescriptors(%q) = %v, want %v", c.descriptor, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("parseParamDescriptors(%q)[%d] = %q, want %q", c.descriptor, i, got[i], c.want[i])
			}
		}
	}
}

// TestTrampolineRoundTripsStaticCallReturnValue exercises the
// Trampoline/RunFrame path execInvoke relies on, independent of
// constant-pool class resolution: iload_0 + iload_1 + iadd + ireturn
// should hand 42 back to the caller via Frame.RetVal.
func TestTrampolineRoundTripsStaticCallReturnValue(t *testing.T) {
	mathType := &classloader.Type{Name: "pkg/Math"}
	addCode := []byte{
		byte(opcodes.ILOAD_0), byte(opcodes.ILOAD_1), byte(opcodes.IADD), byte(opcodes.IRETURN),
	}
	addMethod := &classloader.Method{
		Name: "add", Descriptor: "(II)I", IsStatic: true, Owner: mathType,
		Code: &classfile.CodeAttr{MaxStack: 4, MaxLocals: 2, Code: addCode},
	}

	th := thread.New("caller")
	thread.Register(th)
	defer thread.Unregister(th)

	retFrame, err := frames.Trampoline(th.Frames, addMethod, []int64{7, 35}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !retFrame.Returned || retFrame.RetKind != frames.RetInt {
		t.Fatalf("expected an int return, got %+v", retFrame)
	}
	if retFrame.RetVal != 42 {
		t.Fatalf("expected 42, got %d", retFrame.RetVal)
	}
}
