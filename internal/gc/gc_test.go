/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gc

import (
	"bytes"
	"context"
	"testing"

	"corevm/internal/classfile"
	"corevm/internal/classloader"
	"corevm/internal/frames"
	"corevm/internal/heap"
	"corevm/internal/object"
	"corevm/internal/thread"
)

func TestCollectReclaimsUnreachableAndKeepsRooted(t *testing.T) {
	h := heap.Default()

	rooted, err := h.AllocSmall(4)
	if err != nil {
		t.Fatalf("alloc rooted: %v", err)
	}
	garbage, err := h.AllocSmall(4)
	if err != nil {
		t.Fatalf("alloc garbage: %v", err)
	}

	th := thread.New("roots-test")
	thread.Register(th)
	defer thread.Unregister(th)
	f := frames.CreateFrame(4)
	f.LocalRefs[0] = rooted
	if err := frames.PushFrame(th.Frames, f); err != nil {
		t.Fatalf("push frame: %v", err)
	}
	defer frames.PopFrame(th.Frames)

	// th isn't actually running bytecode here to answer StopTheWorld's
	// halt handshake, so park it in RUNNING_NONJAVA first -- the same
	// transition a thread blocked in native code makes on its own.
	th.StoppingJava()
	defer th.ResumingJava()

	stats, err := Collect(context.Background(), false)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.Scanned < 2 {
		t.Fatalf("expected at least 2 objects scanned, got %d", stats.Scanned)
	}
	if stats.Reclaimed < 1 {
		t.Fatalf("expected garbage to be reclaimed, got %d", stats.Reclaimed)
	}
	if !rooted.Lock.Keep() {
		t.Fatal("rooted object should survive collection")
	}
	_ = garbage
}

func TestCollectRunsFinalizerOnce(t *testing.T) {
	classloader.Init(nil, nil, nil)
	typ := &classloader.Type{
		Name:         "pkg/Finalizable",
		HasFinalizer: true,
		MethodIndex:  map[string]int{"finalize:()V": 0},
	}
	finMethod := &classloader.Method{
		Name: "finalize", Descriptor: "()V", Owner: typ,
		Code: &classfile.CodeAttr{MaxStack: 1, MaxLocals: 1, Code: []byte{}},
	}
	typ.Methods = []*classloader.Method{finMethod}

	mark := classloader.App.Arena().Mark()
	classloader.App.Arena().Track(typ)
	defer classloader.App.Arena().Reset(mark)

	h := heap.Default()
	obj, err := h.AllocSmall(4)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	name := typ.Name
	obj.Klass = &name
	obj.Lock.SetFinalize(true)

	stats, err := Collect(context.Background(), true)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.Finalized != 1 {
		t.Fatalf("expected exactly one finalizer run, got %d", stats.Finalized)
	}
	if obj.Lock.Finalize() {
		t.Fatal("FINALIZE bit should be cleared after running")
	}
}

func TestUnloadDeadLoaderDiscardsTypes(t *testing.T) {
	classloader.Init(nil, nil, nil)
	l := classloader.NewUserLoader("dead-loader", nil, nil)
	typ := &classloader.Type{Name: "pkg/Orphan"}
	l.Arena().Track(typ)

	if got := unloadDeadLoaders(map[*object.Object]bool{}); got != 1 {
		t.Fatalf("expected 1 loader unloaded, got %d", got)
	}
	if len(l.Arena().All()) != 0 {
		t.Fatal("expected loader's arena to be reset")
	}
}

func TestWriteHeapProfileProducesNonEmptyOutput(t *testing.T) {
	if _, err := heap.Default().AllocSmall(4); err != nil {
		t.Fatalf("alloc: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteHeapProfile(&buf); err != nil {
		t.Fatalf("WriteHeapProfile: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected a non-empty profile")
	}
}
