/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gc implements spec.md §4.9: a conservative-root, non-moving,
// non-generational mark-sweep collector that runs under thread's
// stop-the-world protocol. Grounded on jchevm/libjc's gc_root.c
// (roots.go), gc_scan.c (scan.go), and gc_final.c (finalize.go), adapted
// from jchevm's raw conservative machine-stack scan to a precise
// reference-field trace: this runtime has no raw stack words to probe
// (Go's own GC already owns that), so gc's "conservative" layer is
// narrowed to exactly the one place this host still needs it -- the
// frame operand stack's untyped int64 words are not conservatively
// scanned at all, since frames.Frame already separates reference-typed
// values into Refs/LocalRefs (see roots.go).
package gc

import (
	"context"
	"sync"

	"corevm/internal/heap"
	"corevm/internal/object"
	"corevm/internal/thread"
)

func init() {
	heap.Default().SetOutOfMemoryHook(func() bool {
		stats, err := Collect(context.Background(), false)
		return err == nil && stats.Reclaimed > 0
	})
}

// Stats summarizes one collection cycle, surfaced to cmd/corevm's
// monitor TUI.
type Stats struct {
	Scanned         int
	Reclaimed       int
	Finalized       int
	LoadersUnloaded int
}

var collectMu sync.Mutex

// Collect runs one full stop-the-world cycle: stop every thread, clear
// marks, trace from the root set, finalize unreachable-but-finalizable
// objects (which may resurrect some of them), sweep, unload any class
// loader left unreachable, then resume the world. urgent disables the
// "skip soft references" throttle scan.go's soft-reference handling
// otherwise applies (spec.md §4.9's "Soft/weak/phantom").
//
// Finalizer invocation (runFinalizers) deliberately runs outside the
// heap's own lock: a finalize() method can allocate, and the allocator
// re-enters Heap's lock on its own, so holding it across Trampoline
// would deadlock. Marking itself never needs the heap lock -- it only
// touches lockwords and field tables reachable while every other thread
// is halted -- so only the two page-array walks (the initial clear and
// the final sweep) and the finalizable-candidate scan take it.
//
// Only one collection runs at a time; a second caller blocks on
// collectMu rather than racing StopTheWorld twice.
func Collect(ctx context.Context, urgent bool) (Stats, error) {
	collectMu.Lock()
	defer collectMu.Unlock()

	if err := thread.StopTheWorld(ctx, "gc"); err != nil {
		return Stats{}, err
	}
	defer thread.ResumeTheWorld()

	h := heap.Default()
	var stats Stats

	h.WithLock(func() {
		h.ForEachObject(func(obj *object.Object) {
			obj.Lock.ClearMarks()
		})
	})

	roots := CollectRoots()
	visited := make(map[*object.Object]bool, len(roots)*4)
	for _, r := range roots {
		markReachable(r, visited, urgent)
	}

	var finalizable []*object.Object
	h.WithLock(func() {
		h.ForEachObject(func(obj *object.Object) {
			if obj.Lock.Finalize() && !visited[obj] {
				finalizable = append(finalizable, obj)
			}
		})
	})
	stats.Finalized = runFinalizers(finalizable)

	// Pass 2: a finalizer may have reattached obj to a live root
	// (resurrection). Retrace from the finalized set so its transitive
	// closure survives this cycle, marked KEEP rather than LIVE -- a
	// resurrected object is kept once, not forever reachable.
	for _, obj := range finalizable {
		markKeepOnly(obj, visited)
	}

	h.WithLock(func() {
		res := h.Sweep(func(obj *object.Object) bool {
			return obj.Lock.Keep()
		})
		stats.Scanned = res.Scanned
		stats.Reclaimed = res.Reclaimed
	})

	stats.LoadersUnloaded = unloadDeadLoaders(visited)
	return stats, nil
}
