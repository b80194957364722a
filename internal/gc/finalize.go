/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gc

import (
	"corevm/internal/classloader"
	"corevm/internal/frames"
	"corevm/internal/object"
	"corevm/internal/thread"
	"corevm/internal/trace"
)

// runFinalizers invokes finalize() on every object in candidates that
// still declares one, then clears its FINALIZE bit so it is never run
// twice (spec.md §4.9's "Finalization ... run at most once"). It runs
// with the world still stopped but the heap lock released, since
// finalize() is ordinary Java code that can allocate.
//
// Grounded on jchevm/libjc's gc_final.c, which runs finalizers on a
// dedicated finalizer thread outside the collector's own stack; this
// runtime instead borrows one throwaway ExecThread per cycle and runs
// the queue serially, since there is no separate finalizer thread
// modeled yet (see DESIGN.md).
func runFinalizers(candidates []*object.Object) int {
	if len(candidates) == 0 {
		return 0
	}

	t := thread.New("finalizer")
	thread.Register(t)
	defer thread.Unregister(t)

	ran := 0
	for _, obj := range candidates {
		if !obj.Lock.Finalize() {
			continue
		}
		obj.Lock.SetFinalize(false)

		typ := findFinalizerType(obj)
		if typ == nil {
			continue
		}
		m := typ.ResolveMethod("finalize", "()V")
		if m == nil || m.IsAbstract {
			continue
		}

		if _, err := frames.Trampoline(t.Frames, m, nil, map[int]interface{}{0: obj}); err != nil {
			trace.Trace("gc: finalizer threw: " + err.Error())
		}
		ran++
	}
	return ran
}

func findFinalizerType(obj *object.Object) *classloader.Type {
	if obj.Klass == nil {
		return nil
	}
	for _, l := range classloader.AllLoaders() {
		for _, t := range l.Arena().All() {
			if t.Name == *obj.Klass && t.HasFinalizer {
				return t
			}
		}
	}
	return nil
}
