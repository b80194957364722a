/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gc

import (
	"corevm/internal/classloader"
	"corevm/internal/object"
	"corevm/internal/trace"
)

// unloadDeadLoaders discards every user-defined class loader that
// derived no type with a surviving instance this cycle (spec.md §4.9's
// "Class loader unloading": a loader with no live instances of any of
// its classes, and no longer reachable from any root, may be
// discarded). Bootstrap/Extension/App are never candidates -- they live
// for the process.
//
// This runtime has no modeled java.lang.ClassLoader instance object
// wired to a Loader (see DESIGN.md), so "reachable from any root" is
// approximated by "derived at least one type with a surviving
// instance"; a loader that derived classes but never instantiated any
// of them is unloaded even if an application still holds a bare
// reference to the loader object itself. This is flagged as a known
// simplification rather than silently assumed correct.
func unloadDeadLoaders(visited map[*object.Object]bool) int {
	live := make(map[string]bool, len(visited))
	for obj := range visited {
		if obj.Klass != nil {
			live[*obj.Klass] = true
		}
	}

	n := 0
	for _, l := range classloader.AllLoaders() {
		if l == classloader.Bootstrap || l == classloader.Extension || l == classloader.App {
			continue
		}
		types := l.Arena().All()
		if len(types) == 0 {
			continue
		}
		hasLiveInstance := false
		for _, t := range types {
			if live[t.Name] {
				hasLiveInstance = true
				break
			}
		}
		if hasLiveInstance {
			continue
		}
		trace.Trace("gc: unloading class loader " + l.Name)
		classloader.UnloadUserLoader(l)
		n++
	}
	return n
}
