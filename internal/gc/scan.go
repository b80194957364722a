/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gc

import "corevm/internal/object"

// markReachable traces obj and everything it references, setting
// LIVE|KEEP on each object visited exactly once (spec.md §4.9's "Pass 1:
// ... trace from roots"). visited doubles as both the "already marked"
// set and the cycle guard a recursive trace over an arbitrary object
// graph needs.
//
// SPECIAL-bit dispatch (spec.md §4.9's "if the object's lockword has
// SPECIAL, dispatches specially") is narrowed to the one case this
// runtime's object model can express without a java.lang.ref.Reference
// implementation: a field literally named "referent" is skipped unless
// urgent, so a soft/weak-style holder doesn't itself keep its referent
// alive. Class-mirror and VMThrowable stack-trace special-casing have no
// home yet since this repo has no Class-mirror object or
// saved-stack-trace field on Throwable instances (see DESIGN.md).
func markReachable(obj *object.Object, visited map[*object.Object]bool, urgent bool) {
	if obj == nil || visited[obj] {
		return
	}
	visited[obj] = true
	obj.Lock.MarkKept()
	markChildren(obj, visited, urgent)
}

// markKeepOnly is Pass 2's "reset marks ... to KEEP (not LIVE) and
// retrace" for objects resurrected by finalization: it threads through
// the same cycle guard as markReachable but only sets KEEP, since by
// this point the object is already known unreachable from ordinary
// roots.
func markKeepOnly(obj *object.Object, visited map[*object.Object]bool) {
	if obj == nil || visited[obj] {
		return
	}
	visited[obj] = true
	obj.Lock.SetKeep(true)
	markChildren(obj, visited, false)
}

func markChildren(obj *object.Object, visited map[*object.Object]bool, urgent bool) {
	for _, name := range obj.RefFields {
		if obj.Lock.Special() && name == "referent" && !urgent {
			continue
		}
		f := obj.FieldTable[name]
		if f == nil {
			continue
		}
		markField(f.Fvalue, visited, urgent)
	}
}

func markField(v interface{}, visited map[*object.Object]bool, urgent bool) {
	switch val := v.(type) {
	case *object.Object:
		markReachable(val, visited, urgent)
	case []interface{}:
		for _, elem := range val {
			if ref, ok := elem.(*object.Object); ok {
				markReachable(ref, visited, urgent)
			}
		}
	}
}
