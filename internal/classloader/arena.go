/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Arena is a per-loader bump allocator for the metadata derivation
// produces (Type records, method tables), grounded on jchevm/libjc's
// cl_alloc.c: a mark/reset point lets a failed derivation roll back
// everything it allocated in one step instead of unwinding field by
// field (spec.md §4.2's "Failure ... Rollback via arena mark/reset").
// Go's own allocator backs the bytes; this layer only tracks the
// intent-to-free boundary a derivation rollback needs.
package classloader

import "sync"

// Arena accumulates derived Types for one loader until the loader is
// unloaded (internal/gc's class-loader-unloading pass calls Reset).
type Arena struct {
	mu    sync.Mutex
	types []*Type
	marks []int
}

func newArena() *Arena { return &Arena{} }

// Track records t as owned by this arena.
func (a *Arena) Track(t *Type) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.types = append(a.types, t)
}

// Mark returns a checkpoint a failed derivation can roll back to.
func (a *Arena) Mark() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.types)
}

// Reset discards everything tracked since mark, the rollback path
// spec.md §4.2 describes for a derivation that fails partway through.
func (a *Arena) Reset(mark int) []*Type {
	a.mu.Lock()
	defer a.mu.Unlock()
	if mark > len(a.types) {
		mark = len(a.types)
	}
	discarded := a.types[mark:]
	a.types = a.types[:mark]
	return discarded
}

// All returns every Type this arena currently owns, for internal/gc's
// class-loader unloading sweep.
func (a *Arena) All() []*Type {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Type, len(a.types))
	copy(out, a.types)
	return out
}
