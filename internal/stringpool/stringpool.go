/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stringpool is the VM-wide interned-string table. Every UTF-8
// constant the classloader resolves, and every implicit reference a
// class loader record tracks for GC (spec.md §3 "implicit reference"),
// passes through here so that identical strings share one backing slot.
// Modeled directly on the teacher's jacobin/stringPool, which
// object/javaByteArray.go and classloader/classloader.go both reach into
// via GetStringPointer/GetStringPoolSize.
package stringpool

import (
	"sync"

	"corevm/internal/types"
)

var (
	mu      sync.RWMutex
	strings_ []string
	index   map[string]uint32
)

func init() {
	reset()
}

// reset is exported for tests only, through Reset below; it reinstalls
// the two well-known slots spec.md's types package hard-codes indices
// for: slot 0 is reserved, slot 1 is "java/lang/Object", slot 2 is
// "java/lang/String".
func reset() {
	strings_ = []string{"", "java/lang/Object", "java/lang/String"}
	index = map[string]uint32{
		"":                  0,
		"java/lang/Object":  types.ObjectPoolStringIndex,
		"java/lang/String":  types.StringPoolStringIndex,
	}
}

// Reset clears the pool back to its two well-known entries. Used by
// tests that need pool-index determinism between runs.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	reset()
}

// GetStringIndex interns str, returning its existing slot if present or
// allocating a new one otherwise.
func GetStringIndex(s string) uint32 {
	mu.RLock()
	if i, ok := index[s]; ok {
		mu.RUnlock()
		return i
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	// re-check under the write lock: another goroutine may have interned
	// the same string between the RUnlock above and this Lock.
	if i, ok := index[s]; ok {
		return i
	}
	i := uint32(len(strings_))
	strings_ = append(strings_, s)
	index[s] = i
	return i
}

// GetStringPointer returns a pointer to the interned string at index i,
// or nil if the index is out of range.
func GetStringPointer(i uint32) *string {
	mu.RLock()
	defer mu.RUnlock()
	if i >= uint32(len(strings_)) {
		return nil
	}
	return &strings_[i]
}

// GetStringPoolSize returns the number of interned entries.
func GetStringPoolSize() uint32 {
	mu.RLock()
	defer mu.RUnlock()
	return uint32(len(strings_))
}
