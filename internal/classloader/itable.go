/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Interface-method and instanceof hash tables, modeled directly on
// jchevm/libjc/tables.c's bucketed hash tables: a fixed bucket count,
// entries placed by signature/identity hash, and a parallel "quick"
// table for buckets that end up holding exactly one entry.
package classloader

import (
	"fmt"
	"hash/fnv"
)

const (
	// IMethodHashSize is the interface-method hash table's bucket count
	// (spec.md §4.2's IMETHOD_HASHSIZE).
	IMethodHashSize = 64
	// InstanceOfHashSize is the instanceof hash table's bucket count
	// (spec.md §4.2's INSTANCEOF_HASHSIZE).
	InstanceOfHashSize = 64
)

func signatureHash(name, descriptor string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte{':'})
	h.Write([]byte(descriptor))
	return h.Sum32()
}

// buildIMethodTable enumerates every interface method this type's
// implemented interfaces declare, resolves each to its most-specific
// implementation along the superclass chain, and buckets the results.
// A listed interface method this class chain never implements is left
// out of the table entirely -- invokeinterface's miss path (itable
// lookup returns nil) is what raises the latent AbstractMethodError.
func buildIMethodTable(t *Type) {
	t.IMethodBuckets = make([][]*Method, IMethodHashSize)
	t.IMethodQuick = make([]*Method, IMethodHashSize)

	seen := make(map[string]bool)
	var walk func(iface *Type)
	walk = func(iface *Type) {
		for _, m := range iface.Methods {
			key := m.Name + ":" + m.Descriptor
			if seen[key] {
				continue
			}
			seen[key] = true
			impl := t.ResolveMethod(m.Name, m.Descriptor)
			if impl == nil {
				continue // AbstractMethodError raised lazily on invoke, per spec.md §4.2
			}
			placeIMethod(t, m.Name, m.Descriptor, impl)
		}
		for _, parent := range iface.Ifaces {
			walk(parent)
		}
	}
	for _, iface := range t.Ifaces {
		walk(iface)
	}
	for cur := t.Super; cur != nil; cur = cur.Super {
		for _, iface := range cur.Ifaces {
			walk(iface)
		}
	}
}

func placeIMethod(t *Type, name, descriptor string, impl *Method) {
	bucket := signatureHash(name, descriptor) & uint32(IMethodHashSize-1)
	t.IMethodBuckets[bucket] = append(t.IMethodBuckets[bucket], impl)
	if len(t.IMethodBuckets[bucket]) == 1 {
		t.IMethodQuick[bucket] = impl
	} else {
		t.IMethodQuick[bucket] = nil // more than one entry: quick path disabled for this bucket
	}
}

// LookupInterfaceMethod implements invokeinterface's resolution: try
// the quick table first, fall back to a bucket scan comparing name and
// descriptor. Returns nil on a miss (AbstractMethodError at the call site).
func (t *Type) LookupInterfaceMethod(name, descriptor string) *Method {
	bucket := signatureHash(name, descriptor) & uint32(IMethodHashSize-1)
	if q := t.IMethodQuick[bucket]; q != nil && q.Name == name && q.Descriptor == descriptor {
		return q
	}
	for _, m := range t.IMethodBuckets[bucket] {
		if m.Name == name && m.Descriptor == descriptor {
			return m
		}
	}
	return nil
}

func identityHash(t *Type) uint32 {
	// the Type pointer's identity is stable for the type's lifetime;
	// hash its address the way jchevm hashes a jclass pointer.
	h := fnv.New32a()
	fmt.Fprintf(h, "%p", t)
	return h.Sum32()
}

// buildInstanceOfTable unions this, every superclass, and every
// implemented interface (transitively closed) into INSTANCEOF_HASHSIZE
// buckets keyed by type identity.
func buildInstanceOfTable(t *Type) {
	t.InstanceOfBuckets = make([][]*Type, InstanceOfHashSize)
	seen := make(map[*Type]bool)

	var add func(candidate *Type)
	add = func(candidate *Type) {
		if candidate == nil || seen[candidate] {
			return
		}
		seen[candidate] = true
		bucket := identityHash(candidate) & uint32(InstanceOfHashSize-1)
		t.InstanceOfBuckets[bucket] = append(t.InstanceOfBuckets[bucket], candidate)
		for _, iface := range candidate.Ifaces {
			add(iface)
		}
	}
	for cur := t; cur != nil; cur = cur.Super {
		add(cur)
	}
}

// IsInstance implements isInstance(T): a bucket lookup plus a linear
// walk of that bucket.
func (t *Type) IsInstance(candidate *Type) bool {
	if t.InstanceOfBuckets == nil {
		return t.IsSubtypeOf(candidate)
	}
	bucket := identityHash(candidate) & uint32(InstanceOfHashSize-1)
	for _, entry := range t.InstanceOfBuckets[bucket] {
		if entry == candidate {
			return true
		}
	}
	return false
}
