/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "testing"

func TestArenaResetDiscardsSinceMark(t *testing.T) {
	a := newArena()
	a.Track(&Type{Name: "kept"})
	mark := a.Mark()
	a.Track(&Type{Name: "discarded1"})
	a.Track(&Type{Name: "discarded2"})

	discarded := a.Reset(mark)
	if len(discarded) != 2 {
		t.Fatalf("expected 2 discarded types, got %d", len(discarded))
	}
	remaining := a.All()
	if len(remaining) != 1 || remaining[0].Name != "kept" {
		t.Fatalf("expected only 'kept' to survive, got %+v", remaining)
	}
}

func TestDigestDiffersOnDifferentBytes(t *testing.T) {
	d1 := classIdentityDigest("app", "a/A", []byte{1, 2, 3})
	d2 := classIdentityDigest("app", "a/A", []byte{1, 2, 4})
	if d1 == d2 {
		t.Fatal("expected different raw bytes to produce different digests")
	}
}

func TestDigestStableForSameInput(t *testing.T) {
	d1 := classIdentityDigest("app", "a/A", []byte{1, 2, 3})
	d2 := classIdentityDigest("app", "a/A", []byte{1, 2, 3})
	if d1 != d2 {
		t.Fatal("expected the same input to produce the same digest")
	}
}
