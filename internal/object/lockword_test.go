/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "testing"

// TestNewLockwordIsOdd verifies testable property 2: every header's
// lockword is ODD.
func TestNewLockwordIsOdd(t *testing.T) {
	lw := NewLockword()
	if !lw.IsOdd() {
		t.Fatal("fresh lockword must have ODD set")
	}
	if lw.Live() || lw.Keep() || lw.Fat() {
		t.Fatal("fresh lockword must start with LIVE/KEEP/FAT clear")
	}
}

func TestTypeTagRoundTrip(t *testing.T) {
	lw := NewLockword()
	lw.SetTypeTag(0xB)
	if lw.TypeTag() != 0xB {
		t.Fatalf("expected type tag 0xB, got %x", lw.TypeTag())
	}
	if !lw.IsOdd() {
		t.Fatal("setting the type tag must not disturb ODD")
	}
}

func TestRefCountSaturates(t *testing.T) {
	lw := NewLockword()
	lw.SetRefCount(1000)
	if lw.RefCount() != MaxRefCount {
		t.Fatalf("expected saturation at %d, got %d", MaxRefCount, lw.RefCount())
	}
}

// TestLockUnlockIdempotent verifies spec.md §8's round-trip property:
// lock(o); unlock(o) on an unlocked object leaves its lockword identical
// to the initial lockword.
func TestLockUnlockIdempotent(t *testing.T) {
	lw := NewLockword()
	before := lw.Raw()

	if !lw.CASThinAcquire(7) {
		t.Fatal("expected uncontended acquire to succeed")
	}
	if !lw.CASThinUnlock(7) {
		t.Fatal("expected unlock by owner to succeed")
	}

	if lw.Raw() != before {
		t.Fatalf("lockword not restored: before=%x after=%x", before, lw.Raw())
	}
}

// TestThinLockRecursionAtMax verifies the boundary case: recursion
// recursion stops exactly at the count field's max (MaxThinCount), and a
// lockword at that count inflates without error.
func TestThinLockRecursionAtMax(t *testing.T) {
	lw := NewLockword()
	const tid = 3
	if !lw.CASThinAcquire(tid) {
		t.Fatal("acquire failed")
	}
	n := 0
	for {
		ok, overflowed := lw.CASThinRecurse(tid)
		if overflowed {
			break
		}
		if !ok {
			t.Fatal("recurse CAS failed unexpectedly")
		}
		n++
		if n > MaxThinCount+10 {
			t.Fatal("recursion never reported overflow")
		}
	}
	if lw.ThinCount() != MaxThinCount {
		t.Fatalf("expected count to reach max %d, got %d", MaxThinCount, lw.ThinCount())
	}

	if !lw.CASInflate(99) {
		t.Fatal("inflate failed at max recursion")
	}
	if !lw.Fat() || lw.FatID() != 99 {
		t.Fatal("lockword did not reflect inflation")
	}
}

func TestCASThinAcquireRejectsContended(t *testing.T) {
	lw := NewLockword()
	if !lw.CASThinAcquire(1) {
		t.Fatal("first acquire should succeed")
	}
	if lw.CASThinAcquire(2) {
		t.Fatal("second thread must not win the thin-lock CAS")
	}
}

func TestClearFatReturnsToUnlocked(t *testing.T) {
	lw := NewLockword()
	lw.CASInflate(5)
	lw.ClearFat()
	if lw.Fat() || lw.FatID() != 0 {
		t.Fatal("ClearFat must remove FAT and FatID")
	}
}

func TestMarkAndClear(t *testing.T) {
	lw := NewLockword()
	lw.MarkKept()
	if !lw.Live() || !lw.Keep() {
		t.Fatal("MarkKept must set LIVE and KEEP")
	}
	lw.ClearMarks()
	if lw.Live() || lw.Keep() {
		t.Fatal("ClearMarks must clear LIVE and KEEP")
	}
	if !lw.IsOdd() {
		t.Fatal("ClearMarks must not disturb ODD")
	}
}

func TestToggleVisited(t *testing.T) {
	lw := NewLockword()
	start := lw.Visited()
	lw.ToggleVisited()
	if lw.Visited() == start {
		t.Fatal("ToggleVisited must flip the bit")
	}
	lw.ToggleVisited()
	if lw.Visited() != start {
		t.Fatal("second toggle must restore original state")
	}
}
