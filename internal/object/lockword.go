/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "sync/atomic"

// Lockword is the packed per-object header word of spec.md §3/§4.4. Bit
// layout, from LSB:
//
//	bit 0      ODD       always 1 on a live header (conservative-scan marker)
//	bit 1      LIVE      reachable, set by the GC mark pass
//	bit 2      KEEP      retained independent of LIVE (finalizer reachability)
//	bit 3      FAT       lock inflated; FatID names the fat-lock table slot
//	bit 4      FINALIZE  finalizer declared and not yet run
//	bit 5      ARRAY     this object is an array
//	bit 6      SPECIAL   subject to implicit-reference GC handling
//	bit 7      VISITED   stack-allocated objects: toggled per GC cycle
//	bits 8-11  TYPE_TAG  4-bit primitive/type tag, mirrors Type.flags[0..4]
//	bits 12-19 REF_COUNT saturating reference-field count
//	bits 20-63 thin/fat union:
//	             FAT=0: bits 20-39 THIN_TID, bits 40-63 THIN_COUNT
//	             FAT=1: bits 20-51 FAT_ID
//
// All transitions are performed with atomic.Uint64 so the thin-lock fast
// path (internal/synch) and the GC mark pass never tear a read.
type Lockword struct {
	w atomic.Uint64
}

const (
	bitOdd = 1 << iota
	bitLive
	bitKeep
	bitFat
	bitFinalize
	bitArray
	bitSpecial
	bitVisited
)

const (
	typeTagShift = 8
	typeTagMask  = 0xF

	refCountShift = 12
	refCountBits  = 8
	refCountMask  = (1 << refCountBits) - 1
	// MaxRefCount is the saturation value of spec.md §4.4; at this value
	// callers must consult the Type's virtual-reference count instead.
	MaxRefCount = refCountMask - 1

	thinTidShift   = 20
	thinTidBits    = 20
	thinTidMask    = (1 << thinTidBits) - 1
	thinCountShift = thinTidShift + thinTidBits // 40
	thinCountBits  = 24
	thinCountMask  = (1 << thinCountBits) - 1
	// MaxThinCount is the recursion depth at which the thin lock must be
	// inflated to a fat lock (spec.md §4.5).
	MaxThinCount = thinCountMask - 1

	fatIDShift = 20
	fatIDBits  = 32
	fatIDMask  = (1 << fatIDBits) - 1
)

// NewLockword returns the initial lockword of a freshly allocated object:
// ODD set, everything else zero. The allocator (internal/heap) and type
// derivation (internal/classloader) set TYPE_TAG/ARRAY/SPECIAL/REF_COUNT
// from the owning Type before publishing the object.
func NewLockword() Lockword {
	var lw Lockword
	lw.w.Store(bitOdd)
	return lw
}

func (lw *Lockword) raw() uint64 { return lw.w.Load() }

func (lw *Lockword) testBit(bit uint64) bool { return lw.raw()&bit != 0 }

func (lw *Lockword) setBitCAS(bit uint64, val bool) {
	for {
		old := lw.raw()
		var nw uint64
		if val {
			nw = old | bit
		} else {
			nw = old &^ bit
		}
		if lw.w.CompareAndSwap(old, nw) {
			return
		}
	}
}

// IsOdd reports the ODD bit -- always true for a live header. internal/gc
// traces references precisely and does not read it.
func (lw *Lockword) IsOdd() bool { return lw.testBit(bitOdd) }

func (lw *Lockword) Live() bool       { return lw.testBit(bitLive) }
func (lw *Lockword) SetLive(v bool)   { lw.setBitCAS(bitLive, v) }
func (lw *Lockword) Keep() bool       { return lw.testBit(bitKeep) }
func (lw *Lockword) SetKeep(v bool)   { lw.setBitCAS(bitKeep, v) }
func (lw *Lockword) Fat() bool        { return lw.testBit(bitFat) }
func (lw *Lockword) Finalize() bool   { return lw.testBit(bitFinalize) }
func (lw *Lockword) SetFinalize(v bool) { lw.setBitCAS(bitFinalize, v) }
func (lw *Lockword) Array() bool      { return lw.testBit(bitArray) }
func (lw *Lockword) SetArray(v bool)  { lw.setBitCAS(bitArray, v) }
func (lw *Lockword) Special() bool    { return lw.testBit(bitSpecial) }
func (lw *Lockword) SetSpecial(v bool) { lw.setBitCAS(bitSpecial, v) }
func (lw *Lockword) Visited() bool    { return lw.testBit(bitVisited) }

// ToggleVisited flips VISITED, the stack-allocated-object mark mechanism
// of spec.md §4.9.
func (lw *Lockword) ToggleVisited() {
	for {
		old := lw.raw()
		if lw.w.CompareAndSwap(old, old^bitVisited) {
			return
		}
	}
}

// MarkKept sets LIVE|KEEP together, preserving every other field -- the
// GC mark-pass "set mark_bits = LIVE|KEEP" step of spec.md §4.9.
func (lw *Lockword) MarkKept() {
	for {
		old := lw.raw()
		nw := old | bitLive | bitKeep
		if lw.w.CompareAndSwap(old, nw) {
			return
		}
	}
}

// ClearMarks clears LIVE and KEEP, the start of a mark pass.
func (lw *Lockword) ClearMarks() {
	for {
		old := lw.raw()
		nw := old &^ (bitLive | bitKeep)
		if lw.w.CompareAndSwap(old, nw) {
			return
		}
	}
}

func (lw *Lockword) TypeTag() uint8 {
	return uint8((lw.raw() >> typeTagShift) & typeTagMask)
}

func (lw *Lockword) SetTypeTag(tag uint8) {
	for {
		old := lw.raw()
		nw := (old &^ (uint64(typeTagMask) << typeTagShift)) | (uint64(tag&typeTagMask) << typeTagShift)
		if lw.w.CompareAndSwap(old, nw) {
			return
		}
	}
}

// RefCount returns the saturating reference-field count. A value of
// MaxRefCount means "saturated; consult the Type" per spec.md §4.4/§9.
func (lw *Lockword) RefCount() int {
	return int((lw.raw() >> refCountShift) & refCountMask)
}

func (lw *Lockword) SetRefCount(n int) {
	if n > MaxRefCount {
		n = MaxRefCount
	}
	if n < 0 {
		n = 0
	}
	for {
		old := lw.raw()
		nw := (old &^ (uint64(refCountMask) << refCountShift)) | (uint64(n) << refCountShift)
		if lw.w.CompareAndSwap(old, nw) {
			return
		}
	}
}

// ThinTID/ThinCount read the thin-lock fields. Valid only when Fat()==false.
func (lw *Lockword) ThinTID() uint32 {
	return uint32((lw.raw() >> thinTidShift) & thinTidMask)
}

func (lw *Lockword) ThinCount() uint32 {
	return uint32((lw.raw() >> thinCountShift) & thinCountMask)
}

// FatID reads the fat-lock table slot. Valid only when Fat()==true.
func (lw *Lockword) FatID() uint32 {
	return uint32((lw.raw() >> fatIDShift) & fatIDMask)
}

// CASThinAcquire attempts to write tid/count=0 into an unlocked thin
// lockword (FAT=0, THIN_TID=0, THIN_COUNT=0), preserving every other
// bit. Returns false if the lockword was not in the unlocked state (the
// caller must then fall through to the contention path).
func (lw *Lockword) CASThinAcquire(tid uint32) bool {
	old := lw.raw()
	if old&bitFat != 0 {
		return false
	}
	if (old>>thinTidShift)&thinTidMask != 0 || (old>>thinCountShift)&thinCountMask != 0 {
		return false
	}
	nw := old | (uint64(tid&thinTidMask) << thinTidShift)
	return lw.w.CompareAndSwap(old, nw)
}

// CASThinRecurse increments THIN_COUNT for a re-entrant lock by the
// current owner. Returns (ok, overflowed): overflowed is true when the
// count is already at MaxThinCount, signaling the caller must inflate.
func (lw *Lockword) CASThinRecurse(tid uint32) (ok bool, overflowed bool) {
	old := lw.raw()
	if old&bitFat != 0 {
		return false, false
	}
	if uint32((old>>thinTidShift)&thinTidMask) != tid {
		return false, false
	}
	count := (old >> thinCountShift) & thinCountMask
	if count >= MaxThinCount {
		return false, true
	}
	nw := (old &^ (uint64(thinCountMask) << thinCountShift)) | ((count + 1) << thinCountShift)
	return lw.w.CompareAndSwap(old, nw), false
}

// CASThinUnlock decrements THIN_COUNT, or fully releases the lock when
// the count is already zero. Returns false if the lockword wasn't a thin
// lock owned by tid (IllegalMonitorStateException territory).
func (lw *Lockword) CASThinUnlock(tid uint32) bool {
	old := lw.raw()
	if old&bitFat != 0 {
		return false
	}
	if uint32((old>>thinTidShift)&thinTidMask) != tid {
		return false
	}
	count := (old >> thinCountShift) & thinCountMask
	var nw uint64
	if count == 0 {
		nw = old &^ (uint64(thinTidMask) << thinTidShift)
	} else {
		nw = (old &^ (uint64(thinCountMask) << thinCountShift)) | ((count - 1) << thinCountShift)
	}
	return lw.w.CompareAndSwap(old, nw)
}

// CASInflate rewrites a thin lockword to FAT=1, FatID=id, preserving
// every info bit outside the thin/fat union (spec.md §4.5 "Inflation").
// The thin recursion count is cleared from the lockword, not carried
// over; the caller (synch.Table.Inflate) reads ThinCount before calling
// this and stores old THIN_COUNT + 1 in the fat lock record.
func (lw *Lockword) CASInflate(id uint32) bool {
	old := lw.raw()
	if old&bitFat != 0 {
		return false
	}
	cleared := old &^ ((uint64(thinTidMask) << thinTidShift) | (uint64(thinCountMask) << thinCountShift))
	nw := cleared | bitFat | (uint64(id&fatIDMask) << fatIDShift)
	return lw.w.CompareAndSwap(old, nw)
}

// ClearFat removes the FAT bit and FatID when a fat lock is returned to
// the free list with no remaining recursion (spec.md §4.5/§4.9), putting
// the lockword back into the unlocked thin-lock state.
func (lw *Lockword) ClearFat() {
	for {
		old := lw.raw()
		nw := (old &^ bitFat) &^ (uint64(fatIDMask) << fatIDShift)
		if lw.w.CompareAndSwap(old, nw) {
			return
		}
	}
}

// Raw exposes the underlying word for diagnostics and round-trip tests.
func (lw *Lockword) Raw() uint64 { return lw.raw() }
