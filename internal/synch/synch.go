/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package synch implements spec.md §4.5: monitor acquisition starting
// thin (a CAS on the object header) and inflating to a fat lock (an
// owner, a recursion count, and a waiter queue) on contention. Grounded
// on jchevm/libjc's lock.c / mutex.c thin-to-fat inflation protocol,
// adapted onto object.Lockword's CAS primitives.
package synch

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"corevm/internal/excnames"
	"corevm/internal/object"
)

// MaxFatLocks bounds how many monitors may be inflated at once (spec.md
// §4.5's "fat-lock table has a fixed capacity; inflation beyond it
// degrades to blocking on a shared bucket"). A semaphore.Weighted
// enforces the bound without the table itself needing a hard cap.
const MaxFatLocks = 4096

// FatLock is one inflated monitor: owner thread ID, recursion count, and
// a FIFO waiter queue via sync.Cond.
type FatLock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	owner   uint32
	held    bool
	count   uint32
	waiters int
}

func newFatLock() *FatLock {
	f := &FatLock{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Table owns every inflated monitor in the VM, keyed by the fat-lock ID
// stored in the owning object's lockword.
type Table struct {
	mu    sync.Mutex
	locks map[uint32]*FatLock
	next  uint32
	sem   *semaphore.Weighted
}

func NewTable() *Table {
	return &Table{
		locks: make(map[uint32]*FatLock),
		next:  1,
		sem:   semaphore.NewWeighted(MaxFatLocks),
	}
}

// Monitors is the process-wide fat-lock table monitorenter/monitorexit
// and Object.wait/notify resolve against.
var Monitors = NewTable()

// Inflate converts obj's thin lock into a fat lock, returning the new
// lock's ID. The fat lock is seeded from the thin lock's own state --
// its existing owner and recursion count, not the calling thread's tid
// -- since Inflate is called both by a recursing owner (tid ==
// ThinTID()) and by a contender that merely triggered the inflation
// (tid != ThinTID()); crediting the contender with ownership would let
// two threads believe they both hold the monitor. When MaxFatLocks
// monitors are already inflated, Inflate blocks in sem.Acquire until one
// is released or ctx is done; in the latter case it returns ctx's error,
// which lockInflated passes to its caller.
func (t *Table) Inflate(ctx context.Context, obj *object.Object, tid uint32) (*FatLock, error) {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	thinOwner := obj.Lock.ThinTID()
	thinCount := obj.Lock.ThinCount()

	t.mu.Lock()
	id := t.next
	t.next++
	fl := newFatLock()
	fl.owner = thinOwner
	fl.held = true
	fl.count = thinCount + 1
	t.locks[id] = fl
	t.mu.Unlock()

	if !obj.Lock.CASInflate(id) {
		// another thread inflated first; back out our reservation and
		// use theirs.
		t.mu.Lock()
		delete(t.locks, id)
		t.mu.Unlock()
		t.sem.Release(1)
		existing, ok := t.Get(obj.Lock.FatID())
		if !ok {
			return nil, excnames.NewVMError(excnames.IllegalMonitorStateException, "lost race inflating monitor")
		}
		return existing, nil
	}
	return fl, nil
}

func (t *Table) Get(id uint32) (*FatLock, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fl, ok := t.locks[id]
	return fl, ok
}

// Release removes a fat lock from the table and frees its slot. Nothing
// in the runtime calls it: internal/gc's sweep leaves the fat locks of
// collected objects in the table.
func (t *Table) Release(id uint32) {
	t.mu.Lock()
	_, ok := t.locks[id]
	delete(t.locks, id)
	t.mu.Unlock()
	if ok {
		t.sem.Release(1)
	}
}

// Lock acquires a monitor on obj for thread tid, trying the thin path
// first and inflating only on contention, per spec.md §4.5.
func (t *Table) Lock(ctx context.Context, obj *object.Object, tid uint32) error {
	if obj.Lock.CASThinAcquire(tid) {
		return nil
	}
	if obj.Lock.ThinTID() == tid {
		if ok, overflowed := obj.Lock.CASThinRecurse(tid); ok {
			return nil
		} else if overflowed {
			return t.lockInflated(ctx, obj, tid, true)
		}
	}
	return t.lockInflated(ctx, obj, tid, false)
}

func (t *Table) lockInflated(ctx context.Context, obj *object.Object, tid uint32, already bool) error {
	var fl *FatLock
	if obj.Lock.Fat() {
		var ok bool
		fl, ok = t.Get(obj.Lock.FatID())
		if !ok {
			return excnames.NewVMError(excnames.IllegalMonitorStateException, "fat lock missing from table")
		}
	} else {
		var err error
		fl, err = t.Inflate(ctx, obj, tid)
		if err != nil {
			return err
		}
		if already {
			// Inflate already seeded fl.owner/fl.count from the thin
			// lock tid itself held, so the recursive acquire that
			// overflowed THIN_COUNT is already accounted for.
			return nil
		}
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()
	for fl.held && fl.owner != tid {
		fl.waiters++
		fl.cond.Wait()
		fl.waiters--
	}
	if fl.held && fl.owner == tid {
		fl.count++
		return nil
	}
	fl.held = true
	fl.owner = tid
	fl.count = 1
	return nil
}

// Unlock releases one level of recursion on obj's monitor, owned by tid.
// Returns IllegalMonitorStateException if tid does not own it, matching
// the JVMS requirement that monitorexit by a non-owner signals an error.
func (t *Table) Unlock(obj *object.Object, tid uint32) error {
	if !obj.Lock.Fat() {
		if obj.Lock.ThinTID() != tid {
			return excnames.NewVMError(excnames.IllegalMonitorStateException, "thread does not own this monitor")
		}
		obj.Lock.CASThinUnlock(tid)
		return nil
	}

	fl, ok := t.Get(obj.Lock.FatID())
	if !ok {
		return excnames.NewVMError(excnames.IllegalMonitorStateException, "fat lock missing from table")
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if !fl.held || fl.owner != tid {
		return excnames.NewVMError(excnames.IllegalMonitorStateException, "thread does not own this monitor")
	}
	fl.count--
	if fl.count == 0 {
		fl.held = false
		fl.cond.Signal()
	}
	return nil
}
