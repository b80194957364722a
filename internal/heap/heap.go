/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heap implements spec.md §4.3: a page-structured small/large
// block allocator with per-size-class freelists. Go already manages the
// bytes behind an *object.Object, so this package does not lay out raw
// memory the way the C core does (the spec's §9 design notes call this
// kind of adaptation out explicitly for a managed-memory host); instead
// it reproduces the *bookkeeping* the spec layer cares about -- size
// classes, page descriptors, freelists, the large-block rotating scan,
// and the canonical sweep iterator -- over blocks that each hold either a
// free marker or a *object.Object. That bookkeeping is what spec.md §8's
// testable properties (sweep recycles the right blocks, OOM after a
// failed GC, no partial sweeps) are checked against.
package heap

import (
	"sync"

	"corevm/internal/object"
)

// PageType mirrors spec.md §4.3's page-descriptor low bits.
type PageType int

const (
	PageFree PageType = iota
	PageSmall
	PageLarge
	pageInterior // continuation page of a LARGE run; not externally visible
)

// BlockState mirrors spec.md §4.3's "first word of a small block".
type BlockState int

const (
	BlockFree BlockState = iota
	BlockAlloc
	BlockHeader // a live object header occupies this block
)

// Block is one allocatable unit inside a SMALL page, or the sole unit of
// a LARGE page's head page.
type Block struct {
	State BlockState
	Obj   *object.Object
}

// Page is one fixed-size page of the heap.
type Page struct {
	Type PageType

	// SMALL-page fields
	SizeClass int // index into Heap.classes
	Blocks    []Block
	next      *Page // "use first" list link for this size class

	// LARGE-page fields (valid only on the head page; Type==PageLarge)
	NPages int
}

// SizeClass is one entry in the block-size plan (spec.md §4.3).
type SizeClass struct {
	Slots int // blocks per page for this class
}

const (
	// defaultPagesBudget is the page count of the Default() heap.
	defaultPagesBudget = 4096
)

// Heap is the JVM-level heap bookkeeping layer: a fixed array of pages,
// size-class freelists, and the global page budget of spec.md §4.1 (the
// same budget backs both the heap and the classloader arenas in a real
// JVM; here each owns its own counter for clarity).
type Heap struct {
	mu        sync.Mutex
	pages     []Page
	classes   []SizeClass
	freeLists []*Page // "use first" head per size class
	nextPage  int      // rotating hint for the large-block scan

	totalPages int
	usedPages  int

	// Initializing suppresses GC the way spec.md §4.3's "During initial
	// bootstrap (initialization != null) GC is prohibited" does.
	Initializing bool

	onOutOfMemory func() bool // triggers a GC cycle; returns true if it freed anything
}

// DefaultSizeClasses is the block-size plan used unless NewHeap is given
// a different one: powers of two from 8 to 256 slots. A request larger
// than the last class goes to the LARGE allocator.
var DefaultSizeClasses = []SizeClass{
	{Slots: 8}, {Slots: 16}, {Slots: 32}, {Slots: 64}, {Slots: 128}, {Slots: 256},
}

// NewHeap allocates a heap with the given total page budget.
func NewHeap(totalPages int, classes []SizeClass) *Heap {
	if classes == nil {
		classes = DefaultSizeClasses
	}
	h := &Heap{
		pages:      make([]Page, totalPages),
		classes:    classes,
		freeLists:  make([]*Page, len(classes)),
		totalPages: totalPages,
	}
	for i := range h.pages {
		h.pages[i] = Page{Type: PageFree}
	}
	return h
}

// SetOutOfMemoryHook installs the GC trigger spec.md §4.3's "Out of
// memory path" calls before giving up. internal/gc wires the real
// implementation; tests may install a no-op.
func (h *Heap) SetOutOfMemoryHook(f func() bool) { h.onOutOfMemory = f }

// classFor returns the smallest size class able to hold slots, or -1 if
// none can (the request must become a LARGE allocation).
func (h *Heap) classFor(slots int) int {
	for i, c := range h.classes {
		if c.Slots >= slots {
			return i
		}
	}
	return -1
}

func (h *Heap) acquireFreePage() *Page {
	for i := range h.pages {
		if h.pages[i].Type == PageFree {
			h.usedPages++
			return &h.pages[i]
		}
	}
	return nil
}

func (h *Heap) formatSmallPage(p *Page, class int) {
	p.Type = PageSmall
	p.SizeClass = class
	p.Blocks = make([]Block, h.classes[class].Slots)
	p.next = h.freeLists[class]
	h.freeLists[class] = p
}

// AllocSmall implements spec.md §4.3's small-block allocation: use the
// size class's "use first" list, first-fit scan its head page for a free
// block; if the list is empty, acquire a fresh page and restart.
func (h *Heap) AllocSmall(slots int) (*object.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocSmallLocked(slots, true)
}

func (h *Heap) allocSmallLocked(slots int, allowGC bool) (*object.Object, error) {
	class := h.classFor(slots)
	if class < 0 {
		return h.allocLargeLocked(1, allowGC)
	}

	for attempt := 0; attempt < 3; attempt++ {
		if obj, ok := h.tryAllocFromFreeList(class); ok {
			return obj, nil
		}
		if p := h.acquireFreePage(); p != nil {
			h.formatSmallPage(p, class)
			if obj, ok := h.tryAllocFromFreeList(class); ok {
				return obj, nil
			}
		}
		if !allowGC || h.Initializing || h.onOutOfMemory == nil {
			break
		}
		if !h.onOutOfMemory() {
			break
		}
	}
	return nil, ErrOutOfMemory
}

func (h *Heap) tryAllocFromFreeList(class int) (*object.Object, bool) {
	for p := h.freeLists[class]; p != nil; p = p.next {
		for i := range p.Blocks {
			if p.Blocks[i].State == BlockFree {
				obj := object.MakeEmptyObject()
				p.Blocks[i].Obj = obj
				p.Blocks[i].State = BlockHeader
				obj.Lock.MarkKept()
				return obj, true
			}
		}
	}
	return nil, false
}

// AllocLarge implements spec.md §4.3's large-block allocation: scan the
// page array from a rotating hint for n consecutive FREE pages.
func (h *Heap) AllocLarge(npages int) (*object.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocLargeLocked(npages, true)
}

func (h *Heap) allocLargeLocked(npages int, allowGC bool) (*object.Object, error) {
	for attempt := 0; attempt < 3; attempt++ {
		if p, start := h.findFreeRun(npages); p != nil {
			p.Type = PageLarge
			p.NPages = npages
			p.Blocks = []Block{{}}
			for i := start + 1; i < start+npages; i++ {
				h.pages[i].Type = pageInterior
			}
			h.usedPages += npages
			h.nextPage = (start + npages) % len(h.pages)
			obj := object.MakeEmptyObject()
			p.Blocks[0].Obj = obj
			p.Blocks[0].State = BlockHeader
			obj.Lock.MarkKept()
			obj.Lock.SetArray(true)
			return obj, nil
		}
		if !allowGC || h.Initializing || h.onOutOfMemory == nil {
			break
		}
		if !h.onOutOfMemory() {
			break
		}
	}
	return nil, ErrOutOfMemory
}

func (h *Heap) findFreeRun(npages int) (*Page, int) {
	n := len(h.pages)
	if npages > n {
		return nil, 0
	}
	for off := 0; off < n; off++ {
		start := (h.nextPage + off) % n
		if start+npages > n {
			continue
		}
		ok := true
		for i := start; i < start+npages; i++ {
			if h.pages[i].Type != PageFree {
				ok = false
				break
			}
		}
		if ok {
			return &h.pages[start], start
		}
	}
	return nil, 0
}

// Stats reports coarse occupancy for diagnostics (cmd/corevm's monitor
// TUI reads this).
type Stats struct {
	TotalPages int
	UsedPages  int
	FreePages  int
}

func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{TotalPages: h.totalPages, UsedPages: h.usedPages, FreePages: h.totalPages - h.usedPages}
}

var (
	defaultHeap     *Heap
	defaultHeapOnce sync.Once
)

// Default returns the process-wide heap instance, lazily creating one
// with defaultPagesBudget pages and DefaultSizeClasses the first time
// it's needed -- the same lazy-singleton shape as globals.GetGlobalRef,
// so tests and early package-level init never see a nil heap.
func Default() *Heap {
	defaultHeapOnce.Do(func() {
		defaultHeap = NewHeap(defaultPagesBudget, DefaultSizeClasses)
	})
	return defaultHeap
}

// ErrOutOfMemory is returned when allocation fails even after exhausting
// the GC-and-retry budget; the caller (internal/frames/internal/interp)
// is responsible for turning this into OutOfMemoryError.
var ErrOutOfMemory = outOfMemoryErr{}

type outOfMemoryErr struct{}

func (outOfMemoryErr) Error() string { return "heap: out of memory" }

// WithLock runs f while holding the heap's lock, giving the sweep
// iterator (sweep.go) and internal/gc exclusive access to the page
// array during a stop-the-world collection.
func (h *Heap) WithLock(f func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f()
}
