/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package heap

import "corevm/internal/object"

// SweepVisitor is called once per live header block during Sweep. It
// returns false to have the block reclaimed (spec.md §4.9's "mark phase
// clears LIVE on anything not reached; sweep reclaims everything still
// unmarked"), true to keep it.
type SweepVisitor func(obj *object.Object) bool

// SweepResult summarizes one sweep pass for diagnostics.
type SweepResult struct {
	Scanned   int
	Reclaimed int
}

// ForEachObject calls visit once per currently allocated header block,
// small or large, without touching any block's state -- internal/gc's
// mark phase uses this for its "clear LIVE|KEEP on every live object"
// step before tracing from roots, since Sweep's visitor is only invoked
// to decide reclamation, not plain iteration. Must run under the heap's
// lock, same as Sweep.
func (h *Heap) ForEachObject(visit func(obj *object.Object)) {
	for i := range h.pages {
		p := &h.pages[i]
		switch p.Type {
		case PageSmall:
			for j := range p.Blocks {
				if p.Blocks[j].State == BlockHeader {
					visit(p.Blocks[j].Obj)
				}
			}
		case PageLarge:
			if p.Blocks[0].State == BlockHeader {
				visit(p.Blocks[0].Obj)
			}
		}
	}
}

// Sweep walks every page exactly once and asks visit whether each live
// object survives. It must run under the heap's lock (internal/gc holds
// the world stopped for the whole mark+sweep cycle, so Sweep itself does
// not re-acquire it -- call through Heap.WithLock).
func (h *Heap) Sweep(visit SweepVisitor) SweepResult {
	var res SweepResult
	for i := range h.pages {
		p := &h.pages[i]
		switch p.Type {
		case PageSmall:
			h.sweepSmallPage(p, visit, &res)
		case PageLarge:
			h.sweepLargePage(i, p, visit, &res)
		}
	}
	return res
}

func (h *Heap) sweepSmallPage(p *Page, visit SweepVisitor, res *SweepResult) {
	for i := range p.Blocks {
		if p.Blocks[i].State != BlockHeader {
			continue
		}
		res.Scanned++
		if visit(p.Blocks[i].Obj) {
			continue
		}
		p.Blocks[i] = Block{State: BlockFree}
		res.Reclaimed++
	}
	h.maybeFreePage(p)
}

func (h *Heap) sweepLargePage(idx int, p *Page, visit SweepVisitor, res *SweepResult) {
	if p.Blocks[0].State != BlockHeader {
		return
	}
	res.Scanned++
	if visit(p.Blocks[0].Obj) {
		return
	}
	res.Reclaimed++
	n := p.NPages
	for i := idx; i < idx+n && i < len(h.pages); i++ {
		h.pages[i] = Page{Type: PageFree}
	}
	h.usedPages -= n
}

// maybeFreePage returns a small page to PageFree once every block in it
// is free, unlinking it from its size class's freelist.
func (h *Heap) maybeFreePage(p *Page) {
	for i := range p.Blocks {
		if p.Blocks[i].State != BlockFree {
			return
		}
	}
	class := p.SizeClass
	if h.freeLists[class] == p {
		h.freeLists[class] = p.next
	} else {
		for cur := h.freeLists[class]; cur != nil; cur = cur.next {
			if cur.next == p {
				cur.next = p.next
				break
			}
		}
	}
	h.usedPages--
	*p = Page{Type: PageFree}
}
