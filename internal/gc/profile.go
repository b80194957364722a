/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gc

import (
	"io"
	"sort"

	"github.com/google/pprof/profile"

	"corevm/internal/heap"
	"corevm/internal/object"
)

// WriteHeapProfile snapshots the default heap's live objects, bucketed
// by defining class, and writes them out in pprof's protobuf format so
// an external pprof client can render a heap breakdown the same way
// Go's own runtime/pprof.WriteHeapProfile
// does for a Go process. Grounded on the pprof/profile package's sample
// model, which this repo otherwise has no occasion to exercise since it
// isn't profiling its own host process.
//
// Only object counts per class are reported, not byte sizes: this
// runtime's block layout (internal/heap) tracks occupancy by size class
// and page, not a per-object byte count, so a "bytes" sample type would
// have to be reconstructed from each class's field layout. The
// monitor TUI does not call this writer.
func WriteHeapProfile(w io.Writer) error {
	h := heap.Default()
	counts := make(map[string]int64)

	h.WithLock(func() {
		h.ForEachObject(func(obj *object.Object) {
			name := "<unknown>"
			if obj.Klass != nil {
				name = *obj.Klass
			}
			counts[name]++
		})
	})

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "objects", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "heap", Unit: "objects"},
		Period:     1,
	}

	for i, name := range names {
		fn := &profile.Function{ID: uint64(i + 1), Name: name}
		loc := &profile.Location{ID: uint64(i + 1), Line: []profile.Line{{Function: fn, Line: 0}}}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{counts[name]},
		})
	}

	return p.Write(w)
}
