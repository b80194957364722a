/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals is the process-wide configuration record: the system
// properties of spec.md §6, the identity of the running VM, and the
// small set of cooperative hooks (FuncThrowException, LoaderWg) that let
// leaf packages reach back into the VM without an import cycle. It is
// modeled directly on the teacher's jacobin/globals package, reached
// everywhere through globals.GetGlobalRef().
package globals

import (
	"sync"
)

// Globals is the single source of truth for VM-wide configuration and
// state. One instance exists per process; tests reset it with InitGlobals.
type Globals struct {
	VMName  string // argv[0]-derived identity, teacher's JacobinName
	JavaHome string
	StartingJar string
	StartingClass string

	// classpath (spec.md §6)
	BootClassPath        string
	BootClassPathPrepend string
	BootClassPathAppend  string
	AppClassPath         []string

	// size properties (spec.md §6), already resolved from K/M/G suffixes
	StackMinimum     int64
	StackMaximum     int64
	StackDefault     int64
	JavaStackSize    int64
	HeapSize         int64
	HeapGranularity  int64
	LoaderArenaSize  int64

	StrictJDK bool

	// TraceClass/TraceCloadi mirror the teacher's globals.TraceClass /
	// globals.TraceCloadi quick-check booleans, set from jc.verbose.*.
	TraceClass  bool
	TraceCloadi bool

	// FuncThrowException is how classloader/object/heap code (which must
	// not import the interpreter to avoid a cycle) posts a pending Java
	// exception on the current thread. InitGlobals and GetGlobalRef set
	// it to a no-op, and no package in this tree installs another.
	FuncThrowException func(excName string, msg string)

	LoaderWg sync.WaitGroup

	mu sync.RWMutex
}

const (
	DefaultStackMinimum    = 16 * 1024
	DefaultStackMaximum    = 512 * 1024 * 1024
	DefaultStackDefault    = 1024 * 1024
	DefaultJavaStackSize   = 1 * 1024 * 1024
	DefaultHeapSize        = 64 * 1024 * 1024
	DefaultHeapGranularity = 8
	DefaultLoaderArena     = 4 * 1024 * 1024
)

var (
	ref  *Globals
	once sync.Once
	refMu sync.Mutex
)

// InitGlobals (re)initializes the package-level Globals instance under
// the given VM name -- tests call this exactly as the teacher's test
// suite calls globals.InitGlobals("test").
func InitGlobals(vmName string) *Globals {
	refMu.Lock()
	defer refMu.Unlock()
	ref = &Globals{
		VMName:          vmName,
		StackMinimum:    DefaultStackMinimum,
		StackMaximum:    DefaultStackMaximum,
		StackDefault:    DefaultStackDefault,
		JavaStackSize:   DefaultJavaStackSize,
		HeapSize:        DefaultHeapSize,
		HeapGranularity: DefaultHeapGranularity,
		LoaderArenaSize: DefaultLoaderArena,
		FuncThrowException: func(string, string) {},
	}
	once = sync.Once{}
	return ref
}

// GetGlobalRef returns the current Globals instance, lazily creating one
// under the name "corevm" if InitGlobals was never called (mirrors the
// teacher's lazy-init behavior so packages that run before main() — e.g.
// package-level var initializers in tests — never see a nil ref).
func GetGlobalRef() *Globals {
	refMu.Lock()
	defer refMu.Unlock()
	if ref == nil {
		ref = &Globals{
			VMName:          "corevm",
			StackMinimum:    DefaultStackMinimum,
			StackMaximum:    DefaultStackMaximum,
			StackDefault:    DefaultStackDefault,
			JavaStackSize:   DefaultJavaStackSize,
			HeapSize:        DefaultHeapSize,
			HeapGranularity: DefaultHeapGranularity,
			LoaderArenaSize: DefaultLoaderArena,
			FuncThrowException: func(string, string) {},
		}
	}
	return ref
}

// Lock/Unlock expose the instance mutex for callers (e.g. classloader)
// that need to mutate multiple fields atomically with respect to readers.
func (g *Globals) Lock()   { g.mu.Lock() }
func (g *Globals) Unlock() { g.mu.Unlock() }
