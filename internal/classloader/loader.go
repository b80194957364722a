/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"fmt"
	"sync"

	"corevm/internal/classfile"
	"corevm/internal/classpath"
	"corevm/internal/excnames"
	"corevm/internal/globals"
	"corevm/internal/stringpool"
	"corevm/internal/trace"
)

// Loader is the Go analogue of the teacher's Classloader struct: a
// named registry of already-defined Types plus the classpath it
// resolves new names against. Reading and mutating the class table is
// safe for concurrent use by multiple application threads.
type Loader struct {
	Name   string
	Parent *Loader

	path  *classpath.Path
	arena *Arena

	mu       sync.RWMutex
	classes  map[string]*Type
	digests  map[string][32]byte
	deriving map[string]bool // in-flight load set, for circularity detection
}

func newLoader(name string, parent *Loader, path *classpath.Path) *Loader {
	return &Loader{
		Name:     name,
		Parent:   parent,
		path:     path,
		arena:    newArena(),
		classes:  make(map[string]*Type),
		digests:  make(map[string][32]byte),
		deriving: make(map[string]bool),
	}
}

// Registry: the three named classloaders the teacher's classloader.go
// sets up at bootstrap (BootstrapCL, ExtensionCL, AppCL), plus any
// number of user loaders registered with NewUserLoader.
var (
	registryMu  sync.RWMutex
	Bootstrap   *Loader
	Extension   *Loader
	App         *Loader
	userLoaders []*Loader
)

// Init wires up the three bootstrap loaders against the given classpath
// entries, mirroring the teacher's classloader.Init.
func Init(bootClasspath, extClasspath, appClasspath []string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	Bootstrap = newLoader("bootstrap", nil, classpath.NewPath(bootClasspath))
	Extension = newLoader("extension", Bootstrap, classpath.NewPath(extClasspath))
	App = newLoader("app", Extension, classpath.NewPath(appClasspath))
	userLoaders = nil
}

// NewUserLoader registers a runtime-defined classloader (spec.md's
// "user-defined ClassLoader" case), parented on App by default the way
// every user loader ultimately delegates to the system loader.
func NewUserLoader(name string, parent *Loader, cp []string) *Loader {
	if parent == nil {
		parent = App
	}
	l := newLoader(name, parent, classpath.NewPath(cp))
	registryMu.Lock()
	userLoaders = append(userLoaders, l)
	registryMu.Unlock()
	return l
}

// AllLoaders returns every registered loader, for internal/gc's
// class-loader-unloading sweep (a loader with no live instances of any
// of its classes and no longer reachable from any root is a candidate).
func AllLoaders() []*Loader {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]*Loader, 0, 3+len(userLoaders))
	if Bootstrap != nil {
		out = append(out, Bootstrap, Extension, App)
	}
	out = append(out, userLoaders...)
	return out
}

// Arena exposes l's derivation arena so internal/gc can enumerate the
// Types a loader owns (for static-field root scanning) and reset it
// when the loader is unloaded.
func (l *Loader) Arena() *Arena { return l.arena }

// UnloadUserLoader removes l from the user-loader registry and resets
// its arena, discarding every Type it derived. Called by internal/gc's
// class-loader-unloading pass (spec.md §4.9) once a loader is found
// unreachable from any root; Bootstrap/Extension/App are never passed
// here since the boot loaders live for the process lifetime.
func UnloadUserLoader(l *Loader) {
	registryMu.Lock()
	for i, u := range userLoaders {
		if u == l {
			userLoaders = append(userLoaders[:i], userLoaders[i+1:]...)
			break
		}
	}
	registryMu.Unlock()
	l.arena.Reset(0)
	l.mu.Lock()
	l.classes = make(map[string]*Type)
	l.digests = make(map[string][32]byte)
	l.mu.Unlock()
}

// FindType returns an already-defined Type by name without attempting
// to load it (spec.md's find_type).
func (l *Loader) FindType(name string) (*Type, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.classes[name]
	return t, ok
}

// LoadByNameOnly resolves name to a linked Type, delegating to the
// parent loader first (the standard delegation model every JDK loader
// follows), then falling back to this loader's own classpath. It
// implements spec.md §4.1's load_type together with §4.2's Derive,
// and jchevm/libjc/load.c's pattern of recursively loading the
// superclass chain before returning -- kept here as resolveSuperclassChain.
func (l *Loader) LoadByNameOnly(name string) (*Type, error) {
	if t, ok := l.FindType(name); ok {
		return t, nil
	}

	if l.Parent != nil {
		if t, err := l.Parent.LoadByNameOnly(name); err == nil {
			return t, nil
		}
	}

	l.mu.Lock()
	if l.deriving[name] {
		l.mu.Unlock()
		return nil, excnames.NewVMError(excnames.ClassCircularityError, name)
	}
	if t, ok := l.classes[name]; ok {
		l.mu.Unlock()
		return t, nil
	}
	l.deriving[name] = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.deriving, name)
		l.mu.Unlock()
	}()

	raw, _, err := l.path.ReadClass(name)
	if err != nil {
		return nil, excnames.NewVMError(excnames.ClassNotFoundException, name)
	}
	return l.defineFromBytes(name, raw)
}

// defineFromBytes parses raw bytes, resolves the superclass chain and
// interfaces (recursively, through this same loader, per JVMS 5.3),
// derives the Type, and registers it.
func (l *Loader) defineFromBytes(name string, raw []byte) (*Type, error) {
	parsed, err := classfile.Decode(raw)
	if err != nil {
		return nil, excnames.NewVMError(excnames.ClassFormatError, fmt.Sprintf("%s: %v", name, err))
	}

	digest := classIdentityDigest(l.Name, name, raw)
	if existing, ok := l.digests[name]; ok && existing != digest {
		return nil, excnames.NewVMError(excnames.LinkageError,
			fmt.Sprintf("loader %s produced different bytes for already-defined class %s", l.Name, name))
	}

	super, err := l.resolveSuperclassChain(parsed)
	if err != nil {
		return nil, err
	}
	ifaces, err := l.resolveInterfaces(parsed)
	if err != nil {
		return nil, err
	}

	mark := l.arena.Mark()
	t, err := Derive(l, parsed, super, ifaces)
	if err != nil {
		l.arena.Reset(mark)
		return nil, err
	}

	t.Digest = digest
	l.mu.Lock()
	l.classes[name] = t
	l.digests[name] = digest
	l.mu.Unlock()
	l.arena.Track(t)
	stringpool.GetStringIndex(name)

	if globals.GetGlobalRef().TraceClass {
		trace.Trace("classloader: defined " + name + " in " + l.Name)
	}
	return t, nil
}

// resolveSuperclassChain loads name's superclass (and, transitively, its
// ancestors) before returning, the way jchevm's loadAclass: loop does,
// so a Type's Super pointer is always itself fully linked.
func (l *Loader) resolveSuperclassChain(parsed *classfile.Parsed) (*Type, error) {
	if parsed.SuperClass == 0 {
		return nil, nil // only java/lang/Object has no superclass
	}
	superEntry := parsed.ConstantPool[parsed.SuperClass]
	superName := parsed.ConstantPool[superEntry.NameIndex].Utf8
	super, err := l.LoadByNameOnly(superName)
	if err != nil {
		return nil, excnames.NewVMError(excnames.NoClassDefFoundError, superName)
	}
	return super, nil
}

func (l *Loader) resolveInterfaces(parsed *classfile.Parsed) ([]*Type, error) {
	ifaces := make([]*Type, 0, len(parsed.Interfaces))
	for _, idx := range parsed.Interfaces {
		entry := parsed.ConstantPool[idx]
		name := parsed.ConstantPool[entry.NameIndex].Utf8
		iface, err := l.LoadByNameOnly(name)
		if err != nil {
			return nil, excnames.NewVMError(excnames.NoClassDefFoundError, name)
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

// checkDefiningLoaderReachable reports whether defining is resolving
// itself or one of its ancestors on the Parent delegation chain.
// Derive and the loaders do not call it: a type returned for a name is
// accepted whichever loader defined it, and no NoClassDefFoundError is
// raised for an unreachable defining loader.
func checkDefiningLoaderReachable(resolving *Loader, defining *Loader) bool {
	for cur := resolving; cur != nil; cur = cur.Parent {
		if cur == defining {
			return true
		}
	}
	return false
}
