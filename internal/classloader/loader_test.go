/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"corevm/internal/classfile"
)

// buildClass assembles a minimal classfile for className, optionally
// extending superName ("" means java/lang/Object, i.e. super_class=0).
func buildClass(t *testing.T, className, superName string) []byte {
	t.Helper()
	var cpUtf8s []string
	add := func(s string) uint16 {
		cpUtf8s = append(cpUtf8s, s)
		return uint16(len(cpUtf8s)) // 1-indexed Utf8 slot
	}
	classNameIdx := add(className)
	var superNameIdx uint16
	if superName != "" {
		superNameIdx = add(superName)
	}

	// constant pool slots: 1..len(cpUtf8s) are Utf8; the next two are
	// TagClass entries pointing at them.
	thisClassEntrySlot := uint16(len(cpUtf8s) + 1)
	var superClassEntrySlot uint16
	if superName != "" {
		superClassEntrySlot = uint16(len(cpUtf8s) + 2)
	}

	cpCount := len(cpUtf8s) + 1 // +1 for the this_class TagClass entry
	if superName != "" {
		cpCount++ // +1 for the super_class TagClass entry
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(61))
	binary.Write(&buf, binary.BigEndian, uint16(cpCount+1)) // count includes unused slot 0

	for _, s := range cpUtf8s {
		buf.WriteByte(classfile.TagUtf8)
		binary.Write(&buf, binary.BigEndian, uint16(len(s)))
		buf.WriteString(s)
	}
	buf.WriteByte(classfile.TagClass)
	binary.Write(&buf, binary.BigEndian, classNameIdx)
	if superName != "" {
		buf.WriteByte(classfile.TagClass)
		binary.Write(&buf, binary.BigEndian, superNameIdx)
	}

	binary.Write(&buf, binary.BigEndian, uint16(0x0021)) // access: PUBLIC|SUPER
	binary.Write(&buf, binary.BigEndian, thisClassEntrySlot)
	binary.Write(&buf, binary.BigEndian, superClassEntrySlot)
	binary.Write(&buf, binary.BigEndian, uint16(0)) // interfaces
	binary.Write(&buf, binary.BigEndian, uint16(0)) // fields
	binary.Write(&buf, binary.BigEndian, uint16(0)) // methods
	binary.Write(&buf, binary.BigEndian, uint16(0)) // attributes
	return buf.Bytes()
}

func writeClassFile(t *testing.T, dir, relPath string, data []byte) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(relPath)+".class")
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadByNameOnlyResolvesSuperclassChain(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, "a/A", buildClass(t, "a/A", ""))
	writeClassFile(t, dir, "a/B", buildClass(t, "a/B", "a/A"))

	Init(nil, nil, []string{dir})

	b, err := App.LoadByNameOnly("a/B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Super == nil || b.Super.Name != "a/A" {
		t.Fatalf("expected B's superclass to be linked to a/A, got %+v", b.Super)
	}
}

func TestLoadByNameOnlyCachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, "a/A", buildClass(t, "a/A", ""))
	Init(nil, nil, []string{dir})

	first, err := App.LoadByNameOnly("a/A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := App.LoadByNameOnly("a/A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("expected the same *Type on repeated loads")
	}
}

func TestLoadByNameOnlyMissingClassIsClassNotFound(t *testing.T) {
	dir := t.TempDir()
	Init(nil, nil, []string{dir})
	if _, err := App.LoadByNameOnly("does/not/Exist"); err == nil {
		t.Fatal("expected an error for a missing class")
	}
}

func TestDelegationChecksParentFirst(t *testing.T) {
	dir := t.TempDir()
	writeClassFile(t, dir, "a/A", buildClass(t, "a/A", ""))
	Init(nil, []string{dir}, []string{dir})

	// load via Extension so it's defined by a parent of App
	if _, err := Extension.LoadByNameOnly("a/A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	viaApp, err := App.LoadByNameOnly("a/A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if viaApp.Loader != Extension {
		t.Fatalf("expected App to delegate to Extension's already-defined Type, got loader %v", viaApp.Loader.Name)
	}
}

func TestCheckDefiningLoaderReachable(t *testing.T) {
	dir := t.TempDir()
	Init(nil, nil, []string{dir})
	user := NewUserLoader("plugin", nil, []string{dir})

	if !checkDefiningLoaderReachable(App, App) {
		t.Fatal("a loader must be reachable from itself")
	}
	if !checkDefiningLoaderReachable(user, App) {
		t.Fatal("App must be reachable from its child user loader")
	}
	if checkDefiningLoaderReachable(App, user) {
		t.Fatal("a parent must not consider an unrelated child loader reachable")
	}
}
