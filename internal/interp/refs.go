/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package interp is the bytecode interpreter of spec.md §4.6: a
// threaded-dispatch loop over internal/opcodes, the stack-depth
// verifier that link time runs once per method, and the trap-table
// exception search. Grounded on the teacher's run.go-style frame
// execution (as driven from jvm/initializerBlock.go) and on
// classloader/codeCheck_test.go's CheckCodeValidity contract for the
// verifier.
package interp

import (
	"corevm/internal/classfile"
	"corevm/internal/classloader"
	"corevm/internal/excnames"
)

// resolvedRef is a constant-pool Fieldref/Methodref/InterfaceMethodref
// entry resolved to its owning class name, member name, and descriptor.
type resolvedRef struct {
	ClassName  string
	Name       string
	Descriptor string
	Interface  bool
}

func cpUtf8(cp *classfile.Parsed, idx uint16) (string, bool) {
	if cp == nil || int(idx) >= len(cp.ConstantPool) {
		return "", false
	}
	e := cp.ConstantPool[idx]
	if e.Tag != classfile.TagUtf8 {
		return "", false
	}
	return e.Utf8, true
}

func cpClassName(cp *classfile.Parsed, idx uint16) (string, bool) {
	if cp == nil || int(idx) >= len(cp.ConstantPool) {
		return "", false
	}
	e := cp.ConstantPool[idx]
	if e.Tag != classfile.TagClass {
		return "", false
	}
	return cpUtf8(cp, e.NameIndex)
}

// resolveRef decodes a Fieldref/Methodref/InterfaceMethodref CP entry
// at idx into its owning class, member name, and descriptor.
func resolveRef(cp *classfile.Parsed, idx uint16) (resolvedRef, error) {
	var r resolvedRef
	if cp == nil || int(idx) >= len(cp.ConstantPool) {
		return r, excnames.NewVMError(excnames.NoSuchFieldError, "constant pool index out of range")
	}
	e := cp.ConstantPool[idx]
	switch e.Tag {
	case classfile.TagFieldref, classfile.TagMethodref, classfile.TagInterfaceMethodref:
		r.Interface = e.Tag == classfile.TagInterfaceMethodref
	default:
		return r, excnames.NewVMError(excnames.ClassFormatError, "expected a ref constant")
	}
	className, ok := cpClassName(cp, e.ClassIndex)
	if !ok {
		return r, excnames.NewVMError(excnames.ClassFormatError, "bad class index in ref")
	}
	r.ClassName = className
	if int(e.NameAndTypeIndex) >= len(cp.ConstantPool) {
		return r, excnames.NewVMError(excnames.ClassFormatError, "bad name-and-type index")
	}
	nt := cp.ConstantPool[e.NameAndTypeIndex]
	if nt.Tag != classfile.TagNameAndType {
		return r, excnames.NewVMError(excnames.ClassFormatError, "expected NameAndType")
	}
	name, ok := cpUtf8(cp, nt.NameIndex)
	if !ok {
		return r, excnames.NewVMError(excnames.ClassFormatError, "bad name in NameAndType")
	}
	desc, ok := cpUtf8(cp, nt.DescriptorIndex)
	if !ok {
		return r, excnames.NewVMError(excnames.ClassFormatError, "bad descriptor in NameAndType")
	}
	r.Name = name
	r.Descriptor = desc
	return r, nil
}

// resolveRefClass resolves a ref's owning class through the defining
// type's own loader, matching the parent-delegation path every other
// class reference in the core takes.
func resolveRefClass(owner *classloader.Type, r resolvedRef) (*classloader.Type, error) {
	if owner == nil || owner.Loader == nil {
		return nil, excnames.NewVMError(excnames.NoClassDefFoundError, r.ClassName)
	}
	return owner.Loader.LoadByNameOnly(r.ClassName)
}

