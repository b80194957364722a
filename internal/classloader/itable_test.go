/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "testing"

func TestBuildIMethodTableFindsImplementation(t *testing.T) {
	iface := &Type{Name: "Runnable"}
	iface.Methods = []*Method{{Name: "run", Descriptor: "()V", Owner: iface}}
	iface.MethodIndex = map[string]int{"run:()V": 0}

	impl := &Method{Name: "run", Descriptor: "()V"}
	t1 := &Type{
		Name:    "Task",
		Ifaces:  []*Type{iface},
		Methods: []*Method{impl},
	}
	t1.MethodIndex = map[string]int{"run:()V": 0}

	buildIMethodTable(t1)

	found := t1.LookupInterfaceMethod("run", "()V")
	if found != impl {
		t.Fatalf("expected to resolve Runnable.run to Task's implementation, got %v", found)
	}
	if t1.LookupInterfaceMethod("missing", "()V") != nil {
		t.Fatal("expected a miss for an unimplemented method to return nil")
	}
}

func TestBuildInstanceOfTableCoversSuperclassesAndInterfaces(t *testing.T) {
	iface := &Type{Name: "Comparable"}
	object := &Type{Name: "java/lang/Object"}
	base := &Type{Name: "Base", Super: object}
	derived := &Type{Name: "Derived", Super: base, Ifaces: []*Type{iface}}

	buildInstanceOfTable(derived)

	if !derived.IsInstance(base) {
		t.Fatal("expected Derived to be an instance of Base")
	}
	if !derived.IsInstance(object) {
		t.Fatal("expected Derived to be an instance of Object")
	}
	if !derived.IsInstance(iface) {
		t.Fatal("expected Derived to be an instance of Comparable")
	}
	unrelated := &Type{Name: "Unrelated"}
	if derived.IsInstance(unrelated) {
		t.Fatal("expected Derived to not be an instance of an unrelated type")
	}
}
