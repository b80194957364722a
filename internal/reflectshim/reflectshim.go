/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package reflectshim is spec.md §6's reflection projection:
// classloader.Type viewed the way java.lang.Class/Field/Method need
// (name, modifiers, member lists) plus the access check
// Field.get/Method.invoke perform before crossing into a private
// member. No java.lang.reflect object model is built here, and none
// exists elsewhere: internal/gfunction has no Class/Field/Method
// mirror, and no other package imports this one.
package reflectshim

import (
	"corevm/internal/classloader"
	"corevm/internal/excnames"
)

// ClassView is the reflection-facing projection of a Type: its name,
// its declared (not inherited) member lists, and enough of its
// AccessFlags to answer isInterface/isEnum/getModifiers.
type ClassView struct {
	Name       string
	Super      string
	Interfaces []string
	Fields     []FieldView
	Methods    []MethodView
	Access     classloader.AccessFlags
}

type FieldView struct {
	Name       string
	Descriptor string
	IsStatic   bool
}

type MethodView struct {
	Name       string
	Descriptor string
	Access     classloader.AccessFlags
}

// Reflect projects t into its read-only ClassView.
func Reflect(t *classloader.Type) ClassView {
	v := ClassView{Name: t.Name, Access: t.Access}
	if t.Super != nil {
		v.Super = t.Super.Name
	}
	for _, i := range t.Ifaces {
		v.Interfaces = append(v.Interfaces, i.Name)
	}
	for _, f := range t.Fields {
		v.Fields = append(v.Fields, FieldView{Name: f.Name, Descriptor: f.Descriptor, IsStatic: f.IsStatic})
	}
	for _, m := range t.Methods {
		v.Methods = append(v.Methods, MethodView{Name: m.Name, Descriptor: m.Descriptor, Access: m.AccessFlags})
	}
	return v
}

// CanInvoke implements the access check java.lang.reflect.Method.invoke
// performs before calling a non-public method: the caller must either
// be the declaring type itself, a subtype of it (protected access), or
// the method must be public. This runtime's FieldSlot carries no
// per-field AccessFlags yet (only classloader.Type itself does, via
// its own Access), and this package has no field access check at all;
// the gap against JVMS 5.4.4 is noted in DESIGN.md.
func CanInvoke(caller, declaring *classloader.Type, m *classloader.Method) error {
	if m.AccessFlags.Public {
		return nil
	}
	if caller == declaring {
		return nil
	}
	if caller != nil && declaring != nil && caller.IsSubtypeOf(declaring) {
		return nil
	}
	return excnames.NewVMError(excnames.IllegalAccessError, declaring.Name+"."+m.Name+m.Descriptor)
}
