/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"path/filepath"
	"testing"
)

func TestObjectToString1(t *testing.T) {
	obj := MakeEmptyObject()
	klassType := filepath.FromSlash("java/lang/madeUpClass")
	obj.Klass = &klassType

	obj.AddField("myFloat", &Field{Ftype: "F", Fvalue: 1.0})
	obj.AddField("myDouble", &Field{Ftype: "D", Fvalue: 2.0})
	obj.AddField("myInt", &Field{Ftype: "I", Fvalue: 42})
	obj.AddField("myLong", &Field{Ftype: "J", Fvalue: int64(42)})
	obj.AddField("myShort", &Field{Ftype: "S", Fvalue: 42})
	obj.AddField("myByte", &Field{Ftype: "B", Fvalue: 0x61})
	obj.AddField("myStaticTrue", &Field{Ftype: "Z", Fvalue: true, IsStatic: true})
	obj.AddField("myFalse", &Field{Ftype: "Z", Fvalue: false})
	obj.AddField("myChar", &Field{Ftype: "C", Fvalue: 'C'})
	obj.AddField("myString", &Field{Ftype: "Ljava/lang/String;", Fvalue: "Hello, Unka Andoo !"})

	str := obj.ToString()
	if len(str) == 0 {
		t.Errorf("Expected non-empty string from ToString(), got empty string")
	}
	if !contains(str, "madeUpClass") {
		t.Errorf("expected class name in output, got: %s", str)
	}
}

func TestObjectToStringNil(t *testing.T) {
	var obj *Object
	if obj.ToString() != "null" {
		t.Errorf("expected 'null' for nil object, got %q", obj.ToString())
	}
}

func TestAddFieldTracksReferences(t *testing.T) {
	obj := MakeEmptyObject()
	obj.AddField("count", &Field{Ftype: "I", Fvalue: 1})
	obj.AddField("name", &Field{Ftype: "Ljava/lang/String;", Fvalue: "x"})
	obj.AddField("data", &Field{Ftype: "[B", Fvalue: []byte{1}})

	if len(obj.RefFields) != 2 {
		t.Fatalf("expected 2 reference fields tracked, got %d: %v", len(obj.RefFields), obj.RefFields)
	}

	// re-adding the same ref field must not duplicate the tracking entry
	obj.AddField("name", &Field{Ftype: "Ljava/lang/String;", Fvalue: "y"})
	if len(obj.RefFields) != 2 {
		t.Fatalf("expected re-add not to duplicate ref tracking, got %d", len(obj.RefFields))
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
