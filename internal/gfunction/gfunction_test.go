/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"testing"

	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/object"
)

func mustString(t *testing.T, v interface{}) string {
	t.Helper()
	s, err := asString(v)
	if err != nil {
		t.Fatalf("asString: %v", err)
	}
	return s
}

func TestStringCharAtAndConcat(t *testing.T) {
	s := newJavaString("hello")
	v, err := stringCharAt([]interface{}{s, int64(1)})
	if err != nil {
		t.Fatalf("charAt: %v", err)
	}
	if v.(int64) != int64('e') {
		t.Fatalf("charAt(1) = %v, want 'e'", v)
	}

	out, err := stringConcat([]interface{}{s, newJavaString(" world")})
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if got := mustString(t, out); got != "hello world" {
		t.Fatalf("concat = %q, want %q", got, "hello world")
	}
}

func TestStringCharAtOutOfBounds(t *testing.T) {
	s := newJavaString("ab")
	_, err := stringCharAt([]interface{}{s, int64(5)})
	vmErr, ok := err.(*excnames.VMError)
	if !ok || vmErr.Name != excnames.StringIndexOutOfBoundsException {
		t.Fatalf("charAt(5) err = %v, want StringIndexOutOfBoundsException", err)
	}
}

func TestStringEqualsAndHashCode(t *testing.T) {
	a := newJavaString("abc")
	b := newJavaString("abc")
	eq, err := stringEquals([]interface{}{a, b})
	if err != nil || eq.(int64) == 0 {
		t.Fatalf("equals(a,b) = %v, %v, want true", eq, err)
	}
	ha, _ := stringHashCode([]interface{}{a})
	hb, _ := stringHashCode([]interface{}{b})
	if ha.(int64) != hb.(int64) {
		t.Fatalf("hashCode mismatch for equal strings: %v vs %v", ha, hb)
	}
}

func TestSubstringRangeValidation(t *testing.T) {
	s := newJavaString("abcdef")
	_, err := substringRange([]interface{}{s, int64(4), int64(2)})
	if err == nil {
		t.Fatal("expected error for begin > end")
	}
	out, err := substringRange([]interface{}{s, int64(1), int64(4)})
	if err != nil {
		t.Fatalf("substring(1,4): %v", err)
	}
	if got := mustString(t, out); got != "bcd" {
		t.Fatalf("substring(1,4) = %q, want %q", got, "bcd")
	}
}

func TestStringBuilderAppendAndReverse(t *testing.T) {
	sb := &object.Object{FieldTable: map[string]*object.Field{}}
	if _, err := sbInit([]interface{}{sb}); err != nil {
		t.Fatalf("sbInit: %v", err)
	}
	if _, err := sbAppendString([]interface{}{sb, newJavaString("abc")}); err != nil {
		t.Fatalf("append string: %v", err)
	}
	if _, err := sbAppendInt([]interface{}{sb, int64(42)}); err != nil {
		t.Fatalf("append int: %v", err)
	}
	if got := sbValue(sb); got != "abc42" {
		t.Fatalf("builder value = %q, want %q", got, "abc42")
	}
	if _, err := sbReverse([]interface{}{sb}); err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if got := sbValue(sb); got != "24cba" {
		t.Fatalf("reversed value = %q, want %q", got, "24cba")
	}
}

func TestHashMapPutGetRemove(t *testing.T) {
	m := &object.Object{FieldTable: map[string]*object.Field{}}
	if _, err := hashMapInit([]interface{}{m}); err != nil {
		t.Fatalf("init: %v", err)
	}
	key := newJavaString("k1")
	if _, err := hashMapPut([]interface{}{m, key, int64(7)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := hashMapGet([]interface{}{m, newJavaString("k1")})
	if err != nil || got.(int64) != 7 {
		t.Fatalf("get = %v, %v, want 7", got, err)
	}
	size, _ := hashMapSize([]interface{}{m})
	if size.(int64) != 1 {
		t.Fatalf("size = %v, want 1", size)
	}
	removed, err := hashMapRemove([]interface{}{m, newJavaString("k1")})
	if err != nil || removed.(int64) != 7 {
		t.Fatalf("remove = %v, %v, want 7", removed, err)
	}
	empty, _ := hashMapIsEmpty([]interface{}{m})
	if empty.(int64) == 0 {
		t.Fatal("expected empty map after remove")
	}
}

// TestRunDispatchesThroughMethodSignatures exercises the
// frames.RunNativeMethod hook this package installs at init, the same
// path execInvoke/Trampoline use for an ACC_NATIVE method.
func TestRunDispatchesThroughMethodSignatures(t *testing.T) {
	owner := &classloader.Type{Name: "java/lang/String"}
	m := &classloader.Method{
		Name:       "length",
		Descriptor: "()I",
		IsNative:   true,
		Owner:      owner,
	}
	result, err := run(m, []interface{}{newJavaString("abcd")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.(int64) != 4 {
		t.Fatalf("length() = %v, want 4", result)
	}
}

func TestRunUnknownSignatureIsUnsatisfiedLink(t *testing.T) {
	owner := &classloader.Type{Name: "java/lang/NoSuchClass"}
	m := &classloader.Method{Name: "bogus", Descriptor: "()V", IsNative: true, Owner: owner}
	_, err := run(m, nil)
	vmErr, ok := err.(*excnames.VMError)
	if !ok || vmErr.Name != excnames.UnsatisfiedLinkError {
		t.Fatalf("err = %v, want UnsatisfiedLinkError", err)
	}
}
