/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"testing"

	"corevm/internal/classfile"
	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/opcodes"
)

func methodWithCode(code []byte, maxStack uint16) *classloader.Method {
	return &classloader.Method{
		Code: &classfile.CodeAttr{MaxStack: maxStack, MaxLocals: 4, Code: code},
	}
}

func TestVerifyStackDepthAcceptsWellFormedMethod(t *testing.T) {
	// iload_0, iload_1, iadd, ireturn: never exceeds depth 2.
	code := []byte{byte(opcodes.ILOAD_0), byte(opcodes.ILOAD_1), byte(opcodes.IADD), byte(opcodes.IRETURN)}
	if err := VerifyStackDepth(methodWithCode(code, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyStackDepthRejectsOverflow(t *testing.T) {
	// Three consecutive pushes against a declared max_stack of 2.
	code := []byte{
		byte(opcodes.ICONST_1), byte(opcodes.ICONST_1), byte(opcodes.ICONST_1), byte(opcodes.RETURN),
	}
	err := VerifyStackDepth(methodWithCode(code, 2))
	if err == nil {
		t.Fatal("expected a VerifyError for exceeding max_stack")
	}
	if vmErr, ok := err.(*excnames.VMError); !ok || vmErr.Name != excnames.VerifyError {
		t.Fatalf("expected VerifyError, got %v", err)
	}
}

func TestVerifyStackDepthRejectsUnderflow(t *testing.T) {
	// pop with nothing pushed first.
	code := []byte{byte(opcodes.POP), byte(opcodes.RETURN)}
	err := VerifyStackDepth(methodWithCode(code, 4))
	if err == nil {
		t.Fatal("expected a VerifyError for an operand stack underflow")
	}
}

func TestVerifyStackDepthFollowsBranches(t *testing.T) {
	// iconst_0, ifeq -> RETURN (skipping the iconst_1/pop pair),
	// iconst_1, pop, return -- both paths reach RETURN at depth 0.
	code := []byte{
		byte(opcodes.ICONST_0), // pc 0
		byte(opcodes.IFEQ), 0, 5, // pc 1: target = 1 + 5 = 6 (RETURN)
		byte(opcodes.ICONST_1), // pc 4
		byte(opcodes.POP),      // pc 5
		byte(opcodes.RETURN),   // pc 6
	}
	if err := VerifyStackDepth(methodWithCode(code, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyStackDepthSkipsAbstractMethods(t *testing.T) {
	m := &classloader.Method{IsAbstract: true}
	if err := VerifyStackDepth(m); err != nil {
		t.Fatalf("abstract methods have no code to verify: %v", err)
	}
}
