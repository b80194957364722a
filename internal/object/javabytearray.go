/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Adapted from the teacher's object/javaByteArray.go: Go<->Java byte
// array conversions and the string-pool bridge a Latin-1-backed String
// needs. Kept nearly verbatim in shape (the conversions themselves are
// unchanged by the domain) but rehomed onto this repo's stringpool/types
// packages and extended with equality helpers (JavaByteArrayEquals,
// JavaByteArrayEqualsIgnoreCase).
package object

import (
	"strings"
	"unicode"

	"corevm/internal/stringpool"
	"corevm/internal/types"
)

func GoStringFromJavaByteArray(jbarr []types.JavaByte) string {
	var sb strings.Builder
	for _, b := range jbarr {
		sb.WriteByte(byte(b))
	}
	return sb.String()
}

func JavaByteArrayFromGoString(str string) []types.JavaByte {
	jbarr := make([]types.JavaByte, len(str))
	for i := 0; i < len(str); i++ {
		jbarr[i] = types.JavaByte(str[i])
	}
	return jbarr
}

func JavaByteArrayFromGoByteArray(gbarr []byte) []types.JavaByte {
	jbarr := make([]types.JavaByte, len(gbarr))
	for i, b := range gbarr {
		jbarr[i] = types.JavaByte(b)
	}
	return jbarr
}

func GoByteArrayFromJavaByteArray(jbarr []types.JavaByte) []byte {
	gbarr := make([]byte, len(jbarr))
	for i, b := range jbarr {
		gbarr[i] = byte(b)
	}
	return gbarr
}

// JavaByteArrayFromStringObject extracts the backing byte array from a
// String object (the object model stores Java strings Latin-1-style in
// a "value" field, mirroring String's internal byte[] representation).
func JavaByteArrayFromStringObject(obj *Object) []types.JavaByte {
	if obj == nil || obj.KlassName != types.StringPoolStringIndex {
		return nil
	}
	f, ok := obj.FieldTable["value"]
	if !ok {
		return nil
	}
	arr, _ := f.Fvalue.([]types.JavaByte)
	return arr
}

// StringObjectFromJavaByteArray builds a String object around bytes.
func StringObjectFromJavaByteArray(bytes []types.JavaByte) *Object {
	newStr := NewStringObject()
	newStr.AddField("value", &Field{Ftype: types.ByteArray, Fvalue: bytes})
	return newStr
}

// JavaByteArrayFromStringPoolIndex looks a string up by pool index and
// returns its Java byte-array form, or nil if the index is out of range.
func JavaByteArrayFromStringPoolIndex(index uint32) []types.JavaByte {
	if index < stringpool.GetStringPoolSize() {
		str := *stringpool.GetStringPointer(index)
		return JavaByteArrayFromGoString(str)
	}
	return nil
}

func JavaByteArrayEquals(jbarr1, jbarr2 []types.JavaByte) bool {
	if jbarr1 == nil || jbarr2 == nil {
		return jbarr1 == nil && jbarr2 == nil
	}
	if len(jbarr1) != len(jbarr2) {
		return false
	}
	for i, b := range jbarr1 {
		if b != jbarr2[i] {
			return false
		}
	}
	return true
}

func JavaByteArrayEqualsIgnoreCase(jbarr1, jbarr2 []types.JavaByte) bool {
	if jbarr1 == nil || jbarr2 == nil {
		return jbarr1 == nil && jbarr2 == nil
	}
	if len(jbarr1) != len(jbarr2) {
		return false
	}
	for i, b := range jbarr1 {
		if unicode.ToLower(rune(b)) != unicode.ToLower(rune(jbarr2[i])) {
			return false
		}
	}
	return true
}
