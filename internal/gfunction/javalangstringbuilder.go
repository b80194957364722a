/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Adapted from the teacher's gfunction/javaLangStringBuilder.go. Much
// smaller than the teacher's table: StringBuilder's append overloads
// differ only in argument type, and this runtime's interpreter already
// resolves overloads by descriptor, so each Java overload gets its own
// MethodSignatures entry the same way the teacher's does, each backed
// by its own small Go function over the shared sbValue/sbSetValue
// accessors.
package gfunction

import (
	"strconv"
	"strings"

	"corevm/internal/excnames"
	"corevm/internal/object"
	"corevm/internal/types"
)

const stringBuilderClassName = "java/lang/StringBuilder"

func loadLangStringBuilder() {
	const cls = stringBuilderClassName

	MethodSignatures[cls+".<init>()V"] = GMeth{GFunction: sbInit}
	MethodSignatures[cls+".<init>(Ljava/lang/String;)V"] = GMeth{GFunction: sbInitFromString}
	MethodSignatures[cls+".<init>(I)V"] = GMeth{GFunction: sbInit}

	MethodSignatures[cls+".append(Ljava/lang/String;)Ljava/lang/StringBuilder;"] = GMeth{GFunction: sbAppendString}
	MethodSignatures[cls+".append(I)Ljava/lang/StringBuilder;"] = GMeth{GFunction: sbAppendInt}
	MethodSignatures[cls+".append(J)Ljava/lang/StringBuilder;"] = GMeth{GFunction: sbAppendLong}
	MethodSignatures[cls+".append(C)Ljava/lang/StringBuilder;"] = GMeth{GFunction: sbAppendChar}
	MethodSignatures[cls+".append(Z)Ljava/lang/StringBuilder;"] = GMeth{GFunction: sbAppendBool}
	MethodSignatures[cls+".append(D)Ljava/lang/StringBuilder;"] = GMeth{GFunction: sbAppendDouble}

	MethodSignatures[cls+".length()I"] = GMeth{GFunction: sbLength}
	MethodSignatures[cls+".charAt(I)C"] = GMeth{GFunction: sbCharAt}
	MethodSignatures[cls+".reverse()Ljava/lang/StringBuilder;"] = GMeth{GFunction: sbReverse}
	MethodSignatures[cls+".toString()Ljava/lang/String;"] = GMeth{GFunction: sbToString}
	MethodSignatures[cls+".setLength(I)V"] = GMeth{GFunction: sbSetLength}
}

func sbValue(obj *object.Object) string {
	f, ok := obj.FieldTable["value"]
	if !ok {
		return ""
	}
	s, _ := f.Fvalue.(string)
	return s
}

func sbSetValue(obj *object.Object, s string) {
	obj.AddField("value", &object.Field{Ftype: "Ljava/lang/String;", Fvalue: s})
}

func sbInit(params []interface{}) (interface{}, error) {
	sbSetValue(params[0].(*object.Object), "")
	return nil, nil
}

func sbInitFromString(params []interface{}) (interface{}, error) {
	s, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	sbSetValue(params[0].(*object.Object), s)
	return nil, nil
}

func sbAppendString(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	s, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	sbSetValue(recv, sbValue(recv)+s)
	return recv, nil
}

func sbAppendInt(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	sbSetValue(recv, sbValue(recv)+strconv.FormatInt(params[1].(int64), 10))
	return recv, nil
}

func sbAppendLong(params []interface{}) (interface{}, error) {
	return sbAppendInt(params)
}

func sbAppendChar(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	sbSetValue(recv, sbValue(recv)+string(rune(params[1].(int64))))
	return recv, nil
}

func sbAppendBool(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	word := "false"
	if params[1].(int64) == types.JavaBoolTrue {
		word = "true"
	}
	sbSetValue(recv, sbValue(recv)+word)
	return recv, nil
}

func sbAppendDouble(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	v, _ := params[1].(float64)
	sbSetValue(recv, sbValue(recv)+strconv.FormatFloat(v, 'g', -1, 64))
	return recv, nil
}

func sbLength(params []interface{}) (interface{}, error) {
	return int64(len(sbValue(params[0].(*object.Object)))), nil
}

func sbCharAt(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	s := sbValue(recv)
	idx := int(params[1].(int64))
	if err := boundsCheck(idx, len(s)); err != nil {
		return nil, err
	}
	return int64(s[idx]), nil
}

func sbReverse(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	r := []rune(sbValue(recv))
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	sbSetValue(recv, string(r))
	return recv, nil
}

func sbSetLength(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	n := int(params[1].(int64))
	if n < 0 {
		return nil, excnames.NewVMError(excnames.IndexOutOfBoundsException, strconv.Itoa(n))
	}
	s := sbValue(recv)
	if n <= len(s) {
		sbSetValue(recv, s[:n])
		return nil, nil
	}
	sbSetValue(recv, s+strings.Repeat("\x00", n-len(s)))
	return nil, nil
}
