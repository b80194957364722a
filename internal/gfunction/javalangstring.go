/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Adapted from the teacher's gfunction/javaLangString.go: the
// java/lang/String native-method table. Kept in the teacher's shape
// (one MethodSignatures entry per overload, helper functions named
// after the JDK method they implement) but rehomed onto this repo's
// object/types byte-array string representation via helpers.go.
package gfunction

import (
	"regexp"
	"strconv"
	"strings"

	"corevm/internal/excnames"
	"corevm/internal/object"
	"corevm/internal/types"
)

func loadLangString() {
	const cls = "java/lang/String"

	MethodSignatures[cls+".<init>()V"] = GMeth{GFunction: stringInitEmpty}
	MethodSignatures[cls+".<init>(Ljava/lang/String;)V"] = GMeth{GFunction: stringInitFromString}
	MethodSignatures[cls+".<init>([B)V"] = GMeth{GFunction: stringInitFromBytes}
	MethodSignatures[cls+".<init>([C)V"] = GMeth{GFunction: stringInitFromChars}

	MethodSignatures[cls+".charAt(I)C"] = GMeth{GFunction: stringCharAt}
	MethodSignatures[cls+".length()I"] = GMeth{GFunction: stringLength}
	MethodSignatures[cls+".isEmpty()Z"] = GMeth{GFunction: stringIsEmpty}
	MethodSignatures[cls+".isBlank()Z"] = GMeth{GFunction: stringIsBlank}

	MethodSignatures[cls+".equals(Ljava/lang/Object;)Z"] = GMeth{GFunction: stringEquals}
	MethodSignatures[cls+".equalsIgnoreCase(Ljava/lang/String;)Z"] = GMeth{GFunction: stringEqualsIgnoreCase}
	MethodSignatures[cls+".compareTo(Ljava/lang/String;)I"] = GMeth{GFunction: stringCompareTo}
	MethodSignatures[cls+".compareToIgnoreCase(Ljava/lang/String;)I"] = GMeth{GFunction: stringCompareToIgnoreCase}
	MethodSignatures[cls+".contains(Ljava/lang/CharSequence;)Z"] = GMeth{GFunction: stringContains}
	MethodSignatures[cls+".startsWith(Ljava/lang/String;)Z"] = GMeth{GFunction: stringStartsWith}
	MethodSignatures[cls+".endsWith(Ljava/lang/String;)Z"] = GMeth{GFunction: stringEndsWith}
	MethodSignatures[cls+".indexOf(Ljava/lang/String;)I"] = GMeth{GFunction: stringIndexOf}
	MethodSignatures[cls+".lastIndexOf(Ljava/lang/String;)I"] = GMeth{GFunction: stringLastIndexOf}
	MethodSignatures[cls+".matches(Ljava/lang/String;)Z"] = GMeth{GFunction: stringMatches}

	MethodSignatures[cls+".concat(Ljava/lang/String;)Ljava/lang/String;"] = GMeth{GFunction: stringConcat}
	MethodSignatures[cls+".replace(CC)Ljava/lang/String;"] = GMeth{GFunction: stringReplaceChar}
	MethodSignatures[cls+".repeat(I)Ljava/lang/String;"] = GMeth{GFunction: stringRepeat}
	MethodSignatures[cls+".substring(I)Ljava/lang/String;"] = GMeth{GFunction: substringToEnd}
	MethodSignatures[cls+".substring(II)Ljava/lang/String;"] = GMeth{GFunction: substringRange}
	MethodSignatures[cls+".trim()Ljava/lang/String;"] = GMeth{GFunction: stringTrim}
	MethodSignatures[cls+".strip()Ljava/lang/String;"] = GMeth{GFunction: stringTrim}
	MethodSignatures[cls+".toLowerCase()Ljava/lang/String;"] = GMeth{GFunction: stringToLowerCase}
	MethodSignatures[cls+".toUpperCase()Ljava/lang/String;"] = GMeth{GFunction: stringToUpperCase}
	MethodSignatures[cls+".split(Ljava/lang/String;)[Ljava/lang/String;"] = GMeth{GFunction: stringSplit}
	MethodSignatures[cls+".toCharArray()[C"] = GMeth{GFunction: stringToCharArray}
	MethodSignatures[cls+".getBytes()[B"] = GMeth{GFunction: stringGetBytes}
	MethodSignatures[cls+".hashCode()I"] = GMeth{GFunction: stringHashCode}
	MethodSignatures[cls+".toString()Ljava/lang/String;"] = GMeth{GFunction: stringToString}

	MethodSignatures[cls+".valueOf(Z)Ljava/lang/String;"] = GMeth{GFunction: valueOfBoolean}
	MethodSignatures[cls+".valueOf(C)Ljava/lang/String;"] = GMeth{GFunction: valueOfChar}
	MethodSignatures[cls+".valueOf(I)Ljava/lang/String;"] = GMeth{GFunction: valueOfLong}
	MethodSignatures[cls+".valueOf(J)Ljava/lang/String;"] = GMeth{GFunction: valueOfLong}
	MethodSignatures[cls+".valueOf(D)Ljava/lang/String;"] = GMeth{GFunction: valueOfDouble}
	MethodSignatures[cls+".valueOf(Ljava/lang/Object;)Ljava/lang/String;"] = GMeth{GFunction: valueOfObject}

	// Deprecated platform-charset byte<->String constructors; the JDK
	// keeps them around for compatibility, this runtime doesn't model
	// a charset registry so they trap rather than silently mis-decode.
	MethodSignatures[cls+".<init>([BLjava/lang/String;)V"] = GMeth{GFunction: trapDeprecated}
}

func stringInitEmpty(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	setJavaString(recv, "")
	return nil, nil
}

func stringInitFromString(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	s, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	setJavaString(recv, s)
	return nil, nil
}

func stringInitFromBytes(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	arr, ok := params[1].(*object.Object)
	if !ok || arr == nil {
		return nil, excnames.NewVMError(excnames.NullPointerException, "")
	}
	bytes, err := goBytesFromArrayObject(arr)
	if err != nil {
		return nil, err
	}
	setJavaString(recv, string(bytes))
	return nil, nil
}

func stringInitFromChars(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	arr, ok := params[1].(*object.Object)
	if !ok || arr == nil {
		return nil, excnames.NewVMError(excnames.NullPointerException, "")
	}
	runes, err := goRunesFromArrayObject(arr)
	if err != nil {
		return nil, err
	}
	setJavaString(recv, string(runes))
	return nil, nil
}

func stringCharAt(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	idx := int(params[1].(int64))
	if err := boundsCheck(idx, len(s)); err != nil {
		return nil, err
	}
	return int64(s[idx]), nil
}

func stringLength(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	return int64(len(s)), nil
}

func stringIsEmpty(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	return javaBool(len(s) == 0), nil
}

func stringIsBlank(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	return javaBool(strings.TrimSpace(s) == ""), nil
}

func stringEquals(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	other, ok := params[1].(*object.Object)
	if !ok || other == nil || other.KlassName != types.StringPoolStringIndex {
		return javaBool(false), nil
	}
	o, err := asString(other)
	if err != nil {
		return nil, err
	}
	return javaBool(s == o), nil
}

func stringEqualsIgnoreCase(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	o, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	return javaBool(strings.EqualFold(s, o)), nil
}

func stringCompareTo(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	o, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	return int64(strings.Compare(s, o)), nil
}

func stringCompareToIgnoreCase(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	o, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	return int64(strings.Compare(strings.ToLower(s), strings.ToLower(o))), nil
}

func stringContains(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	o, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	return javaBool(strings.Contains(s, o)), nil
}

func stringStartsWith(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	o, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	return javaBool(strings.HasPrefix(s, o)), nil
}

func stringEndsWith(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	o, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	return javaBool(strings.HasSuffix(s, o)), nil
}

func stringIndexOf(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	o, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	return int64(strings.Index(s, o)), nil
}

func stringLastIndexOf(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	o, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	return int64(strings.LastIndex(s, o)), nil
}

func stringMatches(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	pattern, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	re, rerr := regexp.Compile("^(?:" + pattern + ")$")
	if rerr != nil {
		return nil, excnames.NewVMError(excnames.PatternSyntaxException, rerr.Error())
	}
	return javaBool(re.MatchString(s)), nil
}

func stringConcat(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	o, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	return newJavaString(s + o), nil
}

func stringReplaceChar(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	oldCh := byte(params[1].(int64))
	newCh := byte(params[2].(int64))
	return newJavaString(strings.ReplaceAll(s, string(oldCh), string(newCh))), nil
}

func stringRepeat(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	n := int(params[1].(int64))
	if n < 0 {
		return nil, excnames.NewVMError(excnames.IllegalArgumentException, "count is negative: "+strconv.Itoa(n))
	}
	return newJavaString(strings.Repeat(s, n)), nil
}

func substringToEnd(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	begin := int(params[1].(int64))
	if begin < 0 || begin > len(s) {
		return nil, excnames.NewVMError(excnames.StringIndexOutOfBoundsException, "begin "+strconv.Itoa(begin))
	}
	return newJavaString(s[begin:]), nil
}

func substringRange(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	begin := int(params[1].(int64))
	end := int(params[2].(int64))
	if begin < 0 || end > len(s) || begin > end {
		return nil, excnames.NewVMError(excnames.StringIndexOutOfBoundsException,
			"begin "+strconv.Itoa(begin)+", end "+strconv.Itoa(end)+", length "+strconv.Itoa(len(s)))
	}
	return newJavaString(s[begin:end]), nil
}

func stringTrim(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	return newJavaString(strings.TrimSpace(s)), nil
}

func stringToLowerCase(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	return newJavaString(strings.ToLower(s)), nil
}

func stringToUpperCase(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	return newJavaString(strings.ToUpper(s)), nil
}

func stringSplit(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	pattern, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	re, rerr := regexp.Compile(pattern)
	if rerr != nil {
		return nil, excnames.NewVMError(excnames.PatternSyntaxException, rerr.Error())
	}
	parts := re.Split(s, -1)
	return stringSliceToRefArray(parts)
}

func stringToCharArray(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	return runesToCharArray([]rune(s))
}

func stringGetBytes(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	return byteSliceToByteArray([]byte(s))
}

func stringHashCode(params []interface{}) (interface{}, error) {
	s, err := asString(params[0])
	if err != nil {
		return nil, err
	}
	var h int32
	for i := 0; i < len(s); i++ {
		h = 31*h + int32(s[i])
	}
	return int64(h), nil
}

func stringToString(params []interface{}) (interface{}, error) {
	return params[0], nil
}

func valueOfBoolean(params []interface{}) (interface{}, error) {
	if params[0].(int64) == types.JavaBoolTrue {
		return newJavaString("true"), nil
	}
	return newJavaString("false"), nil
}

func valueOfChar(params []interface{}) (interface{}, error) {
	return newJavaString(string(rune(params[0].(int64)))), nil
}

func valueOfLong(params []interface{}) (interface{}, error) {
	return newJavaString(strconv.FormatInt(params[0].(int64), 10)), nil
}

func valueOfDouble(params []interface{}) (interface{}, error) {
	v, _ := params[0].(float64)
	return newJavaString(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

func valueOfObject(params []interface{}) (interface{}, error) {
	obj, ok := params[0].(*object.Object)
	if !ok || obj == nil {
		return newJavaString("null"), nil
	}
	return newJavaString(obj.ToString()), nil
}

// goBytesFromArrayObject/goRunesFromArrayObject read an interp-style
// array object's "elements" field back into Go slices, the inverse of
// helpers.go's populator.
func goBytesFromArrayObject(arr *object.Object) ([]byte, error) {
	f, ok := arr.FieldTable["elements"]
	if !ok {
		return nil, nil
	}
	elems, ok := f.Fvalue.([]interface{})
	if !ok {
		return nil, excnames.NewVMError(excnames.IllegalArgumentException, "not a byte array")
	}
	out := make([]byte, len(elems))
	for i, v := range elems {
		out[i] = byte(v.(int64))
	}
	return out, nil
}

func goRunesFromArrayObject(arr *object.Object) ([]rune, error) {
	f, ok := arr.FieldTable["elements"]
	if !ok {
		return nil, nil
	}
	elems, ok := f.Fvalue.([]interface{})
	if !ok {
		return nil, excnames.NewVMError(excnames.IllegalArgumentException, "not a char array")
	}
	out := make([]rune, len(elems))
	for i, v := range elems {
		out[i] = rune(v.(int64))
	}
	return out, nil
}
