/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Adapted from the teacher's gfunction/javaUtilHashMap.go. The teacher
// backs HashMap with a Go map[interface{}]interface{} stashed in a
// field the Java side never sees directly; this runtime stashes a Go
// slice of key/value entries instead and finds a key by a linear scan
// with keyEqual, since *object.Object isn't itself a valid Go map key
// for value-equality lookups the way a boxed Integer/String needs.
package gfunction

import (
	"corevm/internal/excnames"
	"corevm/internal/object"
	"corevm/internal/types"
)

const hashMapClassName = "java/util/HashMap"

// mapEntry is one HashMap slot: the original key object and its value.
type mapEntry struct {
	key   interface{}
	value interface{}
}

func loadUtilHashMap() {
	const cls = hashMapClassName

	MethodSignatures[cls+".<init>()V"] = GMeth{GFunction: hashMapInit}
	MethodSignatures[cls+".<init>(I)V"] = GMeth{GFunction: hashMapInit}
	MethodSignatures[cls+".put(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;"] = GMeth{GFunction: hashMapPut}
	MethodSignatures[cls+".get(Ljava/lang/Object;)Ljava/lang/Object;"] = GMeth{GFunction: hashMapGet}
	MethodSignatures[cls+".containsKey(Ljava/lang/Object;)Z"] = GMeth{GFunction: hashMapContainsKey}
	MethodSignatures[cls+".remove(Ljava/lang/Object;)Ljava/lang/Object;"] = GMeth{GFunction: hashMapRemove}
	MethodSignatures[cls+".size()I"] = GMeth{GFunction: hashMapSize}
	MethodSignatures[cls+".isEmpty()Z"] = GMeth{GFunction: hashMapIsEmpty}
	MethodSignatures[cls+".clear()V"] = GMeth{GFunction: hashMapClear}
}

func hashMapInit(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	recv.AddField("entries", &object.Field{Ftype: "[Ljava/lang/Object;", Fvalue: []*mapEntry{}})
	return nil, nil
}

func hashMapEntries(obj *object.Object) ([]*mapEntry, error) {
	f, ok := obj.FieldTable["entries"]
	if !ok {
		return nil, excnames.NewVMError(excnames.NullPointerException, "HashMap not initialized")
	}
	entries, _ := f.Fvalue.([]*mapEntry)
	return entries, nil
}

func hashMapSetEntries(obj *object.Object, entries []*mapEntry) {
	obj.AddField("entries", &object.Field{Ftype: "[Ljava/lang/Object;", Fvalue: entries})
}

// keyEqual mirrors Java's key-comparison convention for the key types
// this runtime can box: Strings by value, everything else (including
// unmodeled user types) by reference identity.
func keyEqual(a, b interface{}) bool {
	ao, aok := a.(*object.Object)
	bo, bok := b.(*object.Object)
	if aok && bok {
		if ao != nil && bo != nil && ao.KlassName == types.StringPoolStringIndex && bo.KlassName == types.StringPoolStringIndex {
			as, _ := asString(ao)
			bs, _ := asString(bo)
			return as == bs
		}
		return ao == bo
	}
	return a == b
}

func hashMapPut(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	entries, err := hashMapEntries(recv)
	if err != nil {
		return nil, err
	}
	key, val := params[1], params[2]
	for _, e := range entries {
		if keyEqual(e.key, key) {
			old := e.value
			e.value = val
			return old, nil
		}
	}
	hashMapSetEntries(recv, append(entries, &mapEntry{key: key, value: val}))
	return nil, nil
}

func hashMapGet(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	entries, err := hashMapEntries(recv)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if keyEqual(e.key, params[1]) {
			return e.value, nil
		}
	}
	return nil, nil
}

func hashMapContainsKey(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	entries, err := hashMapEntries(recv)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if keyEqual(e.key, params[1]) {
			return javaBool(true), nil
		}
	}
	return javaBool(false), nil
}

func hashMapRemove(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	entries, err := hashMapEntries(recv)
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		if keyEqual(e.key, params[1]) {
			hashMapSetEntries(recv, append(entries[:i], entries[i+1:]...))
			return e.value, nil
		}
	}
	return nil, nil
}

func hashMapSize(params []interface{}) (interface{}, error) {
	entries, err := hashMapEntries(params[0].(*object.Object))
	if err != nil {
		return nil, err
	}
	return int64(len(entries)), nil
}

func hashMapIsEmpty(params []interface{}) (interface{}, error) {
	entries, err := hashMapEntries(params[0].(*object.Object))
	if err != nil {
		return nil, err
	}
	return javaBool(len(entries) == 0), nil
}

func hashMapClear(params []interface{}) (interface{}, error) {
	hashMapSetEntries(params[0].(*object.Object), nil)
	return nil, nil
}
