/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Adapted from the teacher's gfunction/javaLangThread.go. The teacher
// links a java/lang/Thread object to its host OS thread through a
// native "eetop" field; this runtime plays the same trick to link a
// Thread object to the thread.ExecThread that actually runs its
// run() method, since internal/thread has no notion of a Java-level
// mirror object of its own.
package gfunction

import (
	"strconv"
	"time"

	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/frames"
	"corevm/internal/object"
	"corevm/internal/thread"
	"corevm/internal/types"
)

func loadLangThread() {
	const cls = "java/lang/Thread"

	MethodSignatures[cls+".<init>()V"] = GMeth{GFunction: threadInit}
	MethodSignatures[cls+".<init>(Ljava/lang/String;)V"] = GMeth{GFunction: threadInitNamed}
	MethodSignatures[cls+".start()V"] = GMeth{GFunction: threadStart}
	MethodSignatures[cls+".run()V"] = GMeth{GFunction: threadRunNoop}
	MethodSignatures[cls+".join()V"] = GMeth{GFunction: trapFunction}
	MethodSignatures[cls+".isAlive()Z"] = GMeth{GFunction: threadIsAlive}
	MethodSignatures[cls+".getName()Ljava/lang/String;"] = GMeth{GFunction: threadGetName}
	MethodSignatures[cls+".setName(Ljava/lang/String;)V"] = GMeth{GFunction: threadSetName}
	MethodSignatures[cls+".setDaemon(Z)V"] = GMeth{GFunction: threadSetDaemon}
	MethodSignatures[cls+".isDaemon()Z"] = GMeth{GFunction: threadIsDaemon}
	MethodSignatures[cls+".interrupt()V"] = GMeth{GFunction: threadInterrupt}
	MethodSignatures[cls+".isInterrupted()Z"] = GMeth{GFunction: threadIsInterrupted}
	MethodSignatures[cls+".sleep(J)V"] = GMeth{GFunction: threadSleep}
}

// eetop is the Java-visible field name the teacher's Thread model
// uses for the native-thread linkage; stored here as the ExecThread's
// ID rather than a raw pointer, since Go has no stable object address
// to stash.
const eetopField = "eetop"

func threadExec(obj *object.Object) (*thread.ExecThread, bool) {
	f, ok := obj.FieldTable[eetopField]
	if !ok {
		return nil, false
	}
	id, ok := f.Fvalue.(int64)
	if !ok {
		return nil, false
	}
	return thread.Find(uint32(id))
}

func threadInit(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	recv.AddField("name", &object.Field{Ftype: "Ljava/lang/String;", Fvalue: newJavaString("Thread-0")})
	recv.AddField(eetopField, &object.Field{Ftype: "J", Fvalue: int64(0)})
	return nil, nil
}

func threadInitNamed(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	name, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	recv.AddField("name", &object.Field{Ftype: "Ljava/lang/String;", Fvalue: newJavaString(name)})
	recv.AddField(eetopField, &object.Field{Ftype: "J", Fvalue: int64(0)})
	return nil, nil
}

// threadStart spawns a goroutine-backed ExecThread and trampolines
// into the receiver's resolved run() method, the way spec.md §4.8's
// thread creation hands a fresh frame stack to a new OS thread. This
// runtime has no OS-thread-per-Java-thread requirement (a goroutine
// already gives Go-runtime-scheduled concurrency), so one goroutine
// per start() is the idiomatic substitute.
func threadStart(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	if recv.Klass == nil {
		return nil, excnames.NewVMError(excnames.NullPointerException, "")
	}
	typ := findTypeByName(*recv.Klass)
	if typ == nil {
		return nil, excnames.NewVMError(excnames.NoSuchMethodError, "run")
	}
	m := typ.ResolveMethod("run", "()V")
	if m == nil {
		return nil, nil // no overridden run() and no Runnable target: nothing to do
	}
	t := thread.New(recv.ToString())
	thread.Register(t)
	recv.AddField(eetopField, &object.Field{Ftype: "J", Fvalue: int64(t.ID)})
	go func() {
		defer thread.Unregister(t)
		_, _ = frames.Trampoline(t.Frames, m, nil, map[int]interface{}{0: recv})
	}()
	return nil, nil
}

func threadRunNoop(params []interface{}) (interface{}, error) {
	return nil, nil
}

func threadIsAlive(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	t, ok := threadExec(recv)
	if !ok {
		return javaBool(false), nil
	}
	return javaBool(t.Status() != thread.StatusDead), nil
}

func threadGetName(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	f, ok := recv.FieldTable["name"]
	if !ok {
		return newJavaString(""), nil
	}
	return f.Fvalue, nil
}

func threadSetName(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	name, err := asString(params[1])
	if err != nil {
		return nil, err
	}
	recv.AddField("name", &object.Field{Ftype: "Ljava/lang/String;", Fvalue: newJavaString(name)})
	return nil, nil
}

func threadSetDaemon(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	recv.AddField("daemon", &object.Field{Ftype: "Z", Fvalue: params[1]})
	if t, ok := threadExec(recv); ok {
		t.Daemon = params[1].(int64) == types.JavaBoolTrue
	}
	return nil, nil
}

func threadIsDaemon(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	f, ok := recv.FieldTable["daemon"]
	if !ok {
		return javaBool(false), nil
	}
	return f.Fvalue, nil
}

func threadInterrupt(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	if t, ok := threadExec(recv); ok {
		t.Interrupt()
	}
	return nil, nil
}

func threadIsInterrupted(params []interface{}) (interface{}, error) {
	recv := params[0].(*object.Object)
	t, ok := threadExec(recv)
	if !ok {
		return javaBool(false), nil
	}
	return javaBool(t.IsInterrupted()), nil
}

func threadSleep(params []interface{}) (interface{}, error) {
	millis := params[0].(int64)
	if millis < 0 {
		return nil, excnames.NewVMError(excnames.IllegalArgumentException, "timeout value is negative: "+strconv.FormatInt(millis, 10))
	}
	time.Sleep(time.Duration(millis) * time.Millisecond)
	return nil, nil
}

// findTypeByName searches every registered loader's derivation arena
// for a Type by internal name, the gfunction-layer analogue of the
// teacher's classloader.MethAreaFetch -- this repo's Loader keys its
// "classes" map only for types defined via raw classfile bytes, so a
// programmatically-constructed Type (as internal/gc's tests do) is
// only visible through Arena().All(), the same reasoning
// internal/gc/roots.go and finalize.go already apply.
func findTypeByName(name string) *classloader.Type {
	for _, l := range classloader.AllLoaders() {
		for _, t := range l.Arena().All() {
			if t.Name == name {
				return t
			}
		}
	}
	return nil
}
