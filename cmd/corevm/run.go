/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"os"
	"strings"

	"corevm/internal/classloader"
	"corevm/internal/classpath"
	"corevm/internal/frames"
	"corevm/internal/globals"
	"corevm/internal/interp"
	"corevm/internal/object"
	"corevm/internal/thread"
	"corevm/internal/trace"
)

// runMain boots the three bootstrap loaders against g's resolved
// classpath, loads the requested main class, resolves its
// public static void main(String[]) entry point, and drives it on a
// fresh ExecThread via frames.Trampoline -- the same path
// interp.execInvoke uses for every other method call, so main() sees
// no special casing once it's running.
func runMain(g *globals.Globals, progArgs []string) error {
	if g.StartingClass == "" && g.StartingJar == "" {
		return rootCmd.Help()
	}

	boot := splitNonEmpty(joinClasspath(g.BootClassPathPrepend, g.BootClassPath, g.BootClassPathAppend))
	app := g.AppClassPath
	mainName := g.StartingClass
	progArgs = progArgs[trimLeadingMainArg(g, progArgs):]

	if g.StartingJar != "" {
		arc, err := classpath.Open(g.StartingJar)
		if err != nil {
			return fmt.Errorf("corevm: opening %s: %w", g.StartingJar, err)
		}
		defer arc.Close()
		mainName = strings.ReplaceAll(arc.MainClass(), ".", "/")
		app = append([]string{g.StartingJar}, app...)
		if mainName == "" {
			return fmt.Errorf("corevm: %s has no Main-Class manifest entry", g.StartingJar)
		}
	}

	classloader.Init(boot, nil, app)

	mainClass, err := classloader.App.LoadByNameOnly(mainName)
	if err != nil {
		return fmt.Errorf("corevm: loading %s: %w", mainName, err)
	}
	mainMethod := mainClass.ResolveMethod("main", "([Ljava/lang/String;)V")
	if mainMethod == nil {
		return fmt.Errorf("corevm: %s has no main([Ljava/lang/String;)V", mainName)
	}

	argsArray, err := interp.NewArray("Ljava/lang/String;", len(progArgs))
	if err != nil {
		return fmt.Errorf("corevm: building args array: %w", err)
	}
	for i, a := range progArgs {
		if err := interp.ArraySet(argsArray, i, object.StringObjectFromJavaByteArray(object.JavaByteArrayFromGoString(a))); err != nil {
			return err
		}
	}

	th := thread.New("main")
	thread.Register(th)
	defer thread.Unregister(th)

	trace.Tracef("starting %s.main", mainName)
	_, err = frames.Trampoline(th.Frames, mainMethod, make([]int64, 1), map[int]interface{}{0: argsArray})
	if err != nil {
		return fmt.Errorf("corevm: uncaught exception in %s.main: %w", mainName, err)
	}
	return nil
}

// joinClasspath assembles java.boot.class.path.prepend, .path and
// .append into a single ordered list the way the JDK's own bootstrap
// loader concatenates them.
func joinClasspath(prepend, base, trailing string) string {
	var parts []string
	for _, p := range []string{prepend, base, trailing} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, string(os.PathListSeparator))
}

// trimLeadingMainArg reports how many of progArgs to skip: when
// StartingClass came from a bare positional argument (not -jar), that
// same argument is still args[0] and must not also be forwarded to the
// Java program as args[0].
func trimLeadingMainArg(g *globals.Globals, progArgs []string) int {
	if g.StartingJar == "" && len(progArgs) > 0 && progArgs[0] == g.StartingClass {
		return 1
	}
	return 0
}
