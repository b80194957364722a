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

	"corevm/internal/globals"
	"corevm/internal/trace"
	"corevm/internal/util"
)

const versionString = "corevm VM v.0.1.0"

// getEnvArgs collects the three JVM environment variables a real java
// launcher honors (JAVA_TOOL_OPTIONS, _JAVA_OPTIONS, JDK_JAVA_OPTIONS)
// and joins whatever is set with a single space, in that precedence
// order, the same contract the teacher's cli_test.go asserts against.
func getEnvArgs() string {
	var parts []string
	for _, name := range []string{"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS", "JDK_JAVA_OPTIONS"} {
		if v := os.Getenv(name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// showVersion writes the one-line version banner to stderr, the way a
// real java launcher responds to -version.
func showVersion() {
	fmt.Fprintln(os.Stderr, versionString)
}

// showCopyright writes the copyright notice to stdout.
func showCopyright() {
	fmt.Fprintln(os.Stdout, "corevm VM Copyright (c) 2024 corevm authors. All rights reserved.")
}

// applySizeProperty parses a K/M/G-suffixed size property and assigns
// it through set, reporting a trace.Error (not a hard exit) on a
// malformed value so one bad -D doesn't abort an otherwise valid run
// before Globals.StrictJDK even gets consulted.
func applySizeProperty(name, val string, set func(int64)) {
	n, err := util.ParseSize(val)
	if err != nil {
		trace.Errorf("%s: %v", name, err)
		return
	}
	set(n)
}

// applyProperty maps one -Dkey=value system property onto the running
// Globals instance, spec.md §6's property table.
func applyProperty(g *globals.Globals, key, val string) {
	switch key {
	case "java.boot.class.path":
		g.BootClassPath = val
	case "java.boot.class.path.prepend":
		g.BootClassPathPrepend = val
	case "java.boot.class.path.append":
		g.BootClassPathAppend = val
	case "jc.stack.minimum":
		applySizeProperty(key, val, func(n int64) { g.StackMinimum = n })
	case "jc.stack.maximum":
		applySizeProperty(key, val, func(n int64) { g.StackMaximum = n })
	case "jc.stack.default":
		applySizeProperty(key, val, func(n int64) { g.StackDefault = n })
	case "jc.java.stack.size":
		applySizeProperty(key, val, func(n int64) { g.JavaStackSize = n })
	case "jc.heap.size":
		applySizeProperty(key, val, func(n int64) { g.HeapSize = n })
	case "jc.heap.granularity":
		applySizeProperty(key, val, func(n int64) { g.HeapGranularity = n })
	case "jc.loader.size":
		applySizeProperty(key, val, func(n int64) { g.LoaderArenaSize = n })
	default:
		if tag, ok := strings.CutPrefix(key, "jc.verbose."); ok {
			trace.EnableTag(tag)
			g.TraceClass = g.TraceClass || tag == "class"
			g.TraceCloadi = g.TraceCloadi || tag == "cloadi"
			return
		}
		trace.Warning("unrecognized system property: " + key)
	}
}

// parseDProperties splits a "-Dkey=value" flag slice and applies each
// to g in order, later entries on the command line winning over
// earlier ones and over the JVM environment variables getEnvArgs folds
// in first.
func parseDProperties(g *globals.Globals, defs []string) {
	for _, d := range defs {
		key, val, ok := strings.Cut(d, "=")
		if !ok {
			trace.Warning("malformed -D property, expected key=value: " + d)
			continue
		}
		applyProperty(g, key, val)
	}
}
