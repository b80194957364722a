/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"os"
	"strings"
	"testing"

	"corevm/internal/globals"
)

func TestGetEnvArgsWhenAbsent(t *testing.T) {
	os.Unsetenv("JAVA_TOOL_OPTIONS")
	os.Unsetenv("_JAVA_OPTIONS")
	os.Unsetenv("JDK_JAVA_OPTIONS")

	if got := getEnvArgs(); got != "" {
		t.Errorf("getEnvArgs() with no env vars set = %q, want empty", got)
	}
}

func TestGetEnvArgsWhenTwoArePresent(t *testing.T) {
	os.Unsetenv("JAVA_TOOL_OPTIONS")
	os.Setenv("_JAVA_OPTIONS", "Hello,")
	os.Setenv("JDK_JAVA_OPTIONS", "corevm!")
	defer os.Unsetenv("_JAVA_OPTIONS")
	defer os.Unsetenv("JDK_JAVA_OPTIONS")

	if got := getEnvArgs(); got != "Hello, corevm!" {
		t.Errorf("getEnvArgs() = %q, want %q", got, "Hello, corevm!")
	}
}

func TestApplyPropertySetsHeapSize(t *testing.T) {
	g := globals.InitGlobals("test")
	applyProperty(g, "jc.heap.size", "256M")
	want := int64(256 * 1024 * 1024)
	if g.HeapSize != want {
		t.Errorf("HeapSize = %d, want %d", g.HeapSize, want)
	}
}

func TestApplyPropertyEnablesVerboseTag(t *testing.T) {
	g := globals.InitGlobals("test")
	applyProperty(g, "jc.verbose.class", "true")
	if !g.TraceClass {
		t.Error("jc.verbose.class should set Globals.TraceClass")
	}
}

func TestApplyPropertyBootClasspath(t *testing.T) {
	g := globals.InitGlobals("test")
	applyProperty(g, "java.boot.class.path", "/opt/lib")
	if g.BootClassPath != "/opt/lib" {
		t.Errorf("BootClassPath = %q, want %q", g.BootClassPath, "/opt/lib")
	}
}

func TestExtractDFlagsIgnoresNonDTokens(t *testing.T) {
	defs := extractDFlags("-Dfoo=bar -Xmx256m -Dbaz=qux")
	if len(defs) != 2 || defs[0] != "foo=bar" || defs[1] != "baz=qux" {
		t.Errorf("extractDFlags = %v, want [foo=bar baz=qux]", defs)
	}
}

func TestParseDPropertiesAppliesEach(t *testing.T) {
	g := globals.InitGlobals("test")
	parseDProperties(g, []string{"jc.heap.granularity=16", "jc.loader.size=1M"})
	if g.HeapGranularity != 16 {
		t.Errorf("HeapGranularity = %d, want 16", g.HeapGranularity)
	}
	if g.LoaderArenaSize != 1024*1024 {
		t.Errorf("LoaderArenaSize = %d, want 1048576", g.LoaderArenaSize)
	}
}

func TestShowVersionWritesBanner(t *testing.T) {
	r, w, _ := os.Pipe()
	old := os.Stderr
	os.Stderr = w
	showVersion()
	w.Close()
	os.Stderr = old

	buf := make([]byte, 256)
	n, _ := r.Read(buf)
	if !strings.Contains(string(buf[:n]), "corevm VM") {
		t.Errorf("showVersion() output = %q, want it to contain %q", string(buf[:n]), "corevm VM")
	}
}
