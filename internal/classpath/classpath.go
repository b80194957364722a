/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classpath resolves class names to raw bytes across directory
// entries and jar archives, the way the teacher's classloader.go's
// LoadClassFromFile/LoadClassFromJar pair does, but factored out of the
// classloader so each classloader instance can cache its own opened
// archives (the teacher's own TODO: "I think this should be moved to
// classpath when we make it a thing").
package classpath

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Archive is one opened jar file; entries are indexed by name once at
// open time so repeated lookups don't re-scan the central directory.
type Archive struct {
	path      string
	mu        sync.Mutex
	zr        *zip.ReadCloser
	index     map[string]*zip.File
	mainClass string
}

// Open reads a jar's central directory and its manifest's Main-Class
// header, if present.
func Open(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("classpath: opening %s: %w", path, err)
	}
	a := &Archive{path: path, zr: zr, index: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.index[f.Name] = f
	}
	if mf, ok := a.index["META-INF/MANIFEST.MF"]; ok {
		a.mainClass = readMainClass(mf)
	}
	return a, nil
}

func readMainClass(f *zip.File) string {
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "Main-Class:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Main-Class:"))
		}
	}
	return ""
}

// MainClass returns the jar's Main-Class manifest header, or "" if none.
func (a *Archive) MainClass() string { return a.mainClass }

// ReadClass returns the raw bytes of name (a fully qualified class name
// using '/' separators, without the .class suffix) from the archive.
func (a *Archive) ReadClass(name string) ([]byte, bool, error) {
	entry := name + ".class"
	f, ok := a.index[entry]
	if !ok {
		return nil, false, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	rc, err := f.Open()
	if err != nil {
		return nil, true, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

func (a *Archive) Close() error { return a.zr.Close() }

// Path is an ordered list of directory and jar locations, the Go
// equivalent of java.class.path split on the OS path separator.
type Path struct {
	mu       sync.Mutex
	entries  []string
	archives map[string]*Archive
}

// NewPath builds a Path from an ordered list of directory/jar locations,
// converting each to the host's path-separator convention.
func NewPath(entries []string) *Path {
	converted := make([]string, len(entries))
	for i, e := range entries {
		converted[i] = filepath.FromSlash(e)
	}
	return &Path{entries: converted, archives: make(map[string]*Archive)}
}

// ReadClass resolves name (using '/' separators, no .class suffix)
// against every entry in order, opening jars lazily and caching them
// for subsequent lookups (mirrors the teacher's Classloader.Archives
// cache, now owned by the Path rather than the Classloader struct).
func (p *Path) ReadClass(name string) ([]byte, string, error) {
	relPath := filepath.FromSlash(name) + ".class"
	for _, entry := range p.entries {
		fi, err := os.Stat(entry)
		if err != nil {
			continue
		}
		if fi.IsDir() {
			full := filepath.Join(entry, relPath)
			data, err := os.ReadFile(full)
			if err == nil {
				return data, full, nil
			}
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry), ".jar") {
			arc, err := p.archiveFor(entry)
			if err != nil {
				continue
			}
			data, found, err := arc.ReadClass(name)
			if err != nil {
				return nil, "", err
			}
			if found {
				return data, entry + "!" + name, nil
			}
		}
	}
	return nil, "", fmt.Errorf("classpath: class %s not found on path", name)
}

func (p *Path) archiveFor(path string) (*Archive, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.archives[path]; ok {
		return a, nil
	}
	a, err := Open(path)
	if err != nil {
		return nil, err
	}
	p.archives[path] = a
	return a, nil
}

// Close releases every archive this Path has opened.
func (p *Path) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.archives {
		a.Close()
	}
}
