/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package util holds the small cross-cutting helpers the rest of the core
// leans on: platform path conversion (grounded on the teacher's
// util.ConvertToPlatformPathSeparators) and the K/M/G size-suffix parser
// spec.md §6 requires for jc.heap.size and friends.
package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ConvertToPlatformPathSeparators rewrites the JVM's internal '/'-separated
// class names into the host's path separator, so they can be used directly
// as filesystem paths when searching the boot classpath.
func ConvertToPlatformPathSeparators(name string) string {
	if os.PathSeparator == '/' {
		return name
	}
	return strings.ReplaceAll(name, "/", string(os.PathSeparator))
}

// ParseSize parses a size property value such as "512", "64K", "256M", or
// "2G" (spec.md §6) into a byte count. It is case-insensitive on the
// suffix and rejects anything that isn't a non-negative integer followed
// by an optional K/M/G.
func ParseSize(val string) (int64, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, fmt.Errorf("ParseSize: empty value")
	}
	mult := int64(1)
	suffix := val[len(val)-1]
	switch suffix {
	case 'k', 'K':
		mult = 1024
		val = val[:len(val)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		val = val[:len(val)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		val = val[:len(val)-1]
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ParseSize: invalid size %q: %w", val, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("ParseSize: negative size %q", val)
	}
	return n * mult, nil
}

// IsValidModuleName applies a lexical-only check to a JPMS module name:
// dot-separated Java identifiers. It does not attempt readability-graph
// resolution (a non-goal; see SPEC_FULL.md §3).
func IsValidModuleName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
			isDigit := r >= '0' && r <= '9'
			if i == 0 && !isLetter {
				return false
			}
			if i > 0 && !isLetter && !isDigit {
				return false
			}
		}
	}
	return true
}
