/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Adapted from the teacher's gfunction/javaIoInputStreamReader.go. The
// teacher backs the reader with the host's stdin file descriptor;
// this runtime only wires the stdin case: there is no general
// byte-stream object model, and the InputStream constructor argument
// is accepted but ignored, so every reader reads the host's stdin.
package gfunction

import (
	"bufio"
	"os"
)

const inputStreamReaderClassName = "java/io/InputStreamReader"

var stdinReader = bufio.NewReader(os.Stdin)

func loadIoInputStreamReader() {
	const cls = inputStreamReaderClassName

	MethodSignatures[cls+".<init>(Ljava/io/InputStream;)V"] = GMeth{GFunction: isrInit}
	MethodSignatures[cls+".read()I"] = GMeth{GFunction: isrRead}
	MethodSignatures[cls+".ready()Z"] = GMeth{GFunction: isrReady}
	MethodSignatures[cls+".close()V"] = GMeth{GFunction: isrClose}
}

func isrInit(params []interface{}) (interface{}, error) {
	// Only System.in-backed streams are modeled; the in-param is
	// ignored (every InputStream this runtime constructs for System.in
	// routes through the same os.Stdin reader).
	return nil, nil
}

func isrRead(params []interface{}) (interface{}, error) {
	b, err := stdinReader.ReadByte()
	if err != nil {
		return int64(-1), nil
	}
	return int64(b), nil
}

func isrReady(params []interface{}) (interface{}, error) {
	return javaBool(stdinReader.Buffered() > 0), nil
}

func isrClose(params []interface{}) (interface{}, error) {
	return nil, nil
}
