/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excnames is the taxonomy of spec.md §7: the fully qualified
// internal-form names the rest of the core uses when posting an exception
// or error, plus the small classification helpers callers need (is this
// name an Error vs. an Exception, is it a LinkageError, and so on).
package excnames

// Linkage errors (spec.md §7a).
const (
	NoClassDefFoundError         = "java/lang/NoClassDefFoundError"
	LinkageError                 = "java/lang/LinkageError"
	IncompatibleClassChangeError = "java/lang/IncompatibleClassChangeError"
	NoSuchFieldError             = "java/lang/NoSuchFieldError"
	NoSuchMethodError            = "java/lang/NoSuchMethodError"
	ClassCircularityError        = "java/lang/ClassCircularityError"
	ClassFormatError             = "java/lang/ClassFormatError"
	UnsupportedClassVersionError = "java/lang/UnsupportedClassVersionError"
	VerifyError                  = "java/lang/VerifyError"
	AbstractMethodError          = "java/lang/AbstractMethodError"
	IllegalAccessError           = "java/lang/IllegalAccessError"
	UnsatisfiedLinkError         = "java/lang/UnsatisfiedLinkError"
)

// Initialization errors (spec.md §7b).
const (
	ExceptionInInitializerError = "java/lang/ExceptionInInitializerError"
)

// Runtime exceptions produced by the interpreter and signal paths (spec.md §7c).
const (
	NullPointerException           = "java/lang/NullPointerException"
	ArithmeticException            = "java/lang/ArithmeticException"
	ArrayIndexOutOfBoundsException = "java/lang/ArrayIndexOutOfBoundsException"
	ArrayStoreException            = "java/lang/ArrayStoreException"
	ClassCastException             = "java/lang/ClassCastException"
	NegativeArraySizeException     = "java/lang/NegativeArraySizeException"
	StackOverflowError             = "java/lang/StackOverflowError"
	InterruptedException           = "java/lang/InterruptedException"
	ClassNotFoundException         = "java/lang/ClassNotFoundException"
	Throwable                      = "java/lang/Throwable"
)

// Resource exhaustion (spec.md §7d).
const (
	OutOfMemoryError = "java/lang/OutOfMemoryError"
	InternalError    = "java/lang/InternalError"
)

// Library-level exceptions thrown by internal/gfunction's java.lang/
// java.util/java.io native methods. Not part of spec.md §7's core
// taxonomy (which only covers exceptions the bytecode interpreter and
// loader post directly) but needed once a gfunction body validates its
// own arguments the way the java.lang.String/StringBuilder/etc. specs
// require.
const (
	StringIndexOutOfBoundsException = "java/lang/StringIndexOutOfBoundsException"
	IndexOutOfBoundsException       = "java/lang/IndexOutOfBoundsException"
	IllegalArgumentException        = "java/lang/IllegalArgumentException"
	NumberFormatException           = "java/lang/NumberFormatException"
	UnsupportedOperationException   = "java/lang/UnsupportedOperationException"
	PatternSyntaxException          = "java/util/regex/PatternSyntaxException"
	NoSuchElementException          = "java/util/NoSuchElementException"
	ConcurrentModificationException = "java/util/ConcurrentModificationException"
	IOException                     = "java/io/IOException"
)

// Monitor misuse (spec.md §7e).
const (
	IllegalMonitorStateException = "java/lang/IllegalMonitorStateException"
)

// Reflection boundary (spec.md §6).
const (
	InvocationTargetException = "java/lang/reflect/InvocationTargetException"
)

// linkageErrors is used by IsLinkageError below; kept as a set literal so
// adding a new linkage error is a one-line change.
var linkageErrors = map[string]bool{
	NoClassDefFoundError:         true,
	LinkageError:                 true,
	IncompatibleClassChangeError: true,
	NoSuchFieldError:             true,
	NoSuchMethodError:            true,
	ClassCircularityError:        true,
	ClassFormatError:             true,
	UnsupportedClassVersionError: true,
	VerifyError:                  true,
	AbstractMethodError:          true,
	IllegalAccessError:           true,
	UnsatisfiedLinkError:         true,
}

// IsLinkageError reports whether name is one of the JVMS LinkageError
// subtypes this core can throw during loading/linking.
func IsLinkageError(name string) bool {
	return linkageErrors[name]
}

// VMError is a Go error carrying the internal-form exception/error class
// name a JVM-level throw should use. Packages below the frame/thread
// layer (synch, heap, classloader) return these instead of posting a
// Java exception directly, since they don't have access to a thread's
// frame stack to unwind; internal/thread converts a VMError into an
// actual Java-visible throw at the point it crosses back into bytecode.
type VMError struct {
	Name string
	Msg  string
}

func (e *VMError) Error() string {
	if e.Msg == "" {
		return e.Name
	}
	return e.Name + ": " + e.Msg
}

func NewVMError(name, msg string) error {
	return &VMError{Name: name, Msg: msg}
}
