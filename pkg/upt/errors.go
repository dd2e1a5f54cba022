package upt

import (
	"errors"
	"fmt"
)

// ErrorKind represents different categories of errors
type ErrorKind int

const (
	ErrKindArchiveUnavailable ErrorKind = iota
	ErrKindDownload
	ErrKindFileAccess
	ErrKindUnsupportedAlgorithm
	ErrKindInvalidPackageName
	ErrKindUnhandledFrontend
	ErrKindUnknownFrontend
	ErrKindUnknownBackend
	ErrKindNoFrontends
	ErrKindNoBackends
	ErrKindInvalidPackage
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case ErrKindArchiveUnavailable:
		return "ArchiveUnavailable"
	case ErrKindDownload:
		return "Download"
	case ErrKindFileAccess:
		return "FileAccess"
	case ErrKindUnsupportedAlgorithm:
		return "UnsupportedAlgorithm"
	case ErrKindInvalidPackageName:
		return "InvalidPackageName"
	case ErrKindUnhandledFrontend:
		return "UnhandledFrontend"
	case ErrKindUnknownFrontend:
		return "UnknownFrontend"
	case ErrKindUnknownBackend:
		return "UnknownBackend"
	case ErrKindNoFrontends:
		return "NoFrontends"
	case ErrKindNoBackends:
		return "NoBackends"
	case ErrKindInvalidPackage:
		return "InvalidPackage"
	default:
		return "Unknown"
	}
}

// ErrArchiveUnavailable is returned by Package.GetArchive when no archive
// of the requested type exists.
var ErrArchiveUnavailable = &Error{Kind: ErrKindArchiveUnavailable}

// Error is the error type returned by the core and by plugins.
type Error struct {
	Kind ErrorKind
	// Package is the package name or archive URL the error is about, if any
	Package string
	// Message replaces the default rendering when set
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind == ErrKindArchiveUnavailable && e.Err == nil {
		return "No such archive could be found"
	}
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrArchiveUnavailable) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// InvalidPackageNameError is returned by a frontend that cannot find the
// requested package upstream.
func InvalidPackageNameError(frontend, name string) error {
	return &Error{
		Kind:    ErrKindInvalidPackageName,
		Package: name,
		Message: fmt.Sprintf("The %s frontend could not find a package named %s", frontend, name),
	}
}

// UnhandledFrontendError is returned by a backend that does not know how to
// package software coming from the given frontend.
func UnhandledFrontendError(backend, frontend string) error {
	return &Error{
		Kind:    ErrKindUnhandledFrontend,
		Message: fmt.Sprintf("The %s backend does not handle packages coming from the %s frontend", backend, frontend),
	}
}
