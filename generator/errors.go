package generator

import (
	"fmt"

	"github.com/pkg/errors"
)

// UnsupportedCTypeError reports a C type with no Cangjie mapping.
type UnsupportedCTypeError struct {
	Kind string
}

func (e *UnsupportedCTypeError) Error() string {
	return fmt.Sprintf("unsupported C type %s", e.Kind)
}

// MisalignedBitfieldError reports a bit-field run whose total width is not a
// whole number of bytes.
type MisalignedBitfieldError struct {
	TotalBits int
}

func (e *MisalignedBitfieldError) Error() string {
	return fmt.Sprintf("bit-field run of %d bits is not a multiple of 8", e.TotalBits)
}

// MissingNameError reports an anonymous declaration where a name is needed.
type MissingNameError struct {
	What string
}

func (e *MissingNameError) Error() string {
	return fmt.Sprintf("anonymous %s is not supported", e.What)
}

// NameCollisionError reports two C names that map to the same identifier,
// which keyword renaming can cause.
type NameCollisionError struct {
	Name   string
	First  string
	Second string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("%q and %q both map to %s", e.First, e.Second, e.Name)
}

// DeclError ties an error to the declaration it occurred in.
type DeclError struct {
	Kind string
	Name string
	File string
	Line int
	Err  error
}

func (e *DeclError) Error() string {
	name := e.Name
	if name == "" {
		name = "<anonymous>"
	}
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s %s: %v", e.File, e.Line, e.Kind, name, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, name, e.Err)
}

func (e *DeclError) Unwrap() error { return e.Err }

// recoverable reports whether err can be replaced by a placeholder in the
// output instead of failing the run.
func recoverable(err error) bool {
	var unsupported *UnsupportedCTypeError
	var missing *MissingNameError
	var collision *NameCollisionError
	return errors.As(err, &unsupported) || errors.As(err, &missing) || errors.As(err, &collision)
}
