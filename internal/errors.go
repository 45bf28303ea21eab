package internal

import (
	"errors"
	"fmt"
)

var (
	ErrReentrantWork     = errors.New("recon: Work called from inside a build on the same goroutine")
	ErrDuplicateKey      = errors.New("recon: duplicate key among siblings")
	ErrInvalidElement    = errors.New("recon: invalid element")
	ErrNestedUpdateLimit = errors.New("recon: too many nested updates")
)

// RenderError is an error raised while building a node.
// It is the value handed to a capturing component.
type RenderError struct {
	Path  string
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("recon: render %s: %v", e.Path, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// FatalError reports a build abandoned because no ancestor captured its error.
// The committed tree of the root is left as it was.
type FatalError struct {
	Root  string
	Path  string
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("recon: root %s: uncaught error at %s: %v", e.Root, e.Path, e.Cause)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a value recovered from user code.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func recovered(r any) error {
	return &PanicError{Value: r}
}
