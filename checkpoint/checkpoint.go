// Package checkpoint decorates errors with caller information, resulting in
// something similar to a stack trace. Every error attached to a checkpoint
// stays visible to errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

// From wraps an error in a new checkpoint carrying the caller position.
// It returns nil if err is nil.
func From(err error) error {
	// io.EOF must be returned as io.EOF directly,
	// see https://github.com/golang/go/issues/39155
	if err == io.EOF {
		return io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return io.ErrUnexpectedEOF
	}
	if err == nil {
		return nil
	}

	_, file, line, ok := runtime.Caller(1)
	return &checkpoint{
		err:      err,
		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

// Wrap adds a checkpoint on top of prev which additionally references err.
// It returns nil if prev is nil. This allows predefined sentinel errors
// to be attached to a cause:
//
//	var ErrSomethingWentWrong = errors.New("a very bad error")
//
//	func someFunction() error {
//		err := somethingThatMayFail()
//		return checkpoint.Wrap(err, ErrSomethingWentWrong)
//	}
//
// Callers can then match either error using errors.Is.
func Wrap(prev, err error) error {
	if prev == io.EOF {
		return io.EOF
	}
	if prev == nil {
		return nil
	}

	_, file, line, ok := runtime.Caller(1)
	return &checkpoint{
		err:      err,
		prev:     prev,
		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

func (e *checkpoint) Error() string {
	prevErrString := ""
	if e.prev != nil {
		prevErrString = e.prev.Error()
		if _, ok := e.prev.(*checkpoint); !ok {
			prevErrString = "File: unknown\n\t" + strings.ReplaceAll(prevErrString, "\n", "\n\t")
		}
	}

	if e.callerOk {
		return fmt.Sprintf("File: %s:%d\n\t%v\n%v", e.file, e.line, e.err, prevErrString)
	}
	return fmt.Sprintf("File: unknown\n\t%v\n%v", e.err, prevErrString)
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return errors.As(e.err, target)
}
