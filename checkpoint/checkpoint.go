// Package checkpoint decorates errors with the location they passed through,
// which results in something similar to a stacktrace across the driver layers.
// Each error kind added to a checkpoint can be checked by errors.Is and retrieved by errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// From wraps an error by a new checkpoint which only adds the caller location.
// It returns nil, if err == nil.
func From(err error) error {
	// io.EOF must be returned as io.EOF directly
	// https://github.com/golang/go/issues/39155
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}

	return newCheckpoint(err, nil)
}

// Wrap adds a checkpoint to cause which is classified by kind.
// Returns nil if cause == nil.
// The classic use is a predefined error kind combined with a lower level cause:
//  var ErrNoSpace = errors.New("no free cluster left")
//
//  func allocate() error {
//  	err := device.WriteBlocks(...)
//  	return checkpoint.Wrap(err, ErrNoSpace)
//  }
// errors.Is then matches ErrNoSpace as well as anything in the cause chain.
// A nil kind only records the location, just like From.
func Wrap(cause, kind error) error {
	if cause == nil || cause == io.EOF {
		return cause
	}

	return newCheckpoint(kind, cause)
}

// New creates a checkpoint for kind without any cause.
// It is used where the driver detects a condition itself instead of receiving it.
func New(kind error) error {
	if kind == nil {
		return nil
	}
	return newCheckpoint(kind, nil)
}

// Fields returns the location of the outermost checkpoint in err as logrus fields.
// It returns nil if err carries no checkpoint.
func Fields(err error) logrus.Fields {
	var cp *checkpoint
	if !errors.As(err, &cp) || !cp.callerOk {
		return nil
	}

	return logrus.Fields{
		"file": cp.file,
		"line": cp.line,
	}
}

func newCheckpoint(kind, cause error) *checkpoint {
	// Skip newCheckpoint and the exported constructor.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		kind:  kind,
		cause: cause,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	kind  error
	cause error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) location() string {
	if e.callerOk {
		return fmt.Sprintf("%s:%d", e.file, e.line)
	}
	return "unknown"
}

func (e *checkpoint) Error() string {
	var b strings.Builder
	b.WriteString(e.location())

	if e.kind != nil {
		b.WriteString(": ")
		b.WriteString(e.kind.Error())
	}

	if e.cause != nil {
		// Nested checkpoints are already formatted, plain errors get indented.
		causeString := e.cause.Error()
		if _, ok := e.cause.(*checkpoint); !ok {
			causeString = strings.ReplaceAll(causeString, "\n", "\n\t")
		}
		b.WriteString("\n\t")
		b.WriteString(causeString)
	}

	return b.String()
}

func (e *checkpoint) Unwrap() error {
	return e.cause
}

func (e *checkpoint) Is(target error) bool {
	return e.kind != nil && errors.Is(e.kind, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return e.kind != nil && errors.As(e.kind, target)
}
