package bwav

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedChunk is returned when a chunk or header does not follow its
	// binary layout.
	ErrMalformedChunk = errors.New("malformed chunk")
	// ErrUnsupportedFormat is returned for well formed files this package
	// can't represent, such as compressed codecs or a non-WAVE form type.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrSizeMismatch is returned when a size does not fit the field that
	// must hold it.
	ErrSizeMismatch = errors.New("size mismatch")
	// ErrTruncated is returned when the source ends before a declared size.
	ErrTruncated = errors.New("truncated")
	// ErrChunkNotFound is returned by metadata accessors when the chunk is absent.
	ErrChunkNotFound = errors.New("chunk not found")
	// ErrWriterSealed is returned by any Writer call made after Close.
	ErrWriterSealed = errors.New("writer is sealed")
)

// IOError wraps a failure of the underlying source or destination.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioErr(op string, err error) error {
	if err == nil {
		return nil
	}

	return &IOError{Op: op, Err: err}
}
