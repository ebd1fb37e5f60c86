package vecs

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// DefaultBufferSize is the read buffer used when the source is not already a
// *bufio.Reader.
const DefaultBufferSize = 256 * 1024

// Reader reads records of element type T from a buffered byte source.
type Reader[T Scalar] struct {
	r      *bufio.Reader
	header [4]byte
}

// NewReader creates a Reader. If r is a *bufio.Reader it is used directly,
// otherwise it is wrapped in one of DefaultBufferSize bytes.
func NewReader[T Scalar](r io.Reader) *Reader[T] {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, DefaultBufferSize)
	}
	return &Reader[T]{r: br}
}

// Read reads the next record into a freshly allocated slice.
//
// It returns io.EOF when the source is exhausted at a record boundary. An
// empty record is returned as a non-nil, zero-length slice.
func (r *Reader[T]) Read() ([]T, error) {
	return r.ReadInto(nil)
}

// ReadInto reads the next record, reusing buf when its capacity suffices.
// The returned slice aliases buf in that case.
//
// After ErrCorruption or an IOError the stream position is undefined and the
// reader must be abandoned.
func (r *Reader[T]) ReadInto(buf []T) ([]T, error) {
	if _, err := r.r.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &IOError{Op: "read length", Err: err}
	}

	if _, err := io.ReadFull(r.r, r.header[:]); err != nil {
		return nil, &IOError{Op: "read length", Err: unexpected(err)}
	}

	n := int32(binary.LittleEndian.Uint32(r.header[:]))
	if n < 0 {
		return nil, &CorruptionError{Length: n}
	}

	var rec []T
	if buf != nil && cap(buf) >= int(n) {
		rec = buf[:n]
	} else {
		rec = make([]T, n)
	}

	if _, err := io.ReadFull(r.r, asBytes(rec)); err != nil {
		return nil, &IOError{Op: "read payload", Err: unexpected(err)}
	}
	fromLE(rec)

	return rec, nil
}

// unexpected turns a clean EOF inside a record into io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
