package vecs

import (
	"encoding/binary"
	"io"
)

type flusher interface {
	Flush() error
}

// Writer writes records of element type T to a byte sink.
//
// Writer does no buffering of its own; wrap the sink in a bufio.Writer for file
// output and call Flush when done.
type Writer[T Scalar] struct {
	w       io.Writer
	scratch []byte
}

// NewWriter creates a Writer.
func NewWriter[T Scalar](w io.Writer) *Writer[T] {
	return &Writer[T]{w: w}
}

// Write writes one record. It fails with ErrTooBig if len(rec) cannot be
// represented by the length prefix; nothing is written in that case.
func (w *Writer[T]) Write(rec []T) error {
	if err := checkLength(len(rec)); err != nil {
		return err
	}

	w.scratch = binary.LittleEndian.AppendUint32(w.scratch[:0], uint32(len(rec)))
	if !nativeLittleEndian {
		w.scratch = appendLE(w.scratch, rec)
		return w.write(w.scratch)
	}

	// Zero-copy payload: the host layout is already the container layout.
	if err := w.write(w.scratch); err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	return w.write(asBytes(rec))
}

func (w *Writer[T]) write(p []byte) error {
	if _, err := w.w.Write(p); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// Flush flushes the sink if it buffers.
func (w *Writer[T]) Flush() error {
	if f, ok := w.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return &IOError{Op: "flush", Err: err}
		}
	}
	return nil
}
