package pgcopy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// DefaultFlushSize is the amount of encoded tuple data buffered before it is
// handed to the underlying writer.
const DefaultFlushSize = 64 * 1024

// Encoder writes a binary COPY stream to an io.Writer.
//
// Tuples are assembled in a scratch buffer and only complete tuples ever reach
// the writer. An Encoder is not safe for concurrent use.
type Encoder struct {
	w         io.Writer
	buf       []byte
	flushSize int

	headerDone bool
	tupleStart int // offset of the open tuple's field count, -1 if none
	declared   int
	fields     int

	rows    int64
	written int64
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:          w,
		buf:        make([]byte, 0, DefaultFlushSize),
		flushSize:  DefaultFlushSize,
		tupleStart: -1,
	}
}

// AppendHeader appends the stream header (signature, zero flags, empty
// extension) to dst.
func AppendHeader(dst []byte) []byte {
	dst = append(dst, Signature[:]...)
	dst = binary.BigEndian.AppendUint32(dst, 0)
	return binary.BigEndian.AppendUint32(dst, 0)
}

// WriteHeader buffers the stream header. It is called implicitly by the first
// BeginTuple and is a no-op afterwards.
func (e *Encoder) WriteHeader() {
	if e.headerDone {
		return
	}
	e.buf = AppendHeader(e.buf)
	e.headerDone = true
}

// BeginTuple starts a tuple of n fields.
func (e *Encoder) BeginTuple(n int) error {
	if e.tupleStart >= 0 {
		return fmt.Errorf("%w: previous tuple not ended", ErrFieldCount)
	}
	if n < 0 || n > math.MaxInt16 {
		return fmt.Errorf("%w: %d fields", ErrFieldCount, n)
	}
	e.WriteHeader()
	e.tupleStart = len(e.buf)
	e.declared = n
	e.fields = 0
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(n))
	return nil
}

// EndTuple closes the open tuple and flushes buffered tuples once they exceed
// the flush size.
func (e *Encoder) EndTuple() error {
	if e.tupleStart < 0 {
		return ErrNoTuple
	}
	if e.fields != e.declared {
		err := fmt.Errorf("%w: declared %d, wrote %d", ErrFieldCount, e.declared, e.fields)
		e.Abort()
		return err
	}
	e.tupleStart = -1
	e.rows++
	if len(e.buf) >= e.flushSize {
		return e.Flush()
	}
	return nil
}

// Abort discards the open tuple, if any. Already completed tuples are kept.
func (e *Encoder) Abort() {
	if e.tupleStart >= 0 {
		e.buf = e.buf[:e.tupleStart]
		e.tupleStart = -1
	}
}

// Flush writes all completed tuples to the underlying writer. The stream
// header is included if no tuple has been written yet.
func (e *Encoder) Flush() error {
	e.WriteHeader()
	end := len(e.buf)
	if e.tupleStart >= 0 {
		end = e.tupleStart
	}
	if end == 0 {
		return nil
	}
	n, err := e.w.Write(e.buf[:end])
	e.written += int64(n)
	if err != nil {
		return err
	}
	e.buf = append(e.buf[:0], e.buf[end:]...)
	if e.tupleStart >= 0 {
		e.tupleStart -= end
	}
	return nil
}

// Rows returns the number of completed tuples.
func (e *Encoder) Rows() int64 { return e.rows }

// BytesWritten returns the number of bytes handed to the underlying writer.
func (e *Encoder) BytesWritten() int64 { return e.written }

// reserve appends a placeholder length prefix and returns its offset.
func (e *Encoder) reserve() (int, error) {
	if e.tupleStart < 0 {
		return 0, ErrNoTuple
	}
	off := len(e.buf)
	e.buf = append(e.buf, 0, 0, 0, 0)
	return off, nil
}

// backpatch overwrites the placeholder at off with the number of bytes
// appended since it was reserved, and counts the field.
func (e *Encoder) backpatch(off int) error {
	n := len(e.buf) - off - 4
	if n > math.MaxInt32 {
		return ErrFieldTooLong
	}
	binary.BigEndian.PutUint32(e.buf[off:], uint32(n))
	e.fields++
	return nil
}

// Int4 writes an int4 field.
func (e *Encoder) Int4(v int32) error {
	off, err := e.reserve()
	if err != nil {
		return err
	}
	e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(v))
	return e.backpatch(off)
}

// Vector writes a vector field.
func (e *Encoder) Vector(v []float32) error {
	if len(v) > MaxVectorDim {
		return fmt.Errorf("%w: %d elements (max %d)", ErrVectorTooLong, len(v), MaxVectorDim)
	}
	off, err := e.reserve()
	if err != nil {
		return err
	}
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(len(v)))
	e.buf = binary.BigEndian.AppendUint16(e.buf, 0)
	for _, x := range v {
		e.buf = binary.BigEndian.AppendUint32(e.buf, math.Float32bits(x))
	}
	return e.backpatch(off)
}

// Int4Array writes a one-dimensional, NULL-free int4[] field.
func (e *Encoder) Int4Array(a []int32) error {
	if len(a) > math.MaxInt32 {
		return ErrArrayTooLong
	}
	off, err := e.reserve()
	if err != nil {
		return err
	}
	e.buf = binary.BigEndian.AppendUint32(e.buf, 1) // ndim
	e.buf = binary.BigEndian.AppendUint32(e.buf, 0) // has_null
	e.buf = binary.BigEndian.AppendUint32(e.buf, OIDInt4)
	e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(a)))
	e.buf = binary.BigEndian.AppendUint32(e.buf, 1) // lower bound
	for _, x := range a {
		e.buf = binary.BigEndian.AppendUint32(e.buf, 4)
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(x))
	}
	return e.backpatch(off)
}

// Encode writes one tuple. On error the partial tuple is discarded.
func (e *Encoder) Encode(t Tuple) error {
	if err := e.BeginTuple(t.NumFields()); err != nil {
		return err
	}
	if err := e.encodeFields(t); err != nil {
		e.Abort()
		return err
	}
	return e.EndTuple()
}

func (e *Encoder) encodeFields(t Tuple) error {
	if err := e.Int4(t.Index); err != nil {
		return err
	}
	if err := e.Vector(t.Embedding); err != nil {
		return err
	}
	if t.Answer != nil {
		return e.Int4Array(t.Answer)
	}
	return nil
}
