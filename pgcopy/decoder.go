package pgcopy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Row is one decoded tuple as raw field contents. A nil field is SQL NULL.
type Row [][]byte

// Decoder reads a binary COPY stream.
type Decoder struct {
	r          *bufio.Reader
	headerDone bool
	flags      uint32
	scratch    [4]byte
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{r: br}
}

// ReadHeader reads and validates the stream header. It is called implicitly
// by the first Next.
func (d *Decoder) ReadHeader() error {
	if d.headerDone {
		return nil
	}
	var sig [len(Signature)]byte
	if _, err := io.ReadFull(d.r, sig[:]); err != nil {
		return fmt.Errorf("pgcopy: read signature: %w", err)
	}
	if sig != Signature {
		return ErrBadSignature
	}
	flags, err := d.uint32()
	if err != nil {
		return err
	}
	if flags&flagOIDs != 0 {
		return fmt.Errorf("%w: tuples with oids are not supported", ErrMalformed)
	}
	extLen, err := d.uint32()
	if err != nil {
		return err
	}
	if _, err := d.r.Discard(int(extLen)); err != nil {
		return fmt.Errorf("pgcopy: skip header extension: %w", noEOF(err))
	}
	d.flags = flags
	d.headerDone = true
	return nil
}

// Next returns the next tuple. It returns io.EOF at the end of the stream,
// which is either the end of input or the -1 trailer.
func (d *Decoder) Next() (Row, error) {
	if err := d.ReadHeader(); err != nil {
		return nil, err
	}

	var cnt [2]byte
	if _, err := io.ReadFull(d.r, cnt[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("pgcopy: read field count: %w", err)
	}
	n := int16(binary.BigEndian.Uint16(cnt[:]))
	if n == -1 {
		return nil, io.EOF
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: field count %d", ErrMalformed, n)
	}

	row := make(Row, n)
	for i := range row {
		l, err := d.uint32()
		if err != nil {
			return nil, err
		}
		size := int32(l)
		if size == -1 {
			continue
		}
		if size < 0 {
			return nil, fmt.Errorf("%w: field %d length %d", ErrMalformed, i, size)
		}
		field := make([]byte, size)
		if _, err := io.ReadFull(d.r, field); err != nil {
			return nil, fmt.Errorf("pgcopy: read field %d: %w", i, noEOF(err))
		}
		row[i] = field
	}
	return row, nil
}

func (d *Decoder) uint32() (uint32, error) {
	if _, err := io.ReadFull(d.r, d.scratch[:]); err != nil {
		return 0, fmt.Errorf("pgcopy: read int32: %w", noEOF(err))
	}
	return binary.BigEndian.Uint32(d.scratch[:]), nil
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// DecodeInt4 decodes an int4 field.
func DecodeInt4(f []byte) (int32, error) {
	if f == nil {
		return 0, ErrNull
	}
	if len(f) != 4 {
		return 0, fmt.Errorf("%w: int4 of %d bytes", ErrMalformed, len(f))
	}
	return int32(binary.BigEndian.Uint32(f)), nil
}

// DecodeVector decodes a vector field.
func DecodeVector(f []byte) ([]float32, error) {
	if f == nil {
		return nil, ErrNull
	}
	if len(f) < 4 {
		return nil, fmt.Errorf("%w: vector of %d bytes", ErrMalformed, len(f))
	}
	dim := int(binary.BigEndian.Uint16(f[0:2]))
	if want := 4 + 4*dim; len(f) != want {
		return nil, fmt.Errorf("%w: vector of dim %d has %d bytes, want %d", ErrMalformed, dim, len(f), want)
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.BigEndian.Uint32(f[4+4*i:]))
	}
	return v, nil
}

// DecodeInt4Array decodes a one-dimensional int4[] field without NULLs.
// An array with zero dimensions decodes to an empty slice.
func DecodeInt4Array(f []byte) ([]int32, error) {
	if f == nil {
		return nil, ErrNull
	}
	r := bytes.NewReader(f)
	var hdr struct {
		NDim    int32
		HasNull int32
		OID     uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: array header: %w", ErrMalformed, err)
	}
	if hdr.OID != OIDInt4 {
		return nil, fmt.Errorf("%w: array element oid %d", ErrMalformed, hdr.OID)
	}
	if hdr.HasNull != 0 {
		return nil, fmt.Errorf("%w: array contains NULLs", ErrNull)
	}
	if hdr.NDim == 0 {
		if r.Len() != 0 {
			return nil, fmt.Errorf("%w: trailing bytes after empty array", ErrMalformed)
		}
		return []int32{}, nil
	}
	if hdr.NDim != 1 {
		return nil, fmt.Errorf("%w: %d-dimensional array", ErrMalformed, hdr.NDim)
	}
	var dim struct {
		Length     int32
		LowerBound int32
	}
	if err := binary.Read(r, binary.BigEndian, &dim); err != nil {
		return nil, fmt.Errorf("%w: array dimension: %w", ErrMalformed, err)
	}
	if dim.Length < 0 || int64(r.Len()) != 8*int64(dim.Length) {
		return nil, fmt.Errorf("%w: array of %d elements has %d payload bytes", ErrMalformed, dim.Length, r.Len())
	}
	out := make([]int32, dim.Length)
	rest := f[len(f)-r.Len():]
	for i := range out {
		elem := rest[8*i:]
		size := int32(binary.BigEndian.Uint32(elem))
		if size != 4 {
			return nil, fmt.Errorf("%w: array element %d of %d bytes", ErrMalformed, i, size)
		}
		out[i] = int32(binary.BigEndian.Uint32(elem[4:]))
	}
	return out, nil
}

// DecodeTuple converts a two- or three-field row into a Tuple.
func DecodeTuple(row Row) (Tuple, error) {
	if len(row) != 2 && len(row) != 3 {
		return Tuple{}, fmt.Errorf("%w: %d fields", ErrFieldCount, len(row))
	}
	var (
		t   Tuple
		err error
	)
	if t.Index, err = DecodeInt4(row[0]); err != nil {
		return Tuple{}, fmt.Errorf("index: %w", err)
	}
	if t.Embedding, err = DecodeVector(row[1]); err != nil {
		return Tuple{}, fmt.Errorf("embedding: %w", err)
	}
	if len(row) == 3 {
		if t.Answer, err = DecodeInt4Array(row[2]); err != nil {
			return Tuple{}, fmt.Errorf("answer: %w", err)
		}
	}
	return t, nil
}
