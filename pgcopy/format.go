package pgcopy

import (
	"errors"
	"math"
)

// Signature starts every binary COPY stream.
var Signature = [11]byte{'P', 'G', 'C', 'O', 'P', 'Y', '\n', 0xff, '\r', '\n', 0}

const (
	// HeaderSize is the size of the stream header without extension payload.
	HeaderSize = len(Signature) + 4 + 4

	// OIDInt4 is the type oid of PostgreSQL's integer (int4).
	OIDInt4 = 23

	// MaxVectorDim is the largest dimension the vector wire format can carry.
	MaxVectorDim = math.MaxInt16

	// flagOIDs is header flag bit 16: tuples carry an oid field.
	flagOIDs = 1 << 16
)

var (
	// ErrVectorTooLong is returned for vectors with more than MaxVectorDim elements.
	ErrVectorTooLong = errors.New("pgcopy: vector too long")

	// ErrFieldTooLong is returned when a field's content exceeds math.MaxInt32 bytes.
	ErrFieldTooLong = errors.New("pgcopy: field too long")

	// ErrArrayTooLong is returned for arrays with more than math.MaxInt32 elements.
	ErrArrayTooLong = errors.New("pgcopy: array too long")

	// ErrFieldCount is returned when a tuple ends with a different number of
	// fields than it declared.
	ErrFieldCount = errors.New("pgcopy: field count mismatch")

	// ErrNoTuple is returned when a field is written outside a tuple.
	ErrNoTuple = errors.New("pgcopy: no tuple in progress")

	// ErrBadSignature is returned when a stream does not start with Signature.
	ErrBadSignature = errors.New("pgcopy: bad signature")

	// ErrMalformed is returned for structurally invalid streams or fields.
	ErrMalformed = errors.New("pgcopy: malformed data")

	// ErrNull is returned when a NULL field is decoded as a value.
	ErrNull = errors.New("pgcopy: unexpected NULL")
)

// Tuple is one destination row: an int4 index, a vector embedding, and for
// answer-carrying tables an int4[] of neighbor ids.
//
// A nil Answer encodes a two-column row; a non-nil Answer, even an empty one,
// encodes three columns.
type Tuple struct {
	Index     int32
	Embedding []float32
	Answer    []int32
}

// NumFields returns the number of columns the tuple encodes to.
func (t Tuple) NumFields() int {
	if t.Answer != nil {
		return 3
	}
	return 2
}
