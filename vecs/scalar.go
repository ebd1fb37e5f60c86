package vecs

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Scalar is the closed set of element types a container file may hold.
type Scalar interface {
	uint8 | int32 | float32
}

// Width returns the encoded size of one T in bytes.
func Width[T Scalar]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// nativeLittleEndian reports whether the in-memory layout of the scalars already
// matches the container byte order, which enables zero-copy payload I/O.
var nativeLittleEndian = func() bool {
	var one uint16 = 0x0001
	return *(*byte)(unsafe.Pointer(&one)) == 1
}()

// asBytes reinterprets s as raw memory. The result aliases s.
func asBytes[T Scalar](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*Width[T]())
}

// appendLE appends the little-endian encoding of s to dst.
func appendLE[T Scalar](dst []byte, s []T) []byte {
	if nativeLittleEndian {
		return append(dst, asBytes(s)...)
	}
	switch v := any(s).(type) {
	case []uint8:
		dst = append(dst, v...)
	case []int32:
		for _, x := range v {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(x))
		}
	case []float32:
		for _, x := range v {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(x))
		}
	}
	return dst
}

// fromLE converts s in place from little-endian memory to host order.
// It is a no-op on little-endian hosts.
func fromLE[T Scalar](s []T) {
	if nativeLittleEndian {
		return
	}
	switch v := any(s).(type) {
	case []int32:
		b := asBytes(v)
		for i := range v {
			v[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
		}
	case []float32:
		b := asBytes(v)
		for i := range v {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
	}
}

// MaxLength is the largest record length the int32 prefix can carry.
const MaxLength = math.MaxInt32 - 1

func checkLength(n int) error {
	if n > MaxLength {
		return &TooBigError{Length: n}
	}
	return nil
}

// AppendRecord appends the framed encoding of rec (length prefix and payload)
// to dst.
func AppendRecord[T Scalar](dst []byte, rec []T) ([]byte, error) {
	if err := checkLength(len(rec)); err != nil {
		return dst, err
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(rec)))
	return appendLE(dst, rec), nil
}

// RecordSize returns the framed size in bytes of a record with n elements.
func RecordSize[T Scalar](n int) int64 {
	return 4 + int64(n)*int64(Width[T]())
}
