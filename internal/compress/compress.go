// Package compress wraps container streams in zstd or lz4 frames.
//
// The algorithm is selected by file suffix so that a dataset written with
// compression can be read back without extra metadata.
package compress

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores container files as is.
	None Type = iota
	// LZ4 uses the lz4 frame format (fast).
	LZ4
	// ZSTD uses the zstd frame format (better ratio).
	ZSTD
)

// ErrUnknownType is returned when parsing an unsupported algorithm name.
var ErrUnknownType = errors.New("compress: unknown type")

// Parse converts a configuration name ("", "none", "lz4", "zstd") to a Type.
func Parse(name string) (Type, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zst":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

func (t Type) String() string {
	switch t {
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Suffix returns the file suffix for t, including the leading dot.
func (t Type) Suffix() string {
	switch t {
	case LZ4:
		return ".lz4"
	case ZSTD:
		return ".zst"
	default:
		return ""
	}
}

// FromName detects the algorithm from a file name suffix.
func FromName(name string) Type {
	switch {
	case strings.HasSuffix(name, ".zst"):
		return ZSTD
	case strings.HasSuffix(name, ".lz4"):
		return LZ4
	default:
		return None
	}
}

// All lists every type, uncompressed first, the order OpenContainer tries suffixes in.
func All() []Type {
	return []Type{None, ZSTD, LZ4}
}

// NewWriter wraps w. Closing the result finishes the frame but does not close w.
func NewWriter(w io.Writer, t Type) (io.WriteCloser, error) {
	switch t {
	case None:
		return nopWriteCloser{w}, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case ZSTD:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
}

// NewReader wraps r. Closing the result releases decoder state but does not
// close r.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	switch t {
	case None:
		return io.NopCloser(r), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case ZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type zstdReadCloser struct {
	dec *zstd.Decoder
}

func (z zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z zstdReadCloser) Close() error {
	z.dec.Close()
	return nil
}
