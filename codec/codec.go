// Package codec encodes dataset metadata documents.
//
// Manifests are small JSON documents written once per dataset and read by
// every later command. Decoding is strict: a document with unknown fields or
// anything after the top-level value is rejected, so a manifest written by an
// incompatible tool never loads with silent zero values.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrTrailingData is returned when a document is followed by another value.
var ErrTrailingData = errors.New("codec: trailing data after document")

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes exactly one document into v, rejecting unknown
	// fields and trailing data.
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for manifests.
var Default Codec = GoJSON{}

// Indent encodes v with c as two-space indented JSON ending in a newline, the
// on-disk form of a manifest.
func Indent(c Codec, v any) ([]byte, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
