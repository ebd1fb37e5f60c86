package codec

import (
	"bytes"

	gojson "github.com/goccy/go-json"
)

// GoJSON is a JSON codec backed by github.com/goccy/go-json.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (GoJSON) Unmarshal(data []byte, v any) error {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return ErrTrailingData
	}
	return nil
}

func (GoJSON) Name() string { return "go-json" }
