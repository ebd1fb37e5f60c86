package codec

import (
	"bytes"
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It exists so tooling can cross-check manifests against encoding/json.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return ErrTrailingData
	}
	return nil
}

func (JSON) Name() string { return "json" }
