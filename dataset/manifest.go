package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/hupe1980/vecload/codec"
)

// File names inside a dataset.
const (
	ManifestName    = "manifest.json"
	TrainName       = "train.fvecs"
	TestName        = "test.fvecs"
	GroundTruthName = "groundtruth.ivecs"
)

var (
	// ErrInvalidManifest is returned for a manifest that does not hold exactly
	// four non-negative integers d, n, m and k.
	ErrInvalidManifest = errors.New("dataset: invalid manifest")

	// ErrNoManifest is returned when a dataset has no manifest, i.e. it does
	// not exist or was never completed.
	ErrNoManifest = errors.New("dataset: manifest not found")
)

// Manifest records the shape of a dataset.
type Manifest struct {
	D int `json:"d"` // dimension
	N int `json:"n"` // train rows
	M int `json:"m"` // test rows
	K int `json:"k"` // neighbors per test row
}

// Validate checks that every field is non-negative. Limits of the database
// column types are checked when a table is loaded.
func (m Manifest) Validate() error {
	if m.D < 0 || m.N < 0 || m.M < 0 || m.K < 0 {
		return fmt.Errorf("%w: negative field in %+v", ErrInvalidManifest, m)
	}
	return nil
}

// Encode renders the manifest as indented JSON.
func (m Manifest) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return codec.Indent(codec.Default, m)
}

// manifestDoc distinguishes missing fields from zero.
type manifestDoc struct {
	D *int64 `json:"d"`
	N *int64 `json:"n"`
	M *int64 `json:"m"`
	K *int64 `json:"k"`
}

// DecodeManifest parses a manifest. Missing, extra or non-integer fields are
// rejected.
func DecodeManifest(data []byte) (Manifest, error) {
	var doc manifestDoc
	if err := codec.Default.Unmarshal(data, &doc); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	const maxInt = int64(^uint(0) >> 1)
	fields := []struct {
		name string
		v    *int64
	}{{"d", doc.D}, {"n", doc.N}, {"m", doc.M}, {"k", doc.K}}
	for _, f := range fields {
		switch {
		case f.v == nil:
			return Manifest{}, fmt.Errorf("%w: missing %q", ErrInvalidManifest, f.name)
		case *f.v < 0 || *f.v > maxInt:
			return Manifest{}, fmt.Errorf("%w: %s = %d", ErrInvalidManifest, f.name, *f.v)
		}
	}

	m := Manifest{D: int(*doc.D), N: int(*doc.N), M: int(*doc.M), K: int(*doc.K)}
	return m, m.Validate()
}

// LoadManifest reads and decodes the manifest of the dataset in s.
func LoadManifest(ctx context.Context, s blobstore.Store) (Manifest, error) {
	data, err := blobstore.ReadAll(ctx, s, ManifestName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return Manifest{}, ErrNoManifest
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("dataset: read manifest: %w", err)
	}
	return DecodeManifest(data)
}

// SaveManifest publishes the manifest atomically.
func SaveManifest(ctx context.Context, s blobstore.Store, m Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := s.Put(ctx, ManifestName, data); err != nil {
		return fmt.Errorf("dataset: write manifest: %w", err)
	}
	return nil
}
