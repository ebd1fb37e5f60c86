package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/vecload/blobstore"
	"github.com/hupe1980/vecload/pgcopy"
	"github.com/hupe1980/vecload/pipeline"
	"github.com/hupe1980/vecload/resource"
	"github.com/hupe1980/vecload/vecs"
)

// ErrNeighborOutOfRange is returned when a ground-truth id does not index a
// train vector.
var ErrNeighborOutOfRange = errors.New("dataset: neighbor id out of range")

// NeighborError locates an out-of-range ground-truth id.
type NeighborError struct {
	Row    int64
	Column int
	ID     int32
	N      int
}

func (e *NeighborError) Error() string {
	return fmt.Sprintf("dataset: groundtruth row %d column %d: id %d not in [0, %d)", e.Row, e.Column, e.ID, e.N)
}

func (e *NeighborError) Is(target error) bool { return target == ErrNeighborOutOfRange }

// Report summarizes a verified dataset.
type Report struct {
	Manifest Manifest
	// Files maps each container name as stored to its stored size.
	Files map[string]int64
	// DistinctNeighbors is the number of distinct train rows referenced by
	// the ground truth.
	DistinctNeighbors uint64
}

// VerifyOption configures Verify.
type VerifyOption func(*verifyOptions)

type verifyOptions struct {
	rc *resource.Controller
}

// WithController caps container reads at the controller's IO rate.
func WithController(rc *resource.Controller) VerifyOption {
	return func(o *verifyOptions) {
		o.rc = rc
	}
}

// Verify streams every container file of the dataset in s and checks it
// against the manifest: record counts and widths (with the same errors a load
// would report) and that every neighbor id indexes a train row.
func Verify(ctx context.Context, s blobstore.Store, optFns ...VerifyOption) (*Report, error) {
	var o verifyOptions
	for _, fn := range optFns {
		fn(&o)
	}
	limited := func(c *Container) io.Reader {
		return resource.NewRateLimitedReader(ctx, c, o.rc)
	}

	m, err := LoadManifest(ctx, s)
	if err != nil {
		return nil, err
	}
	report := &Report{Manifest: m, Files: make(map[string]int64, 3)}

	train, err := OpenContainer(ctx, s, TrainName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = train.Close() }()
	report.Files[train.Name] = train.Size

	nop := pipeline.SinkFunc(func(pgcopy.Tuple) error { return nil })
	if _, err := pipeline.Run(ctx, pipeline.Config{Count: int64(m.N), Dim: m.D},
		pipeline.FromReader(vecs.NewReader[float32](limited(train))), nil, nop); err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", train.Name, err)
	}

	test, err := OpenContainer(ctx, s, TestName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = test.Close() }()
	report.Files[test.Name] = test.Size

	truth, err := OpenContainer(ctx, s, GroundTruthName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = truth.Close() }()
	report.Files[truth.Name] = truth.Size

	seen := roaring.New()
	check := pipeline.SinkFunc(func(t pgcopy.Tuple) error {
		for col, id := range t.Answer {
			if id < 0 || int(id) >= m.N {
				return &NeighborError{Row: int64(t.Index), Column: col, ID: id, N: m.N}
			}
			seen.Add(uint32(id))
		}
		return nil
	})
	if _, err := pipeline.Run(ctx, pipeline.Config{Count: int64(m.M), Dim: m.D, AnswerWidth: m.K},
		pipeline.FromReader(vecs.NewReader[float32](limited(test))),
		pipeline.FromReader(vecs.NewReader[int32](limited(truth))), check); err != nil {
		return nil, fmt.Errorf("dataset: %s/%s: %w", test.Name, truth.Name, err)
	}

	report.DistinctNeighbors = seen.GetCardinality()
	return report, nil
}
