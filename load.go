package vecload

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/hupe1980/vecload/dataset"
	"github.com/hupe1980/vecload/pgcopy"
	"github.com/hupe1980/vecload/pipeline"
	"github.com/hupe1980/vecload/postgres"
	"github.com/hupe1980/vecload/resource"
	"github.com/hupe1980/vecload/vecs"
	"golang.org/x/sync/errgroup"
)

// Load reads the dataset in store and loads it into {name}_train and
// {name}_test through connections from dialer. The two tables load
// concurrently, each in its own transaction; the first failure cancels the
// other load. Results are returned in the order train, test.
func Load(ctx context.Context, store blobstore.Store, dialer postgres.Dialer, optFns ...Option) ([]postgres.Result, error) {
	o := applyOptions(optFns)
	if o.name == "" {
		return nil, ErrNoName
	}

	m, err := dataset.LoadManifest(ctx, store)
	if err != nil {
		return nil, err
	}
	o.logger = o.logger.WithDimension(m.D)
	logger := o.logger

	loader := postgres.NewLoader(dialer,
		postgres.WithController(o.rc),
		postgres.WithForce(o.force),
		postgres.WithLogger(logger.Logger),
	)

	jobs := []struct {
		table   postgres.Table
		produce postgres.Producer
	}{
		{postgres.TrainTable(o.name, m.D), producer(store, m, PartTrain, &o, o.name+"_train")},
		{postgres.TestTable(o.name, m.D), producer(store, m, PartTest, &o, o.name+"_test")},
	}

	results := make([]postgres.Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := loader.Load(gctx, job.table, job.produce)
			results[i] = res
			o.metricsCollector.RecordTable(res.Table, res.Rows, res.Bytes, res.Duration, err)
			logger.LogTable(gctx, res, err)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Part selects one table of a dataset.
type Part int

const (
	// PartTrain is the train table: index and embedding.
	PartTrain Part = iota
	// PartTest is the test table: index, embedding and ground-truth answer.
	PartTest
)

func (p Part) String() string {
	if p == PartTest {
		return "test"
	}
	return "train"
}

// ParsePart parses "train" or "test".
func ParsePart(name string) (Part, error) {
	switch name {
	case "train":
		return PartTrain, nil
	case "test":
		return PartTest, nil
	default:
		return 0, fmt.Errorf("unknown part %q", name)
	}
}

// Encode writes the binary COPY stream of one part of the dataset in store
// to w, as consumed by COPY ... FROM '/path' WITH (FORMAT BINARY).
func Encode(ctx context.Context, store blobstore.Store, part Part, w io.Writer, optFns ...Option) (int64, error) {
	o := applyOptions(optFns)

	m, err := dataset.LoadManifest(ctx, store)
	if err != nil {
		return 0, err
	}

	enc := pgcopy.NewEncoder(resource.NewRateLimitedWriter(ctx, w, o.rc))
	n, err := streamPart(ctx, store, m, part, &o, part.String(), enc)
	if err != nil {
		return n, err
	}
	return n, enc.Flush()
}

func producer(store blobstore.Store, m dataset.Manifest, part Part, o *options, table string) postgres.Producer {
	return func(ctx context.Context, sink pipeline.Sink) (int64, error) {
		return streamPart(ctx, store, m, part, o, table, sink)
	}
}

// streamPart runs the pipeline for one part, reporting progress under table.
func streamPart(ctx context.Context, store blobstore.Store, m dataset.Manifest, part Part, o *options, table string, sink pipeline.Sink) (int64, error) {
	var n int64
	var err error
	if part == PartTest {
		n, err = streamTest(ctx, store, m, o, table, sink)
	} else {
		n, err = streamTrain(ctx, store, m, o, table, sink)
	}
	o.flushProgress(table, n)
	return n, err
}

func streamTrain(ctx context.Context, store blobstore.Store, m dataset.Manifest, o *options, table string, sink pipeline.Sink) (int64, error) {
	train, err := dataset.OpenContainer(ctx, store, dataset.TrainName)
	if err != nil {
		return 0, err
	}
	embeddings := vecs.NewAsyncReader[float32](train)
	defer closeStream(train, embeddings)

	cfg := pipeline.Config{
		Count:    int64(m.N),
		Dim:      m.D,
		Observer: o.progress(ctx, table, int64(m.N)),
	}
	return pipeline.Run(ctx, cfg, embeddings, nil, sink)
}

func streamTest(ctx context.Context, store blobstore.Store, m dataset.Manifest, o *options, table string, sink pipeline.Sink) (int64, error) {
	test, err := dataset.OpenContainer(ctx, store, dataset.TestName)
	if err != nil {
		return 0, err
	}
	embeddings := vecs.NewAsyncReader[float32](test)
	defer closeStream(test, embeddings)

	truth, err := dataset.OpenContainer(ctx, store, dataset.GroundTruthName)
	if err != nil {
		return 0, err
	}
	answers := vecs.NewAsyncReader[int32](truth)
	defer closeStream(truth, answers)

	cfg := pipeline.Config{
		Count:       int64(m.M),
		Dim:         m.D,
		AnswerWidth: m.K,
		Observer:    o.progress(ctx, table, int64(m.M)),
	}
	return pipeline.Run(ctx, cfg, embeddings, answers, sink)
}

type asyncStream interface {
	Close() error
	Done() <-chan struct{}
}

// streamCloseTimeout bounds the wait for a reader goroutine blocked in a
// stalled read; closing the container then unblocks it.
var streamCloseTimeout = 5 * time.Second

// closeStream stops the reader goroutine before the container it reads from
// is closed, or closes the container anyway after streamCloseTimeout.
func closeStream(c io.Closer, r asyncStream) {
	_ = r.Close()
	t := time.NewTimer(streamCloseTimeout)
	defer t.Stop()
	select {
	case <-r.Done():
	case <-t.C:
	}
	_ = c.Close()
}

// progress reports delivered rows to the metrics collector every
// progressInterval rows, and to the logger at most once per second.
func (o *options) progress(ctx context.Context, table string, total int64) pipeline.Observer {
	if o.progressInterval <= 0 {
		return nil
	}
	interval := o.progressInterval
	var last time.Time
	return pipeline.ObserverFunc(func(index int64) {
		rows := index + 1
		if rows%interval != 0 {
			return
		}
		o.metricsCollector.RecordRows(table, interval)
		if time.Since(last) >= time.Second {
			o.logger.LogProgress(ctx, table, rows, total)
			last = time.Now()
		}
	})
}

// flushProgress records the rows delivered since the last full interval.
func (o *options) flushProgress(table string, rows int64) {
	if o.progressInterval <= 0 {
		o.metricsCollector.RecordRows(table, rows)
		return
	}
	if rest := rows % o.progressInterval; rest > 0 {
		o.metricsCollector.RecordRows(table, rest)
	}
}
