package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/vecload/pgcopy"
	"github.com/hupe1980/vecload/vecs"
)

// MaxCount is the largest row count whose indices fit an int4 column.
const MaxCount = math.MaxInt32 + 1

// Source yields records one at a time. It returns io.EOF at the end of the
// stream. A returned record is only valid until the next call.
//
// *vecs.AsyncReader satisfies Source directly; wrap a *vecs.Reader with
// FromReader.
type Source[T vecs.Scalar] interface {
	Read(ctx context.Context) ([]T, error)
}

// Sink consumes tuples. Tuple slices must not be retained after Encode
// returns. *pgcopy.Encoder satisfies Sink.
type Sink interface {
	Encode(t pgcopy.Tuple) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(t pgcopy.Tuple) error

// Encode calls f(t).
func (f SinkFunc) Encode(t pgcopy.Tuple) error { return f(t) }

// Observer is notified after each row is accepted by the sink.
type Observer interface {
	OnRow(index int64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(index int64)

// OnRow calls f(index).
func (f ObserverFunc) OnRow(index int64) { f(index) }

// Config describes the expected shape of the input.
type Config struct {
	// Count is the exact number of rows in every stream.
	Count int64
	// Dim is the width of every embedding.
	Dim int
	// AnswerWidth is the width of every answer. Ignored without an answer stream.
	AnswerWidth int
	// Observer, if set, receives per-row progress.
	Observer Observer
}

// Run streams cfg.Count rows from embeddings (and answers, if non-nil) into
// sink and returns the number of rows delivered.
func Run(ctx context.Context, cfg Config, embeddings Source[float32], answers Source[int32], sink Sink) (int64, error) {
	if cfg.Count < 0 || cfg.Count > MaxCount {
		return 0, fmt.Errorf("%w: %d", ErrCountOutOfRange, cfg.Count)
	}

	for i := int64(0); i < cfg.Count; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		emb, err := next(ctx, embeddings, Embeddings, i, cfg.Count)
		if err != nil {
			return i, err
		}

		var ans []int32
		if answers != nil {
			if ans, err = next(ctx, answers, Answers, i, cfg.Count); err != nil {
				return i, err
			}
		}

		if len(emb) != cfg.Dim {
			return i, &DimensionError{Stream: Embeddings, Index: i, Expected: cfg.Dim, Actual: len(emb)}
		}
		if answers != nil && len(ans) != cfg.AnswerWidth {
			return i, &DimensionError{Stream: Answers, Index: i, Expected: cfg.AnswerWidth, Actual: len(ans)}
		}

		t := pgcopy.Tuple{Index: int32(i), Embedding: emb}
		if answers != nil {
			// A zero-width answer still makes a three-column tuple.
			if ans == nil {
				ans = []int32{}
			}
			t.Answer = ans
		}
		if err := sink.Encode(t); err != nil {
			return i, fmt.Errorf("pipeline: row %d: %w", i, err)
		}
		if cfg.Observer != nil {
			cfg.Observer.OnRow(i)
		}
	}

	if err := drained(ctx, embeddings, Embeddings, cfg.Count); err != nil {
		return cfg.Count, err
	}
	if answers != nil {
		if err := drained(ctx, answers, Answers, cfg.Count); err != nil {
			return cfg.Count, err
		}
	}
	return cfg.Count, nil
}

func next[T vecs.Scalar](ctx context.Context, src Source[T], stream Stream, i, count int64) ([]T, error) {
	rec, err := src.Read(ctx)
	if errors.Is(err, io.EOF) {
		return nil, &CountError{Stream: stream, Index: i, Expected: count}
	}
	if err != nil {
		return nil, fmt.Errorf("pipeline: %s row %d: %w", stream, i, err)
	}
	return rec, nil
}

func drained[T vecs.Scalar](ctx context.Context, src Source[T], stream Stream, count int64) error {
	_, err := src.Read(ctx)
	switch {
	case err == nil:
		return &CountError{Stream: stream, Index: count, Expected: count, Trailing: true}
	case errors.Is(err, io.EOF):
		return nil
	default:
		return fmt.Errorf("pipeline: %s after row %d: %w", stream, count, err)
	}
}

// FromReader adapts a blocking reader to Source. Records share one buffer, so
// each is only valid until the next Read.
func FromReader[T vecs.Scalar](r *vecs.Reader[T]) Source[T] {
	return &blockingSource[T]{r: r}
}

type blockingSource[T vecs.Scalar] struct {
	r   *vecs.Reader[T]
	buf []T
}

func (s *blockingSource[T]) Read(_ context.Context) ([]T, error) {
	rec, err := s.r.ReadInto(s.buf)
	if err != nil {
		return nil, err
	}
	if cap(rec) > cap(s.buf) {
		s.buf = rec[:0]
	}
	return rec, nil
}
