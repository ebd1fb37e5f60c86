package vecs

import (
	"context"
	"io"
	"sync"
)

type readResult[T Scalar] struct {
	rec []T
	err error
}

// AsyncReader reads records on a dedicated goroutine and hands them to the
// caller one whole record at a time.
//
// The goroutine decodes at most one record ahead of the caller. Read suspends
// only the calling goroutine and returns early if its context is done; a record
// that was ready at that moment is not lost and is returned by the next Read.
type AsyncReader[T Scalar] struct {
	results chan readResult[T]
	done    chan struct{}
	exited  chan struct{}
	once    sync.Once
	closed  bool
	err     error
}

// NewAsyncReader starts a reader goroutine over r.
//
// The goroutine owns r until it reaches the end of the stream, hits an error,
// or Close is called. Close does not close r; close r to unblock a read that is
// stuck in the underlying source.
func NewAsyncReader[T Scalar](r io.Reader) *AsyncReader[T] {
	ar := &AsyncReader[T]{
		results: make(chan readResult[T]),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go ar.run(NewReader[T](r))
	return ar
}

func (ar *AsyncReader[T]) run(r *Reader[T]) {
	defer close(ar.exited)
	defer close(ar.results)
	for {
		rec, err := r.Read()
		select {
		case ar.results <- readResult[T]{rec: rec, err: err}:
		case <-ar.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Read returns the next record with the same contract as Reader.Read.
// Terminal results (io.EOF, ErrCorruption, IOError) are sticky.
func (ar *AsyncReader[T]) Read(ctx context.Context) ([]T, error) {
	if ar.closed {
		return nil, ErrClosed
	}
	if ar.err != nil {
		return nil, ar.err
	}

	select {
	case res, ok := <-ar.results:
		if !ok {
			ar.err = ErrClosed
			return nil, ar.err
		}
		if res.err != nil {
			ar.err = res.err
		}
		return res.rec, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the reader goroutine once its current read returns.
func (ar *AsyncReader[T]) Close() error {
	ar.closed = true
	ar.once.Do(func() { close(ar.done) })
	return nil
}

// Done returns a channel that is closed when the reader goroutine has exited
// and no longer touches the underlying reader.
func (ar *AsyncReader[T]) Done() <-chan struct{} {
	return ar.exited
}

type writeFrame struct {
	data    []byte
	flushed chan error
}

// AsyncWriter writes records on a dedicated goroutine.
//
// Write encodes the record into its own frame before handing it over, so the
// caller may reuse rec as soon as Write returns. Frames are written whole and
// in order.
type AsyncWriter[T Scalar] struct {
	frames chan writeFrame
	done   chan struct{}
	once   sync.Once
	closed bool
	err    error // set by the goroutine before done is closed
}

// NewAsyncWriter starts a writer goroutine over w. Call Close to flush and
// stop it; Close does not close w.
func NewAsyncWriter[T Scalar](w io.Writer) *AsyncWriter[T] {
	aw := &AsyncWriter[T]{
		frames: make(chan writeFrame, 1),
		done:   make(chan struct{}),
	}
	go aw.run(w)
	return aw
}

func (aw *AsyncWriter[T]) run(w io.Writer) {
	defer close(aw.done)
	for f := range aw.frames {
		if f.data != nil {
			if _, err := w.Write(f.data); err != nil {
				aw.err = &IOError{Op: "write", Err: err}
				return
			}
		}
		if f.flushed != nil {
			var err error
			if fl, ok := w.(flusher); ok {
				if ferr := fl.Flush(); ferr != nil {
					err = &IOError{Op: "flush", Err: ferr}
				}
			}
			f.flushed <- err
			if err != nil {
				aw.err = err
				return
			}
		}
	}
}

func (aw *AsyncWriter[T]) send(ctx context.Context, f writeFrame) error {
	if aw.closed {
		return ErrClosed
	}
	select {
	case aw.frames <- f:
		return nil
	case <-aw.done:
		return aw.failure()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (aw *AsyncWriter[T]) failure() error {
	if aw.err != nil {
		return aw.err
	}
	return ErrClosed
}

// Write queues one record. Validation errors (ErrTooBig) are reported
// immediately; sink failures are reported by a later Write, Flush or Close.
func (aw *AsyncWriter[T]) Write(ctx context.Context, rec []T) error {
	data, err := AppendRecord(make([]byte, 0, RecordSize[T](len(rec))), rec)
	if err != nil {
		return err
	}
	return aw.send(ctx, writeFrame{data: data})
}

// Flush waits until every queued record has been written and the sink, if it
// buffers, has been flushed.
func (aw *AsyncWriter[T]) Flush(ctx context.Context) error {
	f := writeFrame{flushed: make(chan error, 1)}
	if err := aw.send(ctx, f); err != nil {
		return err
	}
	select {
	case err := <-f.flushed:
		return err
	case <-aw.done:
		return aw.failure()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending records and stops the writer goroutine.
func (aw *AsyncWriter[T]) Close(ctx context.Context) error {
	if aw.closed {
		<-aw.done
		return aw.err
	}
	ferr := aw.Flush(ctx)
	aw.closed = true
	aw.once.Do(func() { close(aw.frames) })
	if ferr != nil {
		return ferr
	}
	select {
	case <-aw.done:
		return aw.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
