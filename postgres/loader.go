package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/vecload/pgcopy"
	"github.com/hupe1980/vecload/pipeline"
	"github.com/hupe1980/vecload/resource"
	"golang.org/x/sync/errgroup"
)

// ErrRowMismatch is returned when the server reports a different number of
// copied rows than were encoded.
var ErrRowMismatch = errors.New("postgres: copied row count mismatch")

// Producer writes the rows of one table to sink and returns how many it wrote.
type Producer func(ctx context.Context, sink pipeline.Sink) (int64, error)

// Result summarizes a completed table load.
type Result struct {
	Table    string
	Rows     int64
	Bytes    int64
	Duration time.Duration
}

// Loader loads tables, one connection and one transaction per table.
type Loader struct {
	dialer Dialer
	rc     *resource.Controller
	logger *slog.Logger
	force  bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithController bounds connections and copy throughput.
func WithController(rc *resource.Controller) Option {
	return func(l *Loader) { l.rc = rc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithForce drops existing tables before creating them.
func WithForce(force bool) Option {
	return func(l *Loader) { l.force = force }
}

// NewLoader creates a Loader.
func NewLoader(dialer Dialer, opts ...Option) *Loader {
	l := &Loader{dialer: dialer}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}
	return l
}

// Load creates t and fills it with the rows from produce. It holds one
// connection slot of the controller for the duration of the load.
func (l *Loader) Load(ctx context.Context, t Table, produce Producer) (Result, error) {
	res := Result{Table: t.Name}
	if err := t.Validate(); err != nil {
		return res, err
	}

	if err := l.rc.AcquireConnection(ctx); err != nil {
		return res, err
	}
	defer l.rc.ReleaseConnection()

	conn, err := l.dialer.Dial(ctx)
	if err != nil {
		return res, fmt.Errorf("postgres: connect: %w", err)
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			l.logger.WarnContext(ctx, "close connection", "table", t.Name, "error", cerr)
		}
	}()

	l.logger.DebugContext(ctx, "loading table", "table", t.Name, "force", l.force)

	start := time.Now()
	res, err = LoadTable(ctx, conn, t, l.force, l.rc, produce)
	res.Duration = time.Since(start)
	return res, err
}

// LoadTable runs the load of t on conn: DROP (if force), CREATE and COPY in
// one transaction. The transaction is rolled back on any error.
func LoadTable(ctx context.Context, conn Conn, t Table, force bool, rc *resource.Controller, produce Producer) (res Result, err error) {
	res.Table = t.Name
	if err := t.Validate(); err != nil {
		return res, err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if force {
		if err := tx.Exec(ctx, t.DropSQL()); err != nil {
			return res, fmt.Errorf("postgres: drop %s: %w", t.Name, err)
		}
	}
	if err := tx.Exec(ctx, t.CreateSQL()); err != nil {
		return res, fmt.Errorf("postgres: create %s: %w", t.Name, err)
	}

	res.Rows, res.Bytes, err = copyRows(ctx, tx, t, rc, produce)
	if err != nil {
		return res, err
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("postgres: commit %s: %w", t.Name, err)
	}
	return res, nil
}

// copyRows pipes the encoder output into COPY FROM STDIN.
func copyRows(ctx context.Context, tx Tx, t Table, rc *resource.Controller, produce Producer) (int64, int64, error) {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	var produced, written, copied int64

	g.Go(func() error {
		enc := pgcopy.NewEncoder(resource.NewRateLimitedWriter(gctx, pw, rc))
		n, err := produce(gctx, enc)
		if err == nil {
			err = enc.Flush()
		}
		produced, written = n, enc.BytesWritten()
		pw.CloseWithError(err)
		return err
	})

	g.Go(func() error {
		n, err := tx.CopyFrom(gctx, pr, t.CopySQL())
		if err != nil {
			pr.CloseWithError(err)
			return fmt.Errorf("postgres: copy %s: %w", t.Name, err)
		}
		pr.CloseWithError(io.ErrClosedPipe)
		copied = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return produced, written, err
	}
	if copied != produced {
		return produced, written, fmt.Errorf("%w: %s: encoded %d, copied %d", ErrRowMismatch, t.Name, produced, copied)
	}
	return produced, written, nil
}
