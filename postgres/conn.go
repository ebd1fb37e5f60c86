package postgres

import (
	"context"
	"io"
	"os"
	"os/user"

	"github.com/jackc/pgx/v5"
)

// Conn is a database connection able to start transactions.
type Conn interface {
	Begin(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

// Tx is the subset of a transaction used by the loader.
type Tx interface {
	Exec(ctx context.Context, sql string) error
	// CopyFrom runs a COPY ... FROM STDIN statement reading data from r and
	// returns the number of rows copied.
	CopyFrom(ctx context.Context, r io.Reader, sql string) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Conn, error)

// Dial calls f(ctx).
func (f DialerFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }

// DefaultDSN returns postgres://$USER@localhost.
func DefaultDSN() string {
	name := os.Getenv("USER")
	if name == "" {
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
	}
	return "postgres://" + name + "@localhost"
}

// PgxDialer dials with pgx. An empty DSN means DefaultDSN.
type PgxDialer struct {
	DSN string
}

// Dial implements Dialer.
func (d PgxDialer) Dial(ctx context.Context) (Conn, error) {
	return Connect(ctx, d.DSN)
}

// Connect opens a pgx connection.
func Connect(ctx context.Context, dsn string) (Conn, error) {
	if dsn == "" {
		dsn = DefaultDSN()
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	c, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &pgxConn{c: c}, nil
}

type pgxConn struct {
	c *pgx.Conn
}

func (p *pgxConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.c.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

func (p *pgxConn) Close(ctx context.Context) error {
	return p.c.Close(ctx)
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Exec(ctx context.Context, sql string) error {
	_, err := t.tx.Exec(ctx, sql)
	return err
}

// CopyFrom goes through the wire-level connection because pgx.Tx.CopyFrom
// only accepts row sources, not a pre-encoded binary stream.
func (t *pgxTx) CopyFrom(ctx context.Context, r io.Reader, sql string) (int64, error) {
	tag, err := t.tx.Conn().PgConn().CopyFrom(ctx, r, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
