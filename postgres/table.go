package postgres

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecload/pgcopy"
	"github.com/jackc/pgx/v5"
)

// ErrInvalidTable is returned for a table definition that cannot be created.
var ErrInvalidTable = errors.New("postgres: invalid table")

// Table describes a load target. Tables with Answers get a third column
// answer integer[].
type Table struct {
	Name    string
	Dim     int
	Answers bool
}

// TrainTable returns the {name}_train table.
func TrainTable(name string, dim int) Table {
	return Table{Name: name + "_train", Dim: dim}
}

// TestTable returns the {name}_test table.
func TestTable(name string, dim int) Table {
	return Table{Name: name + "_test", Dim: dim, Answers: true}
}

// Validate checks the name and the vector dimension.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTable)
	}
	if t.Dim < 1 || t.Dim > pgcopy.MaxVectorDim {
		return fmt.Errorf("%w: %s: dimension %d not in [1, %d]", ErrInvalidTable, t.Name, t.Dim, pgcopy.MaxVectorDim)
	}
	return nil
}

func (t Table) ident() string {
	return pgx.Identifier{t.Name}.Sanitize()
}

// CreateSQL returns the CREATE TABLE statement.
func (t Table) CreateSQL() string {
	if t.Answers {
		return fmt.Sprintf("CREATE TABLE %s (index integer, embedding vector(%d), answer integer[])", t.ident(), t.Dim)
	}
	return fmt.Sprintf("CREATE TABLE %s (index integer, embedding vector(%d))", t.ident(), t.Dim)
}

// DropSQL returns the DROP TABLE IF EXISTS statement.
func (t Table) DropSQL() string {
	return "DROP TABLE IF EXISTS " + t.ident()
}

// CopySQL returns the binary COPY statement.
func (t Table) CopySQL() string {
	if t.Answers {
		return fmt.Sprintf("COPY %s (index, embedding, answer) FROM STDIN WITH (FORMAT BINARY)", t.ident())
	}
	return fmt.Sprintf("COPY %s (index, embedding) FROM STDIN WITH (FORMAT BINARY)", t.ident())
}
