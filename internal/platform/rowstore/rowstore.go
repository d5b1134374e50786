// Package rowstore is a small table-oriented data access layer. Rows are
// exchanged as JSON-tagged Go values so the same repository code runs
// against the hosted REST row-store, a direct PostgreSQL database, or an
// in-memory store.
package rowstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoRows is returned by helpers that expect exactly one row.
	ErrNoRows = errors.New("rowstore: no rows in result set")
	// ErrInvalidIdentifier is returned for table or column names that are
	// not plain lower-case SQL identifiers.
	ErrInvalidIdentifier = errors.New("rowstore: invalid identifier")
)

// Op is a comparison operator. Values match the PostgREST operator names.
type Op string

const (
	OpEq  Op = "eq"
	OpNeq Op = "neq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNeq: "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Filter restricts a query to rows where Column Op Value holds.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value any) Filter { return Filter{Column: column, Op: OpNeq, Value: value} }
func Gt(column string, value any) Filter  { return Filter{Column: column, Op: OpGt, Value: value} }
func Gte(column string, value any) Filter { return Filter{Column: column, Op: OpGte, Value: value} }
func Lt(column string, value any) Filter  { return Filter{Column: column, Op: OpLt, Value: value} }
func Lte(column string, value any) Filter { return Filter{Column: column, Op: OpLte, Value: value} }

type Order struct {
	Column string
	Desc   bool
}

// Query describes a select. Empty Columns selects every column. Limit 0
// means no limit. When Count is set, Select reports the number of rows
// matching Filters regardless of Limit and Offset.
type Query struct {
	Columns []string
	Filters []Filter
	Order   []Order
	Limit   int
	Offset  int
	Count   bool
}

// Store is the row-store contract shared by every backend.
type Store interface {
	// Select decodes matching rows into dest, which must point to a slice.
	// It returns the total when q.Count is set, otherwise len(rows).
	Select(ctx context.Context, table string, q Query, dest any) (int, error)
	// Insert writes row and decodes the stored representation, including
	// generated columns, into dest. dest may be nil.
	Insert(ctx context.Context, table string, row any, dest any) error
	// Update applies patch to every row matching filters, decodes the
	// updated rows into dest (a slice pointer, may be nil) and returns how
	// many rows changed. Zero matches is not an error.
	Update(ctx context.Context, table string, filters []Filter, patch any, dest any) (int, error)
}

// Transactor is implemented by stores that can group calls into one
// transaction. Calls made with the context handed to fn join it.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunInTx runs fn inside a transaction when s is a Transactor and
// directly otherwise. The REST and memory stores have no transactions.
func RunInTx(ctx context.Context, s Store, fn func(ctx context.Context) error) error {
	if tx, ok := s.(Transactor); ok {
		return tx.InTx(ctx, fn)
	}
	return fn(ctx)
}

// SelectOne runs q with limit 1 and decodes the single row into dest.
// It returns ErrNoRows when nothing matches.
func SelectOne(ctx context.Context, s Store, table string, q Query, dest any) error {
	q.Limit = 1
	q.Count = false
	var rows []json.RawMessage
	if _, err := s.Select(ctx, table, q, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNoRows
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("decode %s row: %w", table, err)
	}
	return nil
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

func checkQuery(table string, q Query) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	for _, c := range q.Columns {
		if err := checkIdent(c); err != nil {
			return err
		}
	}
	if err := checkFilters(q.Filters); err != nil {
		return err
	}
	for _, o := range q.Order {
		if err := checkIdent(o.Column); err != nil {
			return err
		}
	}
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("rowstore: negative limit or offset")
	}
	return nil
}

func checkFilters(filters []Filter) error {
	for _, f := range filters {
		if err := checkIdent(f.Column); err != nil {
			return err
		}
		if _, ok := sqlOps[f.Op]; !ok {
			return fmt.Errorf("rowstore: unsupported operator %q", f.Op)
		}
	}
	return nil
}

// toRecord converts a JSON-tagged value into a column map.
func toRecord(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("row must encode to a JSON object: %w", err)
	}
	return m, nil
}

// decode re-encodes src into dest through JSON.
func decode(src any, dest any) error {
	if dest == nil {
		return nil
	}
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

// formatValue renders a filter value in the textual form the REST
// row-store expects.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case uuid.UUID:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
