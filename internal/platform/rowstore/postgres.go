package rowstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type txKey struct{}

// withTx returns a context whose row-store calls run inside tx.
func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// PostgresStore runs row-store operations directly against PostgreSQL.
// Rows travel as jsonb so callers keep using JSON-tagged structs.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) conn(ctx context.Context) queryable {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok && tx != nil {
		return tx
	}
	return s.pool
}

// InTx runs fn in a transaction. Calls made with the context passed to fn
// share the transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(withTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Select(ctx context.Context, table string, q Query, dest any) (int, error) {
	if err := checkQuery(table, q); err != nil {
		return 0, err
	}
	where, args := whereClause(q.Filters, 1)

	cols := "*"
	if len(q.Columns) > 0 {
		cols = strings.Join(q.Columns, ", ")
	}
	sql := fmt.Sprintf(`SELECT %s FROM %s%s`, cols, table, where)
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			parts[i] = o.Column
			if o.Desc {
				parts[i] += " DESC"
			}
		}
		sql += " ORDER BY " + strings.Join(parts, ", ")
	}
	if q.Limit > 0 {
		sql += " LIMIT " + strconv.Itoa(q.Limit)
	}
	if q.Offset > 0 {
		sql += " OFFSET " + strconv.Itoa(q.Offset)
	}

	var raw []byte
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(jsonb_agg(to_jsonb(t)), '[]'::jsonb) FROM (`+sql+`) t`, args...).Scan(&raw)
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", table, err)
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return 0, fmt.Errorf("decode %s rows: %w", table, err)
	}
	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return 0, fmt.Errorf("decode %s rows: %w", table, err)
		}
	}

	if !q.Count {
		return len(rows), nil
	}
	var total int
	if err := s.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM `+table+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return total, nil
}

func (s *PostgresStore) Insert(ctx context.Context, table string, row any, dest any) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	rec, err := toRecord(row)
	if err != nil {
		return err
	}
	cols, err := recordColumns(rec)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}

	colList := strings.Join(cols, ", ")
	sql := fmt.Sprintf(`INSERT INTO %[1]s (%[2]s)
		SELECT %[2]s FROM jsonb_populate_record(NULL::%[1]s, $1::jsonb)
		RETURNING to_jsonb(%[1]s.*)`, table, colList)

	var raw []byte
	if err := s.conn(ctx).QueryRow(ctx, sql, payload).Scan(&raw); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s row: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, table string, filters []Filter, patch any, dest any) (int, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	if err := checkFilters(filters); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("update %s: refusing unfiltered update", table)
	}
	rec, err := toRecord(patch)
	if err != nil {
		return 0, err
	}
	cols, err := recordColumns(rec)
	if err != nil {
		return 0, err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("encode %s patch: %w", table, err)
	}

	where, args := whereClause(filters, 2)
	colList := strings.Join(cols, ", ")
	sql := fmt.Sprintf(`UPDATE %[1]s SET (%[2]s) = (
			SELECT %[2]s FROM jsonb_populate_record(NULL::%[1]s, $1::jsonb))%[3]s
		RETURNING to_jsonb(%[1]s.*)`, table, colList, where)

	rows, err := s.conn(ctx).Query(ctx, sql, append([]any{payload}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return 0, fmt.Errorf("scan %s row: %w", table, err)
		}
		out = append(out, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	if err := decode(out, dest); err != nil {
		return 0, fmt.Errorf("decode %s rows: %w", table, err)
	}
	return len(out), nil
}

// whereClause renders filters with placeholders numbered from first.
func whereClause(filters []Filter, first int) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	n := first
	for _, f := range filters {
		if f.Value == nil {
			if f.Op == OpNeq {
				parts = append(parts, f.Column+" IS NOT NULL")
			} else {
				parts = append(parts, f.Column+" IS NULL")
			}
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s $%d", f.Column, sqlOps[f.Op], n))
		args = append(args, formatValue(f.Value))
		n++
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// recordColumns returns the record's keys in a stable order.
func recordColumns(rec map[string]any) ([]string, error) {
	if len(rec) == 0 {
		return nil, fmt.Errorf("rowstore: empty row")
	}
	cols := make([]string, 0, len(rec))
	for k := range rec {
		if err := checkIdent(k); err != nil {
			return nil, err
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, nil
}
