package rowstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for development and tests. Rows
// missing an "id" get a UUID; rows missing "created_at" get the insert
// time.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]map[string]any
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string][]map[string]any),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Seed inserts rows without returning them. It is meant for fixtures.
func (s *MemoryStore) Seed(table string, rows ...any) error {
	for _, r := range rows {
		if err := s.Insert(context.Background(), table, r, nil); err != nil {
			return err
		}
	}
	return nil
}

// Rows returns a copy of every row in table, in insertion order.
func (s *MemoryStore) Rows(table string) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]any, len(s.tables[table]))
	for i, r := range s.tables[table] {
		out[i] = copyRow(r)
	}
	return out
}

func (s *MemoryStore) Select(ctx context.Context, table string, q Query, dest any) (int, error) {
	if err := checkQuery(table, q); err != nil {
		return 0, err
	}
	filters, err := normalizeFilters(q.Filters)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	var matched []map[string]any
	for _, r := range s.tables[table] {
		if matches(r, filters) {
			matched = append(matched, copyRow(r))
		}
	}
	s.mu.RUnlock()

	if len(q.Order) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, o := range q.Order {
				c := compare(matched[i][o.Column], matched[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	total := len(matched)
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	if len(q.Columns) > 0 {
		for i, r := range matched {
			proj := make(map[string]any, len(q.Columns))
			for _, c := range q.Columns {
				proj[c] = r[c]
			}
			matched[i] = proj
		}
	}
	if matched == nil {
		matched = []map[string]any{}
	}
	if err := decode(matched, dest); err != nil {
		return 0, fmt.Errorf("decode %s rows: %w", table, err)
	}
	if q.Count {
		return total, nil
	}
	return len(matched), nil
}

func (s *MemoryStore) Insert(ctx context.Context, table string, row any, dest any) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	rec, err := normalizeRecord(row)
	if err != nil {
		return err
	}
	if _, err := recordColumns(rec); err != nil {
		return err
	}
	if id, ok := rec["id"]; !ok || id == nil || id == "" {
		rec["id"] = uuid.NewString()
	}
	if ts, ok := rec["created_at"]; !ok || ts == nil {
		rec["created_at"] = s.now().Format(time.RFC3339Nano)
	}

	s.mu.Lock()
	s.tables[table] = append(s.tables[table], rec)
	out := copyRow(rec)
	s.mu.Unlock()

	return decode(out, dest)
}

func (s *MemoryStore) Update(ctx context.Context, table string, filters []Filter, patch any, dest any) (int, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	if err := checkFilters(filters); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("update %s: refusing unfiltered update", table)
	}
	norm, err := normalizeFilters(filters)
	if err != nil {
		return 0, err
	}
	rec, err := normalizeRecord(patch)
	if err != nil {
		return 0, err
	}
	if _, err := recordColumns(rec); err != nil {
		return 0, err
	}

	s.mu.Lock()
	var updated []map[string]any
	for _, r := range s.tables[table] {
		if !matches(r, norm) {
			continue
		}
		for k, v := range rec {
			r[k] = v
		}
		updated = append(updated, copyRow(r))
	}
	s.mu.Unlock()

	if updated == nil {
		updated = []map[string]any{}
	}
	if err := decode(updated, dest); err != nil {
		return 0, fmt.Errorf("decode %s rows: %w", table, err)
	}
	return len(updated), nil
}

// normalizeRecord round-trips v through JSON so stored values have the
// same shapes (string, float64, bool, nil, map, slice) as decoded rows.
func normalizeRecord(v any) (map[string]any, error) {
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

func normalizeFilters(filters []Filter) ([]Filter, error) {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		b, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode filter %s: %w", f.Column, err)
		}
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decode filter %s: %w", f.Column, err)
		}
		out[i] = Filter{Column: f.Column, Op: f.Op, Value: v}
	}
	return out, nil
}

func matches(row map[string]any, filters []Filter) bool {
	for _, f := range filters {
		got, present := row[f.Column]
		if f.Value == nil {
			isNull := !present || got == nil
			if (f.Op == OpNeq) == isNull {
				return false
			}
			continue
		}
		if !present || got == nil {
			return false
		}
		c := compare(got, f.Value)
		var ok bool
		switch f.Op {
		case OpEq:
			ok = c == 0
		case OpNeq:
			ok = c != 0
		case OpGt:
			ok = c > 0
		case OpGte:
			ok = c >= 0
		case OpLt:
			ok = c < 0
		case OpLte:
			ok = c <= 0
		}
		if !ok {
			return false
		}
	}
	return true
}

// compare orders JSON scalars. Numbers compare numerically, RFC 3339
// timestamps chronologically, other strings lexically, nil sorts first.
// Mixed types compare by their text form.
func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if af, bf, ok := numericPair(a, b); ok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	if at, bt, ok := timePair(a, b); ok {
		return at.Compare(bt)
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// timePair parses a and b as RFC 3339 timestamps. time.Time values come
// back from the JSON round trip with a variable-length fraction, so their
// text does not sort in time order.
func timePair(a, b any) (time.Time, time.Time, bool) {
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return time.Time{}, time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, as)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	bt, err := time.Parse(time.RFC3339Nano, bs)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return at, bt, true
}

// numericPair reports whether a and b can be compared as numbers. A
// string is parsed only when the other side is already a number.
func numericPair(a, b any) (float64, float64, bool) {
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	switch {
	case aNum && bNum:
		return af, bf, true
	case aNum:
		if s, ok := b.(string); ok {
			f, err := strconv.ParseFloat(s, 64)
			return af, f, err == nil
		}
	case bNum:
		if s, ok := a.(string); ok {
			f, err := strconv.ParseFloat(s, 64)
			return f, bf, err == nil
		}
	}
	return 0, 0, false
}

func copyRow(r map[string]any) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
