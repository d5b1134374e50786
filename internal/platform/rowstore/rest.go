package rowstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/medassist/gateway/internal/platform/backend"
)

const restPrefix = "/rest/v1/"

// RestStore talks to a PostgREST-compatible row-store with the service
// credential.
type RestStore struct {
	client *backend.Client
}

func NewRestStore(client *backend.Client) *RestStore {
	return &RestStore{client: client}
}

func (s *RestStore) Select(ctx context.Context, table string, q Query, dest any) (int, error) {
	if err := checkQuery(table, q); err != nil {
		return 0, err
	}
	params := filterParams(q.Filters)
	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	} else {
		params.Set("select", "*")
	}
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	req, err := s.client.NewRequest(ctx, http.MethodGet, restPrefix+table, params, nil)
	if err != nil {
		return 0, err
	}
	if q.Count {
		req.Header.Set("Prefer", "count=exact")
	}

	var rows []json.RawMessage
	hdr, err := s.client.DoJSON(req, &rows)
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", table, err)
	}
	if err := decode(rows, dest); err != nil {
		return 0, fmt.Errorf("decode %s rows: %w", table, err)
	}
	if q.Count {
		if total, ok := parseContentRange(hdr.Get("Content-Range")); ok {
			return total, nil
		}
	}
	return len(rows), nil
}

func (s *RestStore) Insert(ctx context.Context, table string, row any, dest any) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}
	req, err := s.client.NewRequest(ctx, http.MethodPost, restPrefix+table, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	var rows []json.RawMessage
	if _, err := s.client.DoJSON(req, &rows); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	if dest == nil {
		return nil
	}
	if len(rows) == 0 {
		return fmt.Errorf("insert %s: %w", table, ErrNoRows)
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("decode %s row: %w", table, err)
	}
	return nil
}

func (s *RestStore) Update(ctx context.Context, table string, filters []Filter, patch any, dest any) (int, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	if err := checkFilters(filters); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("update %s: refusing unfiltered update", table)
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return 0, fmt.Errorf("encode %s patch: %w", table, err)
	}
	req, err := s.client.NewRequest(ctx, http.MethodPatch, restPrefix+table, filterParams(filters), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	var rows []json.RawMessage
	if _, err := s.client.DoJSON(req, &rows); err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	if err := decode(rows, dest); err != nil {
		return 0, fmt.Errorf("decode %s rows: %w", table, err)
	}
	return len(rows), nil
}

func filterParams(filters []Filter) url.Values {
	params := url.Values{}
	for _, f := range filters {
		if f.Value == nil && f.Op == OpEq {
			params.Add(f.Column, "is.null")
			continue
		}
		params.Add(f.Column, string(f.Op)+"."+formatValue(f.Value))
	}
	return params
}

// parseContentRange reads the total from a "0-9/42" or "*/0" header.
func parseContentRange(v string) (int, bool) {
	idx := strings.LastIndex(v, "/")
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(v[idx+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
