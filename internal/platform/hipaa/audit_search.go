package hipaa

import (
	"context"
	"fmt"
	"time"

	"github.com/medassist/gateway/internal/platform/rowstore"
	"github.com/medassist/gateway/pkg/pagination"
)

// AuditSearchParams holds filter and pagination parameters for an audit
// trail read. Zero values do not filter.
type AuditSearchParams struct {
	UserID    string
	Action    string
	Success   *bool
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// AuditSearchResult contains one page of entries, newest first.
type AuditSearchResult struct {
	Entries []AuditEntry `json:"entries"`
	Total   int          `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// Search reads a page of audit_logs. Limit and Offset are clamped the
// same way as every other paged read.
func (a *AuditLogger) Search(ctx context.Context, params AuditSearchParams) (*AuditSearchResult, error) {
	page := pagination.New(params.Limit, params.Offset)
	params.Limit, params.Offset = page.Limit, page.Offset

	var filters []rowstore.Filter
	if params.UserID != "" {
		filters = append(filters, rowstore.Eq("user_id", params.UserID))
	}
	if params.Action != "" {
		filters = append(filters, rowstore.Eq("action", params.Action))
	}
	if params.Success != nil {
		filters = append(filters, rowstore.Eq("success", *params.Success))
	}
	if params.StartTime != nil {
		filters = append(filters, rowstore.Gte("created_at", params.StartTime.UTC()))
	}
	if params.EndTime != nil {
		filters = append(filters, rowstore.Lte("created_at", params.EndTime.UTC()))
	}

	entries := []AuditEntry{}
	total, err := a.store.Select(ctx, AuditTable, rowstore.Query{
		Filters: filters,
		Order:   []rowstore.Order{{Column: "created_at", Desc: true}},
		Limit:   params.Limit,
		Offset:  params.Offset,
		Count:   true,
	}, &entries)
	if err != nil {
		return nil, fmt.Errorf("search audit entries: %w", err)
	}

	return &AuditSearchResult{
		Entries: entries,
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
	}, nil
}
