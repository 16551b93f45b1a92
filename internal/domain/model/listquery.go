package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// ListQuery describes a paginated, filterable, sortable task-list read. Two
// queries with the same field values are interchangeable for caching purposes
// regardless of how they were constructed.
type ListQuery struct {
	Page       int
	Limit      int
	Status     string
	AssigneeID string
	Sort       string
	// Filters holds additional field=value constraints the list endpoint
	// accepts without the cache needing to know about them individually.
	Filters map[string]string
}

// Fingerprint returns a deterministic digest of the query. Fields are
// serialized in sorted-name order (including Filters keys) before hashing, so
// logically identical queries always produce the same digest. Cache
// invalidation correctness depends on this determinism. String values are
// quoted so a caller-supplied value embedding the separator or a "name="
// prefix cannot forge extra parts and collide with a different query.
func (q ListQuery) Fingerprint() string {
	parts := make([]string, 0, 5+len(q.Filters))
	parts = append(parts,
		"assignee="+strconv.Quote(q.AssigneeID),
		"limit="+strconv.Itoa(q.Limit),
		"page="+strconv.Itoa(q.Page),
		"sort="+strconv.Quote(q.Sort),
		"status="+strconv.Quote(q.Status),
	)
	for k, v := range q.Filters {
		parts = append(parts, "f."+strconv.Quote(k)+"="+strconv.Quote(v))
	}
	sort.Strings(parts)

	sum := xxh3.Hash128([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
}

// TaskSummary is the list-endpoint view of a task, as computed by the primary
// store and cached by the query cache.
type TaskSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	AssigneeID string    `json:"assignee_id,omitempty"`
	Position   int       `json:"position"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TaskPage is one page of task-list results.
type TaskPage struct {
	Tasks []TaskSummary `json:"tasks"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}
