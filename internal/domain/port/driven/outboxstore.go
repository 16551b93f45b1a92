package driven

import (
	"context"
	"time"

	"github.com/taskhive/taskhive/internal/domain/model"
)

// OutboxStore defines the driven port for the pending-activity outbox.
// Entries are append-only; the only permitted mutation is marking an entry
// processed, exactly once.
type OutboxStore interface {
	// Enqueue appends a new pending entry. ID, CreatedAt, and ProcessedAt on
	// the input are ignored.
	Enqueue(ctx context.Context, entry model.OutboxEntry) error
	// ListPending returns up to limit unprocessed entries, oldest first by
	// insertion order.
	ListPending(ctx context.Context, limit int) ([]model.OutboxEntry, error)
	// MarkProcessed sets ProcessedAt for exactly the given entry IDs. IDs
	// already processed or unknown are ignored rather than treated as errors.
	MarkProcessed(ctx context.Context, ids []int64, processedAt time.Time) error
	// CountPending returns the number of unprocessed entries.
	CountPending(ctx context.Context) (int, error)
}
