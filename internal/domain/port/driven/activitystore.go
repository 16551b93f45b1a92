package driven

import (
	"context"

	"github.com/taskhive/taskhive/internal/domain/model"
)

// ActivityStore defines the driven port for the durable activity log.
// Records are appended in batches by the drain scheduler and read
// reverse-chronologically by the activity feed. Consumers must tolerate
// duplicate records: drain delivery is at-least-once.
type ActivityStore interface {
	// AppendBatch inserts all records atomically; either every record lands
	// or none do.
	AppendBatch(ctx context.Context, records []model.ActivityRecord) error
	// ListByTeam returns one page of a team's records, newest first.
	// Page numbering starts at 1.
	ListByTeam(ctx context.Context, teamID string, page, limit int) ([]model.ActivityRecord, error)
	// CountByTeam returns the total number of records for a team.
	CountByTeam(ctx context.Context, teamID string) (int, error)
}
