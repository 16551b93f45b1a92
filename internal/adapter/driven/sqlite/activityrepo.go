package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taskhive/taskhive/internal/domain/model"
	"github.com/taskhive/taskhive/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActivityStore = (*ActivityRepo)(nil)

// ActivityRepo is the SQLite implementation of the ActivityStore port
// interface. The activity log is append-only; rows are never updated.
type ActivityRepo struct {
	db *DB
}

// NewActivityRepo creates a new ActivityRepo backed by the given DB.
func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// AppendBatch inserts all records in a single transaction. If any insert
// fails the whole batch is rolled back, so the drain scheduler can safely
// retry the same outbox entries on the next cycle.
func (r *ActivityRepo) AppendBatch(ctx context.Context, records []model.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const query = `
		INSERT INTO activity_log (team_id, task_id, action, actor_id, meta, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	for _, rec := range records {
		meta, err := encodeMeta(rec.Meta)
		if err != nil {
			return fmt.Errorf("encode meta for action %q: %w", rec.Action, err)
		}

		if _, err := tx.ExecContext(ctx, query,
			rec.TeamID,
			nullableString(rec.TaskID),
			string(rec.Action),
			rec.ActorID,
			meta,
			rec.OccurredAt.UTC().Format(timeLayout),
		); err != nil {
			return fmt.Errorf("insert activity record for team %s: %w", rec.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %d activity records: %w", len(records), err)
	}

	return nil
}

// ListByTeam returns one page of the team's records, newest first. Page
// numbering starts at 1; out-of-range pages return an empty slice.
func (r *ActivityRepo) ListByTeam(ctx context.Context, teamID string, page, limit int) ([]model.ActivityRecord, error) {
	if page < 1 {
		page = 1
	}

	const query = `
		SELECT id, team_id, task_id, action, actor_id, meta, occurred_at
		FROM activity_log
		WHERE team_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, teamID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("query activity log for team %s: %w", teamID, err)
	}
	defer rows.Close()

	var records []model.ActivityRecord
	for rows.Next() {
		rec, err := scanActivityRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity records: %w", err)
	}

	return records, nil
}

// CountByTeam returns the total number of records for a team.
func (r *ActivityRepo) CountByTeam(ctx context.Context, teamID string) (int, error) {
	const query = `SELECT COUNT(*) FROM activity_log WHERE team_id = ?`

	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query, teamID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count activity records for team %s: %w", teamID, err)
	}

	return count, nil
}

func scanActivityRecord(s scanner) (*model.ActivityRecord, error) {
	var rec model.ActivityRecord
	var taskID sql.NullString
	var action, meta, occurredAt string

	err := s.Scan(&rec.ID, &rec.TeamID, &taskID, &action, &rec.ActorID, &meta, &occurredAt)
	if err != nil {
		return nil, err
	}

	rec.TaskID = taskID.String
	rec.Action = model.Action(action)

	if rec.Meta, err = decodeMeta(meta); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	if rec.OccurredAt, err = parseTime(occurredAt); err != nil {
		return nil, fmt.Errorf("parse occurred_at: %w", err)
	}

	return &rec, nil
}
