package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/taskhive/taskhive/internal/domain/model"
	"github.com/taskhive/taskhive/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OutboxStore = (*OutboxRepo)(nil)

// timeLayout is RFC 3339 UTC with fixed-width nanoseconds so that stored
// timestamps sort lexicographically in creation order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// OutboxRepo is the SQLite implementation of the OutboxStore port interface.
type OutboxRepo struct {
	db *DB
	// now is the clock used for CreatedAt stamps; replaceable in tests.
	now func() time.Time
}

// NewOutboxRepo creates a new OutboxRepo backed by the given DB.
func NewOutboxRepo(db *DB) *OutboxRepo {
	return &OutboxRepo{db: db, now: time.Now}
}

// Enqueue appends a new pending entry. The entry's ID, CreatedAt, and
// ProcessedAt are assigned by the store.
func (r *OutboxRepo) Enqueue(ctx context.Context, entry model.OutboxEntry) error {
	meta, err := encodeMeta(entry.Meta)
	if err != nil {
		return fmt.Errorf("encode meta for action %q: %w", entry.Action, err)
	}

	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = r.now()
	}

	const query = `
		INSERT INTO activity_outbox (team_id, task_id, action, actor_id, meta, occurred_at, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = r.db.Writer.ExecContext(ctx, query,
		entry.TeamID,
		nullableString(entry.TaskID),
		string(entry.Action),
		entry.ActorID,
		meta,
		occurredAt.UTC().Format(timeLayout),
		r.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry for team %s: %w", entry.TeamID, err)
	}

	return nil
}

// ListPending returns up to limit unprocessed entries, oldest first by
// insertion order.
func (r *OutboxRepo) ListPending(ctx context.Context, limit int) ([]model.OutboxEntry, error) {
	const query = `
		SELECT id, team_id, task_id, action, actor_id, meta, occurred_at, created_at, processed_at
		FROM activity_outbox
		WHERE processed_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []model.OutboxEntry
	for rows.Next() {
		entry, err := scanOutboxEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}

	return entries, nil
}

// markChunkSize bounds the IN list of one UPDATE so a large drain batch
// stays below SQLite's bind-variable cap.
const markChunkSize = 500

// MarkProcessed sets processed_at for exactly the given entry IDs. Entries
// already marked keep their original processed_at: the stamp is set once.
// The whole ID set is marked in one transaction, chunked per statement.
func (r *OutboxRepo) MarkProcessed(ctx context.Context, ids []int64, processedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	stamp := processedAt.UTC().Format(timeLayout)

	for start := 0; start < len(ids); start += markChunkSize {
		chunk := ids[start:min(start+markChunkSize, len(ids))]

		placeholders := strings.Repeat("?,", len(chunk))
		query := fmt.Sprintf(
			`UPDATE activity_outbox SET processed_at = ? WHERE id IN (%s) AND processed_at IS NULL`,
			placeholders[:len(placeholders)-1],
		)

		args := make([]any, 0, len(chunk)+1)
		args = append(args, stamp)
		for _, id := range chunk {
			args = append(args, id)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("mark %d outbox entries processed: %w", len(chunk), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark of %d outbox entries: %w", len(ids), err)
	}

	return nil
}

// CountPending returns the number of unprocessed entries.
func (r *OutboxRepo) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM activity_outbox WHERE processed_at IS NULL`

	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending outbox entries: %w", err)
	}

	return count, nil
}

func scanOutboxEntry(s scanner) (*model.OutboxEntry, error) {
	var entry model.OutboxEntry
	var taskID, processedAt sql.NullString
	var action, meta, occurredAt, createdAt string

	err := s.Scan(
		&entry.ID, &entry.TeamID, &taskID, &action, &entry.ActorID,
		&meta, &occurredAt, &createdAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.TaskID = taskID.String
	entry.Action = model.Action(action)

	if entry.Meta, err = decodeMeta(meta); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	if entry.OccurredAt, err = parseTime(occurredAt); err != nil {
		return nil, fmt.Errorf("parse occurred_at: %w", err)
	}
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if processedAt.Valid {
		if entry.ProcessedAt, err = parseTime(processedAt.String); err != nil {
			return nil, fmt.Errorf("parse processed_at: %w", err)
		}
	}

	return &entry, nil
}

// encodeMeta serializes meta as canonical JSON. encoding/json emits map keys
// in sorted order, so logically equal payloads produce identical bytes.
func encodeMeta(meta model.Meta) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func decodeMeta(raw string) (model.Meta, error) {
	if raw == "" || raw == "{}" {
		return model.Meta{}, nil
	}

	var meta model.Meta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, err
	}

	return meta, nil
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(timeLayout, raw)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
