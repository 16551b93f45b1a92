package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/taskhive/taskhive/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via
// cache=shared. A unique name derived from t.Name() ensures isolation between
// parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename
	// component and cannot be misinterpreted as DSN query parameters.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// makeEntry builds a pending outbox entry with an OccurredAt offset so tests
// can create entries with distinct, ordered event times.
func makeEntry(teamID, taskID string, action model.Action, offset time.Duration) model.OutboxEntry {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return model.OutboxEntry{
		TeamID:     teamID,
		TaskID:     taskID,
		Action:     action,
		ActorID:    "user-1",
		Meta:       model.Meta{"source": "test"},
		OccurredAt: base.Add(offset),
	}
}

// newOutboxRepoAt returns an OutboxRepo whose clock starts at base and
// advances by a microsecond on every call, so CreatedAt stamps are strictly
// increasing and insertion order is unambiguous.
func newOutboxRepoAt(db *DB, base time.Time) *OutboxRepo {
	repo := NewOutboxRepo(db)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Microsecond)
	}
	return repo
}
