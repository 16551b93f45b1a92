package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/application"
	"github.com/taskhive/taskhive/internal/domain/model"
)

func enqueueN(t *testing.T, outbox *mockOutboxStore, n int) {
	t.Helper()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, outbox.Enqueue(context.Background(), model.OutboxEntry{
			TeamID:     "team-1",
			TaskID:     "task-1",
			Action:     model.ActionTaskUpdated,
			ActorID:    "user-1",
			Meta:       model.Meta{"seq": float64(i)},
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestDrainService_RunOnceDrainsOldestFirst(t *testing.T) {
	outbox := &mockOutboxStore{}
	activity := &mockActivityStore{}
	svc := application.NewDrainService(outbox, activity, 0, 0, discardLogger())
	ctx := context.Background()

	enqueueN(t, outbox, 5)

	drained, err := svc.RunOnce(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, drained)

	count, err := outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, activity.records, 3)
	for i, rec := range activity.records {
		assert.Equal(t, model.Meta{"seq": float64(i)}, rec.Meta, "oldest entries drained first")
	}

	drained, err = svc.RunOnce(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, drained)

	count, err = outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The log ends with exactly the five originals, in order.
	require.Len(t, activity.records, 5)
	for i, rec := range activity.records {
		assert.Equal(t, "team-1", rec.TeamID)
		assert.Equal(t, model.ActionTaskUpdated, rec.Action)
		assert.Equal(t, model.Meta{"seq": float64(i)}, rec.Meta)
	}
}

func TestDrainService_RunOnceEmptyOutbox(t *testing.T) {
	outbox := &mockOutboxStore{}
	activity := &mockActivityStore{}
	svc := application.NewDrainService(outbox, activity, 0, 0, discardLogger())

	drained, err := svc.RunOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, drained)
	assert.Zero(t, activity.appendCalls, "no writes on an idle cycle")
	assert.Empty(t, outbox.markCalls)
}

func TestDrainService_LogWriteFailureLeavesEntriesPending(t *testing.T) {
	outbox := &mockOutboxStore{}
	activity := &mockActivityStore{appendErr: errors.New("log unavailable")}
	svc := application.NewDrainService(outbox, activity, 0, 0, discardLogger())
	ctx := context.Background()

	enqueueN(t, outbox, 3)

	drained, err := svc.RunOnce(ctx, 10)
	require.Error(t, err)
	assert.Zero(t, drained)
	assert.Empty(t, outbox.markCalls, "nothing marked when the log write fails")

	count, err := outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Retry after recovery drains the same entries.
	activity.appendErr = nil
	drained, err = svc.RunOnce(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, drained)
	assert.Len(t, activity.records, 3)
}

func TestDrainService_MarkFailureReportsDrainedCount(t *testing.T) {
	outbox := &mockOutboxStore{markErr: errors.New("writer gone")}
	activity := &mockActivityStore{}
	svc := application.NewDrainService(outbox, activity, 0, 0, discardLogger())
	ctx := context.Background()

	enqueueN(t, outbox, 2)

	drained, err := svc.RunOnce(ctx, 10)
	require.Error(t, err)
	assert.Equal(t, 2, drained, "records landed in the log before the mark failed")
	assert.Len(t, activity.records, 2)

	// The same entries drain again on retry; downstream tolerates duplicates.
	outbox.markErr = nil
	drained, err = svc.RunOnce(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, drained)
	assert.Len(t, activity.records, 4)
}

func TestDrainService_MarksByIdentityNotPredicate(t *testing.T) {
	outbox := &mockOutboxStore{}
	activity := &mockActivityStore{}
	svc := application.NewDrainService(outbox, activity, 0, 0, discardLogger())
	ctx := context.Background()

	enqueueN(t, outbox, 2)

	drained, err := svc.RunOnce(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, drained)

	require.Len(t, outbox.markCalls, 1)
	assert.Equal(t, []int64{1, 2}, outbox.markCalls[0], "exactly the selected IDs are marked")
}

func TestDrainService_StartStopsOnContextCancel(t *testing.T) {
	outbox := &mockOutboxStore{}
	activity := &mockActivityStore{}
	svc := application.NewDrainService(outbox, activity, 10*time.Millisecond, 0, discardLogger())

	enqueueN(t, outbox, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	// The immediate startup drain clears the backlog.
	require.Eventually(t, func() bool {
		count, err := outbox.CountPending(context.Background())
		return err == nil && count == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain service did not stop after cancel")
	}
}
