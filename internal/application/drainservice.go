package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskhive/taskhive/internal/domain/model"
	"github.com/taskhive/taskhive/internal/domain/port/driven"
)

const (
	// DefaultDrainInterval matches the reference deployment's once-a-minute
	// activity cron.
	DefaultDrainInterval = time.Minute
	// DefaultDrainBatch bounds how many entries one cycle moves.
	DefaultDrainBatch = 100
)

// DrainService periodically moves pending outbox entries into the durable
// activity log. Delivery is at-least-once: a failed log write leaves the
// entries unmarked so the next cycle retries them, and a failed mark after a
// successful write produces duplicates the log's consumers must tolerate.
type DrainService struct {
	outbox    driven.OutboxStore
	activity  driven.ActivityStore
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time

	// draining ensures a single drain in flight; an overrunning cycle makes
	// the next tick skip rather than queue behind it.
	draining sync.Mutex
}

// NewDrainService creates a DrainService. interval <= 0 selects
// DefaultDrainInterval; batchSize <= 0 selects DefaultDrainBatch.
func NewDrainService(outbox driven.OutboxStore, activity driven.ActivityStore, interval time.Duration, batchSize int, logger *slog.Logger) *DrainService {
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultDrainBatch
	}

	return &DrainService{
		outbox:    outbox,
		activity:  activity,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs an immediate drain to clear any backlog, then drains on the
// configured interval. It blocks until the context is canceled. No cycle
// failure ever stops the loop.
func (s *DrainService) Start(ctx context.Context) {
	s.drainTick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("drain service stopped")
			return
		case <-ticker.C:
			s.drainTick(ctx)
		}
	}
}

// RunOnce performs one drain cycle and returns the number of entries moved
// into the activity log. limit <= 0 selects the service's batch size.
func (s *DrainService) RunOnce(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.batchSize
	}

	entries, err := s.outbox.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending entries: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	records := make([]model.ActivityRecord, 0, len(entries))
	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		records = append(records, entry.Record())
		ids = append(ids, entry.ID)
	}

	// Nothing is marked if the write fails, so the same entries are retried
	// on the next cycle.
	if err := s.activity.AppendBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("append %d activity records: %w", len(records), err)
	}

	// Mark by identity, not by re-evaluating the pending predicate: entries
	// enqueued since the select must not be marked without being drained.
	if err := s.outbox.MarkProcessed(ctx, ids, s.now()); err != nil {
		return len(entries), fmt.Errorf("mark %d entries processed: %w", len(ids), err)
	}

	return len(entries), nil
}

// drainTick runs one guarded cycle. Overlapping ticks are skipped, and both
// errors and panics are contained so the next tick still fires.
func (s *DrainService) drainTick(ctx context.Context) {
	if !s.draining.TryLock() {
		s.logger.Warn("drain cycle still running, skipping tick")
		return
	}
	defer s.draining.Unlock()

	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("drain cycle panicked", "panic", v)
		}
	}()

	drained, err := s.RunOnce(ctx, 0)
	if err != nil {
		s.logger.Error("drain cycle failed", "drained", drained, "error", err)
		return
	}
	if drained > 0 {
		s.logger.Info("drained activity events", "count", drained)
	}
}
