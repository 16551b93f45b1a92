// Package application contains use-case orchestration services.
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskhive/taskhive/internal/domain/model"
	"github.com/taskhive/taskhive/internal/domain/port/driven"
)

// ActivityService is the mutation-side entry point of the activity pipeline.
// After a handler performs its write it calls Record, which enqueues an
// outbox entry and invalidates the team's cached list reads. Both side
// effects are best-effort: failures are logged, never returned, so they can
// never fail the mutation that triggered them.
type ActivityService struct {
	outbox driven.OutboxStore
	cache  driven.ListCache
	logger *slog.Logger
	now    func() time.Time
}

// NewActivityService creates an ActivityService with all required dependencies.
func NewActivityService(outbox driven.OutboxStore, cache driven.ListCache, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		outbox: outbox,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Record enqueues an activity event for the team and invalidates the team's
// cached list reads. taskID may be empty for team-scoped events; meta may be
// nil. If the enqueue fails the event is lost (there is no durable fallback
// queue); the loss is logged on the service's failure channel.
func (s *ActivityService) Record(ctx context.Context, teamID, taskID string, action model.Action, actorID string, meta model.Meta) {
	entry := model.OutboxEntry{
		TeamID:     teamID,
		TaskID:     taskID,
		Action:     action,
		ActorID:    actorID,
		Meta:       meta,
		OccurredAt: s.now(),
	}

	if err := s.outbox.Enqueue(ctx, entry); err != nil {
		s.logger.Error("activity enqueue failed, event lost",
			"team", teamID,
			"action", action,
			"error", err,
		)
	}

	s.cache.InvalidateTeam(ctx, teamID)
}

// PendingCount returns the number of activity events awaiting drain.
func (s *ActivityService) PendingCount(ctx context.Context) (int, error) {
	return s.outbox.CountPending(ctx)
}
