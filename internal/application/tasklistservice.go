package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taskhive/taskhive/internal/domain/model"
	"github.com/taskhive/taskhive/internal/domain/port/driven"
)

// TaskListService serves task-list reads through the query cache. On a miss
// it computes the page via the primary store's lister, caches the result, and
// collapses concurrent identical misses into a single computation.
type TaskListService struct {
	cache  driven.ListCache
	lister driven.TaskLister
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewTaskListService creates a TaskListService. ttl <= 0 defers to the
// cache's default.
func NewTaskListService(cache driven.ListCache, lister driven.TaskLister, ttl time.Duration, logger *slog.Logger) *TaskListService {
	return &TaskListService{
		cache:  cache,
		lister: lister,
		ttl:    ttl,
		logger: logger,
	}
}

// List returns one page of the team's tasks, from cache when possible. A
// cached payload that fails to decode is treated as a miss; a page that fails
// to encode is served but not cached. Neither failure reaches the caller.
func (s *TaskListService) List(ctx context.Context, teamID string, q model.ListQuery) (*model.TaskPage, error) {
	if payload, ok := s.cache.Get(ctx, teamID, q); ok {
		var page model.TaskPage
		if err := json.Unmarshal(payload, &page); err != nil {
			s.logger.Warn("cached task page undecodable, treating as miss",
				"team", teamID,
				"error", err,
			)
		} else {
			return &page, nil
		}
	}

	key := teamID + ":" + q.Fingerprint()
	v, err, _ := s.group.Do(key, func() (any, error) {
		page, err := s.lister.ListTasks(ctx, teamID, q)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(page)
		if err != nil {
			s.logger.Warn("task page not serializable, cache write dropped",
				"team", teamID,
				"error", err,
			)
		} else {
			s.cache.Set(ctx, teamID, q, payload, s.ttl)
		}

		return page, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks for team %s: %w", teamID, err)
	}

	return v.(*model.TaskPage), nil
}
