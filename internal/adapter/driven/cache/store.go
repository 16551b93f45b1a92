package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskhive/taskhive/internal/domain/model"
	"github.com/taskhive/taskhive/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ListCache = (*Store)(nil)

const (
	// DefaultTTL applies when a caller passes ttl <= 0.
	DefaultTTL = 30 * time.Second

	// indexTTL bounds the lifetime of a team's key-set on the shared
	// backend. Longer than any plausible entry TTL, so live keys are never
	// dropped from the index before they expire themselves.
	indexTTL = time.Hour

	// pingTimeout bounds the per-operation availability probe.
	pingTimeout = 250 * time.Millisecond

	keyPrefix   = "tasks:list:"
	indexPrefix = "tasks:list:keys:"
)

// Store is the query cache for task-list reads. Each operation probes the
// shared Redis backend and routes to it when reachable, falling back to the
// in-process store otherwise. Backend failures are logged and degrade to
// misses or local writes; they are never surfaced to the caller.
type Store struct {
	shared *redisBackend // nil when no shared backend is configured
	memory *MemoryStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore creates a Store. client may be nil, in which case every operation
// uses the in-process backend. defaultTTL <= 0 selects DefaultTTL.
func NewStore(client Commander, defaultTTL time.Duration, logger *slog.Logger) *Store {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	s := &Store{
		memory: NewMemoryStore(),
		ttl:    defaultTTL,
		logger: logger,
	}
	if client != nil {
		s.shared = &redisBackend{client: client, indexTTL: indexTTL}
	}

	return s
}

// Get returns the cached payload for the team and query, or ok=false on a
// miss. A shared-backend failure degrades to the in-process store for the
// rest of the call.
func (s *Store) Get(ctx context.Context, teamID string, q model.ListQuery) ([]byte, bool) {
	key := entryKey(teamID, q)

	if s.sharedAvailable(ctx) {
		payload, ok, err := s.shared.get(ctx, key)
		if err == nil {
			return payload, ok
		}
		s.logger.Warn("shared cache get failed, falling back", "key", key, "error", err)
	}

	return s.memory.Get(key)
}

// Set stores the payload under the team and query for ttl (<= 0 selects the
// store default) and registers the key for team-wide invalidation.
func (s *Store) Set(ctx context.Context, teamID string, q model.ListQuery, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	key := entryKey(teamID, q)

	if s.sharedAvailable(ctx) {
		err := s.shared.set(ctx, teamIndexKey(teamID), key, payload, ttl)
		if err == nil {
			return
		}
		s.logger.Warn("shared cache set failed, falling back", "key", key, "error", err)
	}

	s.memory.Set(teamID, key, payload, ttl)
}

// InvalidateTeam removes every cached entry registered for the team. The
// in-process store is always cleared as well: entries may have landed there
// while the shared backend was unreachable.
func (s *Store) InvalidateTeam(ctx context.Context, teamID string) {
	if s.sharedAvailable(ctx) {
		if err := s.shared.invalidate(ctx, teamIndexKey(teamID)); err != nil {
			s.logger.Warn("shared cache invalidation failed", "team", teamID, "error", err)
		}
	}

	s.memory.InvalidateTeam(teamID)
}

// sharedAvailable probes the shared backend with a bounded ping. Selection
// happens once per operation so a backend outage mid-deployment degrades
// request-by-request instead of poisoning the process.
func (s *Store) sharedAvailable(ctx context.Context) bool {
	if s.shared == nil {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.shared.client.Ping(pingCtx).Err(); err != nil {
		s.logger.Debug("shared cache unreachable", "error", err)
		return false
	}

	return true
}

func entryKey(teamID string, q model.ListQuery) string {
	return keyPrefix + teamID + ":" + q.Fingerprint()
}

func teamIndexKey(teamID string) string {
	return indexPrefix + teamID
}
