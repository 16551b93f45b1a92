package driven

import (
	"context"
	"time"

	"github.com/taskhive/taskhive/internal/domain/model"
)

// ListCache defines the driven port for cached task-list responses, keyed by
// team and query fingerprint. The cache is best-effort: no operation returns
// an error, and backend unavailability degrades to misses and dropped writes,
// never to failures visible to the caller.
type ListCache interface {
	// Get returns the cached payload for the team and query, or ok=false on
	// a miss. An expired entry is a miss and is purged as a side effect.
	Get(ctx context.Context, teamID string, q model.ListQuery) (payload []byte, ok bool)
	// Set stores the payload under the team and query for ttl, and registers
	// the key for later team-wide invalidation. ttl <= 0 uses the store's
	// default.
	Set(ctx context.Context, teamID string, q model.ListQuery, payload []byte, ttl time.Duration)
	// InvalidateTeam removes every key registered for the team. Calling it
	// for a team with no entries is a no-op.
	InvalidateTeam(ctx context.Context, teamID string)
}
