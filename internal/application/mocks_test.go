package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/taskhive/taskhive/internal/domain/model"
)

// --- Mock implementations ---

type mockOutboxStore struct {
	mu      sync.Mutex
	entries []model.OutboxEntry
	nextID  int64

	enqueueErr error
	listErr    error
	markErr    error

	markCalls [][]int64
}

func (m *mockOutboxStore) Enqueue(_ context.Context, entry model.OutboxEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.nextID++
	entry.ID = m.nextID
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]model.OutboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var pending []model.OutboxEntry
	for _, e := range m.entries {
		if e.Pending() {
			pending = append(pending, e)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (m *mockOutboxStore) MarkProcessed(_ context.Context, ids []int64, processedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls = append(m.markCalls, ids)
	if m.markErr != nil {
		return m.markErr
	}
	byID := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		byID[id] = struct{}{}
	}
	for i := range m.entries {
		if _, ok := byID[m.entries[i].ID]; ok && m.entries[i].Pending() {
			m.entries[i].ProcessedAt = processedAt
		}
	}
	return nil
}

func (m *mockOutboxStore) CountPending(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.entries {
		if e.Pending() {
			count++
		}
	}
	return count, nil
}

type mockActivityStore struct {
	mu      sync.Mutex
	records []model.ActivityRecord

	appendErr   error
	appendCalls int
}

func (m *mockActivityStore) AppendBatch(_ context.Context, records []model.ActivityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendCalls++
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *mockActivityStore) ListByTeam(_ context.Context, teamID string, _, _ int) ([]model.ActivityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityRecord
	for _, r := range m.records {
		if r.TeamID == teamID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockActivityStore) CountByTeam(_ context.Context, teamID string) (int, error) {
	records, _ := m.ListByTeam(context.Background(), teamID, 1, 0)
	return len(records), nil
}

type mockListCache struct {
	mu          sync.Mutex
	store       map[string][]byte
	invalidated []string
	sets        int
}

func newMockListCache() *mockListCache {
	return &mockListCache{store: make(map[string][]byte)}
}

func (m *mockListCache) key(teamID string, q model.ListQuery) string {
	return teamID + ":" + q.Fingerprint()
}

func (m *mockListCache) Get(_ context.Context, teamID string, q model.ListQuery) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.store[m.key(teamID, q)]
	return payload, ok
}

func (m *mockListCache) Set(_ context.Context, teamID string, q model.ListQuery, payload []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.store[m.key(teamID, q)] = payload
}

func (m *mockListCache) InvalidateTeam(_ context.Context, teamID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, teamID)
	for key := range m.store {
		if len(key) >= len(teamID) && key[:len(teamID)] == teamID {
			delete(m.store, key)
		}
	}
}

type mockTaskLister struct {
	mu    sync.Mutex
	calls int
	page  *model.TaskPage
	err   error
	// block, when non-nil, is closed by the test to release in-flight calls;
	// used to exercise singleflight collapsing.
	block chan struct{}
}

func (m *mockTaskLister) ListTasks(_ context.Context, _ string, _ model.ListQuery) (*model.TaskPage, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func (m *mockTaskLister) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
