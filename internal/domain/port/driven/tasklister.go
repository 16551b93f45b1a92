package driven

import (
	"context"

	"github.com/taskhive/taskhive/internal/domain/model"
)

// TaskLister defines the driven port for computing a task-list page from the
// primary store. The CRUD layer supplies the implementation; the cached
// read-through only calls it on a cache miss.
type TaskLister interface {
	ListTasks(ctx context.Context, teamID string, q model.ListQuery) (*model.TaskPage, error)
}
