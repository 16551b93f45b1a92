// Package model contains the domain entities for the activity pipeline.
package model

import "time"

// Action identifies the kind of domain event recorded in a team's activity
// trail. The set is open-ended: handlers may record actions outside the
// constants below and the pipeline carries them through unchanged.
type Action string

const (
	ActionTaskCreated       Action = "task.created"
	ActionTaskUpdated       Action = "task.updated"
	ActionTaskMoved         Action = "task.moved"
	ActionTaskAssigned      Action = "task.assigned"
	ActionTaskDeleted       Action = "task.deleted"
	ActionTeamMemberAdded   Action = "team.member_added"
	ActionTeamMemberRemoved Action = "team.member_removed"
)

// Meta carries free-form event context as a string-keyed mapping of JSON
// primitives (string, number, bool, nil, nested mapping). It is persisted as
// canonical JSON, so logically equal payloads serialize identically.
type Meta map[string]any

// OutboxEntry is a pending activity event awaiting drain into the activity
// log. Entries are append-only: once written, only ProcessedAt ever changes,
// and it is set exactly once.
type OutboxEntry struct {
	ID          int64
	TeamID      string
	TaskID      string // Empty for team-scoped events with no task subject.
	Action      Action
	ActorID     string
	Meta        Meta
	OccurredAt  time.Time // Logical event time, set when the mutation happened.
	CreatedAt   time.Time // Storage insertion time.
	ProcessedAt time.Time // Zero while the entry is pending.
}

// Pending reports whether the entry has not yet been drained.
func (e OutboxEntry) Pending() bool {
	return e.ProcessedAt.IsZero()
}

// Record projects the entry into its durable activity-log form.
func (e OutboxEntry) Record() ActivityRecord {
	return ActivityRecord{
		TeamID:     e.TeamID,
		TaskID:     e.TaskID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		Meta:       e.Meta,
		OccurredAt: e.OccurredAt,
	}
}

// ActivityRecord is a durable, queryable activity-log row, produced 1:1 from
// a drained OutboxEntry. Records are never updated or deleted.
type ActivityRecord struct {
	ID         int64
	TeamID     string
	TaskID     string
	Action     Action
	ActorID    string
	Meta       Meta
	OccurredAt time.Time
}
