package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/taskhive/taskhive/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ActivityResponse is the JSON representation of one activity record.
type ActivityResponse struct {
	ID         int64      `json:"id"`
	TeamID     string     `json:"team_id"`
	TaskID     string     `json:"task_id,omitempty"`
	Action     string     `json:"action"`
	ActorID    string     `json:"actor_id"`
	Meta       model.Meta `json:"meta"`
	OccurredAt string     `json:"occurred_at"`
}

// ActivityFeedResponse is one page of a team's activity feed.
type ActivityFeedResponse struct {
	Activities []ActivityResponse `json:"activities"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status        string `json:"status"`
	Time          string `json:"time"`
	PendingEvents int    `json:"pending_events"`
}

func toActivityResponse(rec model.ActivityRecord) ActivityResponse {
	meta := rec.Meta
	if meta == nil {
		meta = model.Meta{}
	}

	return ActivityResponse{
		ID:         rec.ID,
		TeamID:     rec.TeamID,
		TaskID:     rec.TaskID,
		Action:     string(rec.Action),
		ActorID:    rec.ActorID,
		Meta:       meta,
		OccurredAt: rec.OccurredAt.UTC().Format(time.RFC3339),
	}
}

func newHealthResponse(pending int) HealthResponse {
	return HealthResponse{
		Status:        "ok",
		Time:          time.Now().UTC().Format(time.RFC3339),
		PendingEvents: pending,
	}
}
