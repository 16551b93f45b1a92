// Package httphandler is the HTTP driving adapter serving the activity feed
// and health endpoints.
package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taskhive/taskhive/internal/application"
	"github.com/taskhive/taskhive/internal/domain/port/driven"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// Handler serves the REST API.
type Handler struct {
	activityStore driven.ActivityStore
	activitySvc   *application.ActivityService
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(activityStore driven.ActivityStore, activitySvc *application.ActivityService, logger *slog.Logger) *Handler {
	return &Handler{
		activityStore: activityStore,
		activitySvc:   activitySvc,
		logger:        logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/teams/{teamID}/activity", h.ListTeamActivity)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ListTeamActivity serves a team's activity feed, newest first.
func (h *Handler) ListTeamActivity(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamID")
	if teamID == "" {
		writeError(w, http.StatusBadRequest, "team id is required")
		return
	}

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = parsed
	}

	limit := defaultFeedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > maxFeedLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	records, err := h.activityStore.ListByTeam(r.Context(), teamID, page, limit)
	if err != nil {
		h.logger.Error("list team activity failed", "team", teamID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load activity")
		return
	}

	total, err := h.activityStore.CountByTeam(r.Context(), teamID)
	if err != nil {
		h.logger.Error("count team activity failed", "team", teamID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load activity")
		return
	}

	activities := make([]ActivityResponse, 0, len(records))
	for _, rec := range records {
		activities = append(activities, toActivityResponse(rec))
	}

	writeJSON(w, http.StatusOK, ActivityFeedResponse{
		Activities: activities,
		Total:      total,
		Page:       page,
		Limit:      limit,
	})
}

// Health reports process liveness plus the current outbox backlog.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	pending, err := h.activitySvc.PendingCount(r.Context())
	if err != nil {
		h.logger.Error("pending count failed", "error", err)
		writeError(w, http.StatusInternalServerError, "health check failed")
		return
	}

	writeJSON(w, http.StatusOK, newHealthResponse(pending))
}
