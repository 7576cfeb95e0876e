// Package handlers exposes the service's process surface: a liveness probe
// and an on-demand sync trigger.
package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/budget-sync/internal/api/middleware"
)

// SyncTrigger starts a sync cycle if none is running.
type SyncTrigger interface {
	// TryRun returns false when a cycle is already in flight.
	TryRun() bool
}

// SyncHandler handles the sync trigger endpoint.
type SyncHandler struct {
	trigger SyncTrigger
	log     zerolog.Logger
}

// NewSyncHandler creates a handler over the given trigger.
func NewSyncHandler(trigger SyncTrigger, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{trigger: trigger, log: log}
}

// TriggerSync starts a cycle on demand. A trigger arriving while a scheduled
// or manual cycle is in flight is rejected with 409 rather than queued; the
// interval timer retries soon enough.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if !h.trigger.TryRun() {
		h.log.Info().Msg("Sync trigger rejected, cycle already running")
		middleware.WriteError(w, http.StatusConflict, "Sync already running")
		return
	}

	h.log.Info().Msg("Sync triggered manually")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sync triggered"})
}

// Health is the liveness probe. No side effects.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
