package api

import (
	"io"
	"net/http"

	"github.com/nerrad567/scene-sequencer/internal/sequencer"
)

// handleCycle advances a scene sequence and activates the resulting scene.
//
// The body uses the same shape as the MQTT service payload: a "scenes"
// field holding either a bare scene ID array or an {"entity_id": [...]}
// object, plus an optional "go_to_last_timeout" in seconds. Unlike the
// fire-and-forget MQTT path, failures are reported to the caller.
func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return
	}

	req := sequencer.DecodeCycleRequest(body)
	if len(req.Scenes) == 0 {
		writeBadRequest(w, "scenes list is required")
		return
	}

	result, err := s.handler.Cycle(r.Context(), req)
	if err != nil {
		s.logger.Warn("cycle via API failed", "error", err)
		writeInternalError(w, "failed to cycle sequence")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetStore returns the persisted sequence cursor store.
//
// This is a diagnostic view: keys are sequence hashes, values the cursor
// state the next cycle call for that sequence will resume from.
func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeInternalError(w, "sequence store not available")
		return
	}

	store, err := s.store.Load(r.Context())
	if err != nil {
		writeInternalError(w, "failed to load sequence store")
		return
	}
	if store == nil {
		store = sequencer.Store{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": store,
		"count":   len(store),
	})
}
