package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/scene-sequencer/internal/entity"
)

// handleListEntities returns all known entities.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := s.entities.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list entities")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": entities, "count": len(entities)})
}

// handleGetEntity returns a single entity by ID.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid entity ID")
		return
	}

	ent, err := s.entities.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrEntityNotFound) {
			writeNotFound(w, "entity not found")
			return
		}
		writeInternalError(w, "failed to get entity")
		return
	}

	writeJSON(w, http.StatusOK, ent)
}

// handleDeleteEntity removes an entity.
//
// Entities normally appear and disappear with the platform's device
// inventory; this endpoint clears out stragglers left behind after a
// device is decommissioned.
func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid entity ID")
		return
	}

	if err := s.entities.Delete(r.Context(), id); err != nil {
		if errors.Is(err, entity.ErrEntityNotFound) {
			writeNotFound(w, "entity not found")
			return
		}
		writeInternalError(w, "failed to delete entity")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// setStateRequest is the request body for PUT /entities/{id}/state.
type setStateRequest struct {
	Value      string         `json:"value"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// handleSetEntityState writes an entity's live state directly.
//
// This mirrors what the MQTT state stream does and exists for manual
// correction and testing. Unknown entities are created on first write,
// matching the stream's behaviour.
func (s *Server) handleSetEntityState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid entity ID")
		return
	}

	var req setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == "" {
		writeBadRequest(w, "value is required")
		return
	}

	if err := s.entities.SetState(r.Context(), id, req.Value, req.Attributes); err != nil {
		if errors.Is(err, entity.ErrInvalidID) {
			writeBadRequest(w, "invalid entity ID")
			return
		}
		writeInternalError(w, "failed to set entity state")
		return
	}

	ent, err := s.entities.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, "failed to read back entity")
		return
	}

	writeJSON(w, http.StatusOK, ent)
}
