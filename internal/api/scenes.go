package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/scene-sequencer/internal/scene"
)

// maxQueryParamLen limits query parameter length to prevent DoS via oversized URL params.
const maxQueryParamLen = 100

// handleListScenes returns all registered scenes.
func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.scenes.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list scenes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": scenes, "count": len(scenes)})
}

// handleGetScene returns a single scene by ID.
func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid scene ID")
		return
	}

	sc, err := s.scenes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, scene.ErrSceneNotFound) {
			writeNotFound(w, "scene not found")
			return
		}
		writeInternalError(w, "failed to get scene")
		return
	}

	writeJSON(w, http.StatusOK, sc)
}

// handleCreateScene creates a new scene.
// An omitted ID is generated server-side.
func (s *Server) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	var sc scene.Scene
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if sc.ID == "" {
		sc.ID = scene.GenerateID()
	}

	if err := s.scenes.Create(r.Context(), &sc); err != nil {
		if errors.Is(err, scene.ErrInvalidScene) || errors.Is(err, scene.ErrInvalidID) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to create scene")
		return
	}

	writeJSON(w, http.StatusCreated, sc)
}

// handleUpdateScene partially updates a scene.
func (s *Server) handleUpdateScene(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid scene ID")
		return
	}

	// Get existing scene
	existing, err := s.scenes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, scene.ErrSceneNotFound) {
			writeNotFound(w, "scene not found")
			return
		}
		writeInternalError(w, "failed to get scene")
		return
	}

	// Decode partial update onto existing scene
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	existing.ID = id // Ensure ID cannot be changed

	if err := s.scenes.Update(r.Context(), existing); err != nil {
		if errors.Is(err, scene.ErrInvalidScene) || errors.Is(err, scene.ErrInvalidID) {
			writeBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, scene.ErrSceneNotFound) {
			writeNotFound(w, "scene not found")
			return
		}
		writeInternalError(w, "failed to update scene")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteScene removes a scene by ID.
func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid scene ID")
		return
	}

	if err := s.scenes.Delete(r.Context(), id); err != nil {
		if errors.Is(err, scene.ErrSceneNotFound) {
			writeNotFound(w, "scene not found")
			return
		}
		writeInternalError(w, "failed to delete scene")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleActivateScene publishes an activation command for a scene.
// This is an asynchronous operation: the command is handed to the
// platform core over MQTT and the response is 202 Accepted. Resulting
// entity state changes arrive via the WebSocket state stream.
func (s *Server) handleActivateScene(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid scene ID")
		return
	}

	if s.activator == nil {
		writeInternalError(w, "scene activation not available")
		return
	}

	// Verify the scene exists before publishing a command for it
	if _, err := s.scenes.Get(r.Context(), id); err != nil {
		if errors.Is(err, scene.ErrSceneNotFound) {
			writeNotFound(w, "scene not found")
			return
		}
		writeInternalError(w, "failed to get scene")
		return
	}

	if err := s.activator.Activate(r.Context(), id); err != nil {
		if errors.Is(err, scene.ErrInvalidID) {
			writeBadRequest(w, "invalid scene ID")
			return
		}
		writeInternalError(w, "failed to activate scene")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"scene_id": id,
		"status":   "accepted",
		"message":  "scene activation dispatched, state updates will follow via WebSocket",
	})
}
