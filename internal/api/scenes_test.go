package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/scene-sequencer/internal/scene"
)

// ─── Scene CRUD Tests ──────────────────────────────────────────────

func TestListScenes_Empty(t *testing.T) {
	srv, _, _, _ := testServer(t)
	router := srv.buildRouter()

	req := authedRequest(t, http.MethodGet, "/api/v1/scenes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if int(resp["count"].(float64)) != 0 {
		t.Errorf("count = %v, want 0", resp["count"])
	}
}

func TestCreateAndGetScene(t *testing.T) {
	srv, _, _, _ := testServer(t)
	router := srv.buildRouter()

	body := `{
		"name": "Evening",
		"entities": {"light.hall": "on", "light.porch": "off"}
	}`

	req := authedRequest(t, http.MethodPost, "/api/v1/scenes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var created scene.Scene
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal created: %v", err)
	}

	if created.ID == "" {
		t.Error("expected scene ID to be auto-generated")
	}
	if !strings.HasPrefix(created.ID, "scene.") {
		t.Errorf("ID = %q, want scene. prefix", created.ID)
	}

	// Get scene by ID
	req = authedRequest(t, http.MethodGet, "/api/v1/scenes/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}

	var got scene.Scene
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal got: %v", err)
	}

	if got.Name != "Evening" {
		t.Errorf("name = %q, want %q", got.Name, "Evening")
	}
	if got.Entities["light.hall"] != "on" {
		t.Errorf("entities[light.hall] = %q, want %q", got.Entities["light.hall"], "on")
	}
}

func TestCreateScene_Invalid(t *testing.T) {
	srv, _, _, _ := testServer(t)
	router := srv.buildRouter()

	// Missing name fails validation
	body := `{"entities": {"light.hall": "on"}}`
	req := authedRequest(t, http.MethodPost, "/api/v1/scenes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusBadRequest, w.Body.String())
	}
}

func TestGetScene_NotFound(t *testing.T) {
	srv, _, _, _ := testServer(t)
	router := srv.buildRouter()

	req := authedRequest(t, http.MethodGet, "/api/v1/scenes/scene.nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestUpdateScene(t *testing.T) {
	srv, _, scenes, _ := testServer(t)
	router := srv.buildRouter()

	sc := &scene.Scene{
		ID:       "scene.original",
		Name:     "Original",
		Entities: map[string]string{"light.hall": "on"},
	}
	if err := scenes.Create(context.Background(), sc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	body := `{"name": "Updated"}`
	req := authedRequest(t, http.MethodPatch, "/api/v1/scenes/"+sc.ID, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var updated scene.Scene
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if updated.Name != "Updated" {
		t.Errorf("name = %q, want %q", updated.Name, "Updated")
	}
	// Entities untouched by the partial update
	if updated.Entities["light.hall"] != "on" {
		t.Errorf("entities[light.hall] = %q, want %q", updated.Entities["light.hall"], "on")
	}
}

func TestDeleteScene(t *testing.T) {
	srv, _, scenes, _ := testServer(t)
	router := srv.buildRouter()

	sc := &scene.Scene{
		ID:       "scene.to_delete",
		Name:     "To Delete",
		Entities: map[string]string{"light.hall": "off"},
	}
	if err := scenes.Create(context.Background(), sc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := authedRequest(t, http.MethodDelete, "/api/v1/scenes/"+sc.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	// Confirm gone
	req = authedRequest(t, http.MethodGet, "/api/v1/scenes/"+sc.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Scene Activation Tests ────────────────────────────────────────

func TestActivateScene(t *testing.T) {
	srv, _, scenes, _ := testServer(t)
	pub := &fakePublisher{}
	srv.activator = scene.NewActivator(pub)
	router := srv.buildRouter()

	sc := &scene.Scene{
		ID:       "scene.evening",
		Name:     "Evening",
		Entities: map[string]string{"light.hall": "on"},
	}
	if err := scenes.Create(context.Background(), sc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := authedRequest(t, http.MethodPost, "/api/v1/scenes/scene.evening/activate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	if len(pub.topics) != 1 {
		t.Fatalf("published %d commands, want 1", len(pub.topics))
	}
	if pub.topics[0] != "graylogic/command/scene/scene.evening" {
		t.Errorf("topic = %q, want %q", pub.topics[0], "graylogic/command/scene/scene.evening")
	}
}

func TestActivateScene_NotFound(t *testing.T) {
	srv, _, _, _ := testServer(t)
	router := srv.buildRouter()

	req := authedRequest(t, http.MethodPost, "/api/v1/scenes/scene.ghost/activate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
