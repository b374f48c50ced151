package scene

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the scenes table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE scenes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			entities TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	s := &Scene{
		ID:   "scene.morning",
		Name: "Morning",
		Entities: map[string]string{
			"light.kitchen": "on",
			"light.bedroom": "off",
		},
	}

	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("expected Create to stamp timestamps")
	}

	got, err := repo.GetByID(ctx, "scene.morning")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Morning" {
		t.Errorf("expected name Morning, got %q", got.Name)
	}
	if got.Entities["light.kitchen"] != "on" {
		t.Errorf("expected light.kitchen=on, got %q", got.Entities["light.kitchen"])
	}
	if len(got.Entities) != 2 {
		t.Errorf("expected 2 entities, got %d", len(got.Entities))
	}
}

func TestSQLiteRepository_CreateRejectsInvalid(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		scene *Scene
		want  error
	}{
		{"empty id", &Scene{Name: "x"}, ErrInvalidID},
		{"whitespace id", &Scene{ID: "scene. bad", Name: "x"}, ErrInvalidID},
		{"empty name", &Scene{ID: "scene.ok"}, ErrInvalidScene},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(ctx, tt.scene); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSQLiteRepository_GetNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "scene.missing")
	if !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("expected ErrSceneNotFound, got %v", err)
	}
}

func TestSQLiteRepository_Update(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	s := &Scene{ID: "scene.day", Name: "Day", Entities: map[string]string{"light.hall": "on"}}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.Name = "Daytime"
	s.Entities["light.hall"] = "off"
	if err := repo.Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, "scene.day")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Daytime" {
		t.Errorf("expected name Daytime, got %q", got.Name)
	}
	if got.Entities["light.hall"] != "off" {
		t.Errorf("expected light.hall=off, got %q", got.Entities["light.hall"])
	}
}

func TestSQLiteRepository_UpdateNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	s := &Scene{ID: "scene.ghost", Name: "Ghost"}
	if err := repo.Update(context.Background(), s); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("expected ErrSceneNotFound, got %v", err)
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	s := &Scene{ID: "scene.temp", Name: "Temp"}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, "scene.temp"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "scene.temp"); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("expected ErrSceneNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "scene.temp"); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("expected ErrSceneNotFound for repeated delete, got %v", err)
	}
}

func TestSQLiteRepository_ListOrdered(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"scene.c", "scene.a", "scene.b"} {
		if err := repo.Create(ctx, &Scene{ID: id, Name: id}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	scenes, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}
	want := []string{"scene.a", "scene.b", "scene.c"}
	for i, id := range want {
		if scenes[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, scenes[i].ID)
		}
	}
}
