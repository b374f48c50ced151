package entity

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the entities table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE entities (
			id TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			attributes TEXT NOT NULL DEFAULT '{}',
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

func TestSQLiteRepository_UpsertAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	e := &Entity{
		ID:         "light.kitchen",
		Value:      "on",
		Attributes: map[string]any{"brightness": 60.0},
		UpdatedAt:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}

	if err := repo.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByID(ctx, "light.kitchen")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Value != "on" {
		t.Errorf("Value = %q, want on", got.Value)
	}
	if got.Attributes["brightness"] != 60.0 {
		t.Errorf("brightness = %v, want 60", got.Attributes["brightness"])
	}
	if !got.UpdatedAt.Equal(e.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, e.UpdatedAt)
	}
}

func TestSQLiteRepository_UpsertReplaces(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	first := &Entity{ID: "light.hall", Value: "off", UpdatedAt: time.Now().UTC()}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := &Entity{ID: "light.hall", Value: "on", UpdatedAt: time.Now().UTC()}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := repo.GetByID(ctx, "light.hall")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Value != "on" {
		t.Errorf("Value = %q, want on after replace", got.Value)
	}

	entities, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entities) != 1 {
		t.Errorf("List = %d rows, want 1", len(entities))
	}
}

func TestSQLiteRepository_UpsertRejectsEmptyID(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	err := repo.Upsert(context.Background(), &Entity{Value: "on"})
	if !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got: %v", err)
	}
}

func TestSQLiteRepository_GetByIDNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	_, err := repo.GetByID(context.Background(), "light.ghost")
	if !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got: %v", err)
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	_ = repo.Upsert(ctx, &Entity{ID: "light.a", Value: "on", UpdatedAt: time.Now().UTC()})

	if err := repo.Delete(ctx, "light.a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "light.a"); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound on second delete, got: %v", err)
	}
}

func TestSQLiteRepository_List(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"light.b", "light.a", "light.c"} {
		if err := repo.Upsert(ctx, &Entity{ID: id, Value: "off", UpdatedAt: time.Now().UTC()}); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}

	entities, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entities) != 3 {
		t.Fatalf("List = %d rows, want 3", len(entities))
	}
	if entities[0].ID != "light.a" {
		t.Errorf("first entity = %q, want light.a (ordered by id)", entities[0].ID)
	}
}
