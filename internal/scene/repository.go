package scene

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for scene persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Scene, error)
	List(ctx context.Context) ([]Scene, error)
	Create(ctx context.Context, scene *Scene) error
	Update(ctx context.Context, scene *Scene) error
	Delete(ctx context.Context, id string) error
}

// sceneColumns is the SELECT column list for scene queries.
const sceneColumns = `id, name, entities, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a scene by its identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Scene, error) {
	query := `SELECT ` + sceneColumns + ` FROM scenes WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	s, err := scanScene(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSceneNotFound
		}
		return nil, fmt.Errorf("querying scene by id: %w", err)
	}
	return s, nil
}

// List retrieves all scenes ordered by ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Scene, error) {
	query := `SELECT ` + sceneColumns + ` FROM scenes ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying scenes: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows close

	var scenes []Scene
	for rows.Next() {
		s, scanErr := scanScene(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning scene: %w", scanErr)
		}
		scenes = append(scenes, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenes: %w", err)
	}
	return scenes, nil
}

// Create inserts a new scene.
func (r *SQLiteRepository) Create(ctx context.Context, scene *Scene) error {
	if err := Validate(scene); err != nil {
		return err
	}

	entitiesJSON, err := json.Marshal(scene.Entities)
	if err != nil {
		return fmt.Errorf("marshalling entities: %w", err)
	}

	now := time.Now().UTC()
	if scene.CreatedAt.IsZero() {
		scene.CreatedAt = now
	}
	scene.UpdatedAt = now

	query := `
		INSERT INTO scenes (id, name, entities, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		scene.ID,
		scene.Name,
		string(entitiesJSON),
		scene.CreatedAt.Format(time.RFC3339Nano),
		scene.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting scene: %w", err)
	}
	return nil
}

// Update replaces an existing scene definition.
func (r *SQLiteRepository) Update(ctx context.Context, scene *Scene) error {
	if err := Validate(scene); err != nil {
		return err
	}

	entitiesJSON, err := json.Marshal(scene.Entities)
	if err != nil {
		return fmt.Errorf("marshalling entities: %w", err)
	}

	scene.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE scenes
		SET name = ?, entities = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		scene.Name,
		string(entitiesJSON),
		scene.UpdatedAt.Format(time.RFC3339Nano),
		scene.ID,
	)
	if err != nil {
		return fmt.Errorf("updating scene: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrSceneNotFound
	}
	return nil
}

// Delete removes a scene.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting scene: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrSceneNotFound
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanScene scans one scene row.
func scanScene(row rowScanner) (*Scene, error) {
	var (
		s            Scene
		entitiesJSON string
		createdAt    string
		updatedAt    string
	)

	if err := row.Scan(&s.ID, &s.Name, &entitiesJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if entitiesJSON != "" && entitiesJSON != "null" {
		if err := json.Unmarshal([]byte(entitiesJSON), &s.Entities); err != nil {
			return nil, fmt.Errorf("unmarshalling entities: %w", err)
		}
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	s.CreatedAt = created

	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	s.UpdatedAt = updated

	return &s, nil
}
