package entity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for entity persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context) ([]Entity, error)
	Upsert(ctx context.Context, entity *Entity) error
	Delete(ctx context.Context, id string) error
}

// entityColumns is the SELECT column list for entity queries.
const entityColumns = `id, value, attributes, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves an entity by its identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	e, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("querying entity by id: %w", err)
	}
	return e, nil
}

// List retrieves all entities ordered by ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows close

	var entities []Entity
	for rows.Next() {
		e, scanErr := scanEntity(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning entity: %w", scanErr)
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return entities, nil
}

// Upsert inserts the entity or replaces its state if it already exists.
// State writes are idempotent by design: the latest value always wins.
func (r *SQLiteRepository) Upsert(ctx context.Context, entity *Entity) error {
	if entity.ID == "" {
		return ErrInvalidID
	}

	attrsJSON, err := json.Marshal(entity.Attributes)
	if err != nil {
		return fmt.Errorf("marshalling attributes: %w", err)
	}

	if entity.UpdatedAt.IsZero() {
		entity.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO entities (id, value, attributes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value = excluded.value,
			attributes = excluded.attributes,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		entity.ID,
		entity.Value,
		string(attrsJSON),
		entity.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting entity: %w", err)
	}
	return nil
}

// Delete removes an entity.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrEntityNotFound
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntity scans one entity row.
func scanEntity(row rowScanner) (*Entity, error) {
	var (
		e         Entity
		attrsJSON string
		updatedAt string
	)

	if err := row.Scan(&e.ID, &e.Value, &attrsJSON, &updatedAt); err != nil {
		return nil, err
	}

	if attrsJSON != "" && attrsJSON != "null" {
		if err := json.Unmarshal([]byte(attrsJSON), &e.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshalling attributes: %w", err)
		}
	}

	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	e.UpdatedAt = ts

	return &e, nil
}
