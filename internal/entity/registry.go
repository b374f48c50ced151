package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides entity state tracking with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups;
// state writes go through to the repository so they survive restarts.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Entity // Cached entities by ID
	cacheMu sync.RWMutex       // Protects cache
	logger  Logger
	clock   func() time.Time
}

// NewRegistry creates a new entity registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Entity),
		logger: noopLogger{},
		clock:  time.Now,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetClock overrides the time source, used by tests.
func (r *Registry) SetClock(clock func() time.Time) {
	r.clock = clock
}

// RefreshCache reloads all entities from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	entities, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading entities: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Entity, len(entities))
	for i := range entities {
		e := entities[i]
		r.cache[e.ID] = e.DeepCopy()
	}

	r.logger.Info("entity cache refreshed", "count", len(entities))
	return nil
}

// Get retrieves an entity by ID.
// The returned entity is a deep copy; callers can safely modify it.
func (r *Registry) Get(ctx context.Context, id string) (*Entity, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}

	// Fall back to repository (might be a new entity not yet cached)
	e, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = e.DeepCopy()
	r.cacheMu.Unlock()

	return e, nil
}

// List retrieves all cached entities, sorted by nothing in particular.
// The returned entities are deep copies.
func (r *Registry) List(ctx context.Context) ([]Entity, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		entities := make([]Entity, 0, len(r.cache))
		for _, e := range r.cache {
			entities = append(entities, *e.DeepCopy())
		}
		r.cacheMu.RUnlock()
		return entities, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.List(ctx)
}

// SetState writes an entity's state value and attributes, creating the
// entity if it does not exist. The write goes to the repository first,
// then the cache, so a failed persist never leaves a phantom cache entry.
func (r *Registry) SetState(ctx context.Context, id, value string, attributes map[string]any) error {
	if id == "" {
		return ErrInvalidID
	}

	e := &Entity{
		ID:         id,
		Value:      value,
		Attributes: deepCopyMap(attributes),
		UpdatedAt:  r.clock().UTC(),
	}

	if err := r.repo.Upsert(ctx, e); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[id] = e
	r.cacheMu.Unlock()

	r.logger.Debug("entity state updated", "entity_id", id, "value", value)
	return nil
}

// Delete removes an entity from the repository and the cache.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("entity deleted", "entity_id", id)
	return nil
}

// GetValue returns an entity's current state string.
// The second return value is false when the entity is unknown.
func (r *Registry) GetValue(ctx context.Context, id string) (string, bool) {
	e, err := r.Get(ctx, id)
	if err != nil {
		return "", false
	}
	return e.Value, true
}

// GetAttribute returns a string attribute of an entity.
// Missing entities, missing attributes, and non-string values all
// report absent rather than erroring.
func (r *Registry) GetAttribute(ctx context.Context, id, name string) (string, bool) {
	e, err := r.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrEntityNotFound) {
			r.logger.Warn("attribute lookup failed", "entity_id", id, "error", err)
		}
		return "", false
	}

	value, ok := e.Attributes[name].(string)
	return value, ok
}

// Count returns the number of cached entities.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}
