package scene

import (
	"context"
	"fmt"
	"sync"
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

// Registry provides scene lookup with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups;
// writes go to the repository first so the cache never leads the
// persistent state.
type Registry struct {
	repo    Repository
	cache   map[string]*Scene // Cached scenes by ID
	cacheMu sync.RWMutex      // Protects cache
	logger  Logger
}

// NewRegistry creates a new scene registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Scene),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all scenes from the repository into the cache.
func (r *Registry) RefreshCache(ctx context.Context) error {
	scenes, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("refreshing scene cache: %w", err)
	}

	fresh := make(map[string]*Scene, len(scenes))
	for i := range scenes {
		fresh[scenes[i].ID] = &scenes[i]
	}

	r.cacheMu.Lock()
	r.cache = fresh
	r.cacheMu.Unlock()

	r.logger.Debug("scene cache refreshed", "count", len(fresh))
	return nil
}

// Get retrieves a scene by ID, consulting the cache first.
//
// Returns:
//   - *Scene: deep copy of the scene, safe to mutate
//   - error: ErrSceneNotFound if the scene does not exist
func (r *Registry) Get(ctx context.Context, id string) (*Scene, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()
	if ok {
		return cached.DeepCopy(), nil
	}

	s, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = s
	r.cacheMu.Unlock()

	return s.DeepCopy(), nil
}

// List returns all scenes as deep copies.
func (r *Registry) List(ctx context.Context) ([]Scene, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		scenes := make([]Scene, 0, len(r.cache))
		for _, s := range r.cache {
			scenes = append(scenes, *s.DeepCopy())
		}
		r.cacheMu.RUnlock()
		return scenes, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.List(ctx)
}

// Create validates and persists a new scene, then caches it.
func (r *Registry) Create(ctx context.Context, s *Scene) error {
	if err := r.repo.Create(ctx, s); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[s.ID] = s.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("scene created", "scene_id", s.ID, "name", s.Name)
	return nil
}

// Update validates and persists a changed scene definition.
func (r *Registry) Update(ctx context.Context, s *Scene) error {
	if err := r.repo.Update(ctx, s); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[s.ID] = s.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("scene updated", "scene_id", s.ID)
	return nil
}

// Delete removes a scene from the repository and the cache.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("scene deleted", "scene_id", id)
	return nil
}

// SceneEntities returns the entity-to-expected-state map for a scene.
// Entities without a declared target state are reported with an empty
// value; callers decide how to interpret that.
func (r *Registry) SceneEntities(ctx context.Context, id string) (map[string]string, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Entities == nil {
		return map[string]string{}, nil
	}
	return s.Entities, nil
}

// Count returns the number of cached scenes.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}
