package sequencer

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultStoreEntityID is the entity that carries the persisted store
// when no other ID is configured. The entity behaves like a binary
// sensor: its state value is always "on" and the mapping lives in its
// "data" attribute.
const DefaultStoreEntityID = "binary_sensor.scene_sequencer_store"

// storeAttribute is the entity attribute holding the JSON-encoded store.
const storeAttribute = "data"

// storeEntityValue is the fixed state value of the store entity. The
// value itself is never read; only the attribute matters.
const storeEntityValue = "on"

// EntityBackend is the narrow slice of the entity registry the store
// adapter needs: one attribute read and one state write.
type EntityBackend interface {
	GetAttribute(ctx context.Context, entityID, name string) (string, bool)
	SetState(ctx context.Context, entityID, value string, attributes map[string]any) error
}

// EntityStore persists the sequence store as a single JSON document in
// one designated entity's attribute, the way the host platform exposes
// all of its state. It implements StoreBackend.
type EntityStore struct {
	entities EntityBackend
	entityID string
}

// NewEntityStore creates a store backend over the given entity registry.
// An empty entityID falls back to DefaultStoreEntityID.
func NewEntityStore(entities EntityBackend, entityID string) *EntityStore {
	if entityID == "" {
		entityID = DefaultStoreEntityID
	}
	return &EntityStore{
		entities: entities,
		entityID: entityID,
	}
}

// EntityID returns the entity carrying the store.
func (s *EntityStore) EntityID() string {
	return s.entityID
}

// Load reads and decodes the persisted mapping.
//
// A missing store entity or absent attribute is a fresh install and
// returns an empty store. Malformed JSON returns an error so the caller
// can decide to start empty; the next Save overwrites the damage.
func (s *EntityStore) Load(ctx context.Context) (Store, error) {
	raw, ok := s.entities.GetAttribute(ctx, s.entityID, storeAttribute)
	if !ok || raw == "" {
		return Store{}, nil
	}

	var store Store
	if err := json.Unmarshal([]byte(raw), &store); err != nil {
		return nil, fmt.Errorf("decoding sequence store: %w", err)
	}
	return store, nil
}

// Save encodes the mapping and rewrites the store entity in full.
func (s *EntityStore) Save(ctx context.Context, store Store) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("encoding sequence store: %w", err)
	}

	attrs := map[string]any{storeAttribute: string(data)}
	if err := s.entities.SetState(ctx, s.entityID, storeEntityValue, attrs); err != nil {
		return fmt.Errorf("writing sequence store: %w", err)
	}
	return nil
}
