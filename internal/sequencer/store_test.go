package sequencer

import (
	"context"
	"testing"
)

// fakeEntityBackend holds entity attributes in memory.
type fakeEntityBackend struct {
	attributes map[string]map[string]any
	setErr     error
	lastValue  string
}

func newFakeEntityBackend() *fakeEntityBackend {
	return &fakeEntityBackend{attributes: make(map[string]map[string]any)}
}

func (f *fakeEntityBackend) GetAttribute(_ context.Context, entityID, name string) (string, bool) {
	attrs, ok := f.attributes[entityID]
	if !ok {
		return "", false
	}
	value, ok := attrs[name].(string)
	return value, ok
}

func (f *fakeEntityBackend) SetState(_ context.Context, entityID, value string, attributes map[string]any) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.lastValue = value
	f.attributes[entityID] = attributes
	return nil
}

func TestEntityStore_RoundTrip(t *testing.T) {
	backend := newFakeEntityBackend()
	store := NewEntityStore(backend, "")
	ctx := context.Background()

	if store.EntityID() != DefaultStoreEntityID {
		t.Errorf("EntityID = %q, want default", store.EntityID())
	}

	in := Store{
		"abc1234567": {Index: 2, LastActivation: 1755691200.5, LastUsed: 1755691200.5},
	}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if backend.lastValue != "on" {
		t.Errorf("store entity value = %q, want on", backend.lastValue)
	}

	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, ok := out["abc1234567"]
	if !ok {
		t.Fatal("entry missing after round trip")
	}
	if entry.Index != 2 || entry.LastActivation != 1755691200.5 {
		t.Errorf("entry = %+v", entry)
	}
}

func TestEntityStore_FreshInstallLoadsEmpty(t *testing.T) {
	store := NewEntityStore(newFakeEntityBackend(), "binary_sensor.custom")

	out, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("store = %v, want empty", out)
	}
}

func TestEntityStore_MalformedAttribute(t *testing.T) {
	backend := newFakeEntityBackend()
	backend.attributes[DefaultStoreEntityID] = map[string]any{"data": "{not json"}
	store := NewEntityStore(backend, "")

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatal("expected decode error for malformed attribute")
	}
}
