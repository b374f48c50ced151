package sequencer

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memStore is an in-memory StoreBackend for testing.
type memStore struct {
	store   Store
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(_ context.Context) (Store, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	cpy := make(Store, len(m.store))
	for k, v := range m.store {
		cpy[k] = v
	}
	return cpy, nil
}

func (m *memStore) Save(_ context.Context, store Store) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	cpy := make(Store, len(store))
	for k, v := range store {
		cpy[k] = v
	}
	m.store = cpy
	return nil
}

// fakeStates serves live entity states from a map.
type fakeStates struct {
	states map[string]string
}

func (f *fakeStates) GetState(_ context.Context, entityID string) (EntityState, bool) {
	value, ok := f.states[entityID]
	if !ok {
		return EntityState{}, false
	}
	return EntityState{Value: value}, true
}

// fakeActivator records activations and can be made to fail.
type fakeActivator struct {
	activated []string
	err       error
}

func (f *fakeActivator) Activate(_ context.Context, sceneID string) error {
	if f.err != nil {
		return f.err
	}
	f.activated = append(f.activated, sceneID)
	return nil
}

// fakeScenes resolves scene member entities from a map.
type fakeScenes struct {
	entities map[string]map[string]string
	err      error
}

func (f *fakeScenes) SceneEntities(_ context.Context, sceneID string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entities[sceneID], nil
}

// fakeHub records broadcast channels.
type fakeHub struct {
	channels []string
}

func (f *fakeHub) Broadcast(channel string, _ any) {
	f.channels = append(f.channels, channel)
}

// fakeMetrics records telemetry calls.
type fakeMetrics struct {
	cycles    int
	storeSize int
	swept     int
}

func (f *fakeMetrics) RecordCycle(string, string, Branch, time.Duration) {
	f.cycles++
}

func (f *fakeMetrics) RecordStoreSize(size, swept int) {
	f.storeSize = size
	f.swept = swept
}

// testDeps bundles the handler fakes for one test.
type testDeps struct {
	store     *memStore
	states    *fakeStates
	activator *fakeActivator
	scenes    *fakeScenes
	now       time.Time
}

func newTestHandler(deps *testDeps, opts Options) *Handler {
	if deps.store == nil {
		deps.store = &memStore{store: Store{}}
	}
	if deps.states == nil {
		deps.states = &fakeStates{states: map[string]string{}}
	}
	if deps.activator == nil {
		deps.activator = &fakeActivator{}
	}
	if deps.scenes == nil {
		deps.scenes = &fakeScenes{entities: map[string]map[string]string{}}
	}
	if deps.now.IsZero() {
		deps.now = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return deps.now }
	}
	return NewHandler(deps.store, deps.states, deps.activator, deps.scenes, opts)
}

func TestHandler_RoundRobin(t *testing.T) {
	deps := &testDeps{}
	h := newTestHandler(deps, Options{})
	ctx := context.Background()

	scenes := []string{"scene.morning", "scene.day", "scene.evening"}
	req := CycleRequest{Scenes: scenes}

	want := []string{
		"scene.morning", "scene.day", "scene.evening",
		"scene.morning", "scene.day", "scene.evening",
		"scene.morning",
	}
	for i := range want {
		result, err := h.Cycle(ctx, req)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if result.Target != want[i] {
			t.Fatalf("call %d activated %q, want %q", i, result.Target, want[i])
		}
		if result.Branch != BranchAdvance {
			t.Fatalf("call %d branch = %q, want %q", i, result.Branch, BranchAdvance)
		}
	}

	if len(deps.activator.activated) != len(want) {
		t.Errorf("activations = %d, want %d", len(deps.activator.activated), len(want))
	}
	if deps.store.saves != len(want) {
		t.Errorf("store writes = %d, want %d", deps.store.saves, len(want))
	}
}

func TestHandler_TimestampDisarmsAtCycleEnd(t *testing.T) {
	deps := &testDeps{}
	h := newTestHandler(deps, Options{})
	ctx := context.Background()

	req := CycleRequest{Scenes: []string{"scene.a", "scene.b"}}
	key := GenerateKey(req.Scenes)

	// First call: cursor moves to 1, timeout armed.
	if _, err := h.Cycle(ctx, req); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if entry := deps.store.store[key]; entry.LastActivation == 0 {
		t.Error("mid-cycle entry should have the timeout armed")
	}

	// Second call: cursor wraps to 0, timeout disarmed.
	if _, err := h.Cycle(ctx, req); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	entry := deps.store.store[key]
	if entry.Index != 0 {
		t.Errorf("Index = %d, want 0", entry.Index)
	}
	if entry.LastActivation != 0 {
		t.Errorf("LastActivation = %v, want 0 after full cycle", entry.LastActivation)
	}
	if entry.LastUsed == 0 {
		t.Error("LastUsed should always be stamped")
	}
}

func TestHandler_EmptyScenesIsNoOp(t *testing.T) {
	deps := &testDeps{}
	h := newTestHandler(deps, Options{})

	result, err := h.Cycle(context.Background(), CycleRequest{})
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if len(deps.activator.activated) != 0 {
		t.Error("no-op call activated a scene")
	}
	if deps.store.saves != 0 {
		t.Error("no-op call wrote the store")
	}
}

func TestHandler_TimeoutJumpToLast(t *testing.T) {
	scenes := []string{"scene.a", "scene.b", "scene.c"}
	key := GenerateKey(scenes)
	armed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	deps := &testDeps{
		store: &memStore{store: Store{
			key: {Index: 2, LastActivation: unixSeconds(armed), LastUsed: unixSeconds(armed)},
		}},
		// Live states do not match scene.c's definition.
		states: &fakeStates{states: map[string]string{"light.lamp": "on"}},
		scenes: &fakeScenes{entities: map[string]map[string]string{
			"scene.c": {"light.lamp": "off"},
		}},
		now: armed.Add(60 * time.Second),
	}
	h := newTestHandler(deps, Options{})

	result, err := h.Cycle(context.Background(), CycleRequest{Scenes: scenes, GoToLastTimeout: 60})
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	if result.Target != "scene.c" {
		t.Errorf("Target = %q, want scene.c", result.Target)
	}
	if result.Branch != BranchJumpToLast {
		t.Errorf("Branch = %q, want %q", result.Branch, BranchJumpToLast)
	}
	entry := deps.store.store[key]
	if entry.Index != 0 {
		t.Errorf("Index = %d, want 0", entry.Index)
	}
	if entry.LastActivation != 0 {
		t.Errorf("LastActivation = %v, want 0", entry.LastActivation)
	}
}

func TestHandler_TimeoutSkipAhead(t *testing.T) {
	scenes := []string{"scene.a", "scene.b", "scene.c"}
	key := GenerateKey(scenes)
	armed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	deps := &testDeps{
		store: &memStore{store: Store{
			key: {Index: 2, LastActivation: unixSeconds(armed), LastUsed: unixSeconds(armed)},
		}},
		// Live states already match scene.c's definition.
		states: &fakeStates{states: map[string]string{
			"light.lamp":  "off",
			"light.shelf": "dim",
		}},
		scenes: &fakeScenes{entities: map[string]map[string]string{
			"scene.c": {"light.lamp": "", "light.shelf": "dim"},
		}},
		now: armed.Add(90 * time.Second),
	}
	h := newTestHandler(deps, Options{})

	result, err := h.Cycle(context.Background(), CycleRequest{Scenes: scenes, GoToLastTimeout: 60})
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	if result.Target != "scene.a" {
		t.Errorf("Target = %q, want scene.a", result.Target)
	}
	if result.Branch != BranchSkipAhead {
		t.Errorf("Branch = %q, want %q", result.Branch, BranchSkipAhead)
	}
	entry := deps.store.store[key]
	if entry.Index != 1 {
		t.Errorf("Index = %d, want 1", entry.Index)
	}
	if entry.LastActivation == 0 {
		t.Error("skip-ahead should leave the timeout armed")
	}
}

func TestHandler_TimeoutNotArmed(t *testing.T) {
	// LastActivation == 0 means the cycle just wrapped: no divert even
	// when the timeout has long elapsed.
	scenes := []string{"scene.a", "scene.b"}
	key := GenerateKey(scenes)

	deps := &testDeps{
		store: &memStore{store: Store{
			key: {Index: 0, LastActivation: 0, LastUsed: 1},
		}},
	}
	h := newTestHandler(deps, Options{})

	result, err := h.Cycle(context.Background(), CycleRequest{Scenes: scenes, GoToLastTimeout: 1})
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if result.Branch != BranchAdvance {
		t.Errorf("Branch = %q, want %q", result.Branch, BranchAdvance)
	}
	if result.Target != "scene.a" {
		t.Errorf("Target = %q, want scene.a", result.Target)
	}
}

func TestHandler_UnreadableStoreStartsEmpty(t *testing.T) {
	deps := &testDeps{
		store: &memStore{loadErr: errors.New("attribute is not JSON")},
	}
	deps.store.store = Store{}
	h := newTestHandler(deps, Options{})

	req := CycleRequest{Scenes: []string{"scene.a", "scene.b"}}
	result, err := h.Cycle(context.Background(), req)
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if result.Target != "scene.a" {
		t.Errorf("Target = %q, want scene.a (fresh cursor)", result.Target)
	}

	// The save path still ran, producing a valid store.
	deps.store.loadErr = nil
	entry := deps.store.store[GenerateKey(req.Scenes)]
	if entry.Index != 1 {
		t.Errorf("Index = %d, want 1", entry.Index)
	}
}

func TestHandler_SweepRunsOnEveryCall(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	deps := &testDeps{
		store: &memStore{store: Store{
			"0123456789": {Index: 1, LastUsed: unixSeconds(now.Add(-RetentionWindow - time.Hour))},
		}},
		now: now,
	}
	h := newTestHandler(deps, Options{})

	// Cycle a different sequence entirely; the stale entry still goes.
	result, err := h.Cycle(context.Background(), CycleRequest{Scenes: []string{"scene.x"}})
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if result.Swept != 1 {
		t.Errorf("Swept = %d, want 1", result.Swept)
	}
	if _, ok := deps.store.store["0123456789"]; ok {
		t.Error("stale entry survived a cycle on another sequence")
	}
}

func TestHandler_ActivationFailureSkipsPersist(t *testing.T) {
	deps := &testDeps{
		activator: &fakeActivator{err: errors.New("bridge offline")},
	}
	h := newTestHandler(deps, Options{})

	_, err := h.Cycle(context.Background(), CycleRequest{Scenes: []string{"scene.a"}})
	if err == nil {
		t.Fatal("expected activation error")
	}
	if deps.store.saves != 0 {
		t.Error("store was written despite activation failure")
	}
}

func TestHandler_SaveFailureIsNotFatal(t *testing.T) {
	deps := &testDeps{
		store: &memStore{store: Store{}, saveErr: errors.New("disk full")},
	}
	h := newTestHandler(deps, Options{})

	result, err := h.Cycle(context.Background(), CycleRequest{Scenes: []string{"scene.a", "scene.b"}})
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if result == nil || result.Target != "scene.a" {
		t.Errorf("result = %+v, want scene.a activation", result)
	}
}

func TestHandler_SingleSceneSkipAheadKeepsIndexInRange(t *testing.T) {
	scenes := []string{"scene.only"}
	key := GenerateKey(scenes)
	armed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	deps := &testDeps{
		store: &memStore{store: Store{
			key: {Index: 0, LastActivation: unixSeconds(armed), LastUsed: unixSeconds(armed)},
		}},
		states: &fakeStates{states: map[string]string{"light.lamp": "off"}},
		scenes: &fakeScenes{entities: map[string]map[string]string{
			"scene.only": {"light.lamp": "off"},
		}},
		now: armed.Add(2 * time.Minute),
	}
	h := newTestHandler(deps, Options{})

	result, err := h.Cycle(context.Background(), CycleRequest{Scenes: scenes, GoToLastTimeout: 60})
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if result.NextIndex != 0 {
		t.Errorf("NextIndex = %d, want 0 for a single-scene sequence", result.NextIndex)
	}
}

func TestHandler_OutOfRangeIndexIsWrapped(t *testing.T) {
	// The cursor lives in an externally writable entity attribute, so a
	// persisted index can be negative or past the end of the sequence.
	scenes := []string{"scene.a", "scene.b", "scene.c"}
	key := GenerateKey(scenes)
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		index      int
		wantTarget string
	}{
		{"negative", -1, "scene.c"},
		{"past end", 7, "scene.b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := &testDeps{
				store: &memStore{store: Store{
					key: {Index: tc.index, LastUsed: unixSeconds(now)},
				}},
				now: now,
			}
			h := newTestHandler(deps, Options{})

			result, err := h.Cycle(context.Background(), CycleRequest{Scenes: scenes})
			if err != nil {
				t.Fatalf("Cycle: %v", err)
			}
			if result.Target != tc.wantTarget {
				t.Errorf("Target = %q, want %q", result.Target, tc.wantTarget)
			}
			if result.NextIndex < 0 || result.NextIndex >= len(scenes) {
				t.Errorf("NextIndex = %d, out of range", result.NextIndex)
			}
		})
	}
}

func TestHandler_ReportsStoreSize(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	deps := &testDeps{
		store: &memStore{store: Store{
			"0123456789": {Index: 1, LastUsed: unixSeconds(now.Add(-RetentionWindow - time.Hour))},
			"abcdef0123": {Index: 2, LastUsed: unixSeconds(now)},
		}},
		now: now,
	}
	metrics := &fakeMetrics{}
	h := newTestHandler(deps, Options{Metrics: metrics})

	if _, err := h.Cycle(context.Background(), CycleRequest{Scenes: []string{"scene.x"}}); err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	// One entry swept, one kept; the size is reported after the sweep.
	if metrics.swept != 1 {
		t.Errorf("swept = %d, want 1", metrics.swept)
	}
	if metrics.storeSize != 1 {
		t.Errorf("storeSize = %d, want 1", metrics.storeSize)
	}
	if metrics.cycles != 1 {
		t.Errorf("cycles = %d, want 1", metrics.cycles)
	}
}

func TestHandler_BroadcastsCycleEvent(t *testing.T) {
	deps := &testDeps{}
	hub := &fakeHub{}
	h := newTestHandler(deps, Options{Hub: hub})

	if _, err := h.Cycle(context.Background(), CycleRequest{Scenes: []string{"scene.a"}}); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(hub.channels) != 1 || hub.channels[0] != "sequencer.cycled" {
		t.Errorf("broadcasts = %v, want [sequencer.cycled]", hub.channels)
	}
}
