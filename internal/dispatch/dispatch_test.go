package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/scene-sequencer/internal/sequencer"
)

// fakeSubscriber records subscriptions so tests can invoke handlers
// directly.
type fakeSubscriber struct {
	handlers map[string]func(topic string, payload []byte) error
	failWith error
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[string]func(topic string, payload []byte) error)}
}

func (f *fakeSubscriber) Subscribe(topic string, _ byte, handler func(topic string, payload []byte) error) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.handlers[topic] = handler
	return nil
}

// fakeCycler records cycle requests.
type fakeCycler struct {
	requests []sequencer.CycleRequest
	result   *sequencer.CycleResult
	err      error
}

func (f *fakeCycler) Cycle(_ context.Context, req sequencer.CycleRequest) (*sequencer.CycleResult, error) {
	f.requests = append(f.requests, req)
	return f.result, f.err
}

// fakeStates records state writes.
type fakeStates struct {
	writes []stateWrite
	err    error
}

type stateWrite struct {
	entityID string
	value    string
	attrs    map[string]any
}

func (f *fakeStates) SetState(_ context.Context, entityID, value string, attributes map[string]any) error {
	f.writes = append(f.writes, stateWrite{entityID, value, attributes})
	return f.err
}

func startDispatcher(t *testing.T) (*fakeSubscriber, *fakeCycler, *fakeStates) {
	t.Helper()

	subs := newFakeSubscriber()
	cycler := &fakeCycler{}
	states := &fakeStates{}

	d := NewDispatcher(subs, cycler, states, Options{})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return subs, cycler, states
}

func TestDispatcherSubscribesDefaults(t *testing.T) {
	subs, _, _ := startDispatcher(t)

	if _, ok := subs.handlers[DefaultServiceTopic]; !ok {
		t.Errorf("expected subscription to %s", DefaultServiceTopic)
	}
	if _, ok := subs.handlers[DefaultStateTopicPrefix+"+"]; !ok {
		t.Errorf("expected subscription to %s+", DefaultStateTopicPrefix)
	}
}

func TestDefaultTopicsMatchWireFormat(t *testing.T) {
	// The defaults are derived from the platform topic builders; pin the
	// resulting wire strings so a builder change cannot drift silently.
	if DefaultServiceTopic != "graylogic/service/sequencer/cycle" {
		t.Errorf("DefaultServiceTopic = %q", DefaultServiceTopic)
	}
	if DefaultStateTopicPrefix != "graylogic/state/" {
		t.Errorf("DefaultStateTopicPrefix = %q", DefaultStateTopicPrefix)
	}
}

func TestDispatcherSubscribeFailure(t *testing.T) {
	subs := newFakeSubscriber()
	subs.failWith = errors.New("not connected")

	d := NewDispatcher(subs, &fakeCycler{}, &fakeStates{}, Options{})
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected error when subscription fails")
	}
}

func TestDispatcherRoutesCycleRequest(t *testing.T) {
	subs, cycler, _ := startDispatcher(t)

	payload := []byte(`{"scenes": ["scene.a", "scene.b"], "go_to_last_timeout": 300}`)
	if err := subs.handlers[DefaultServiceTopic](DefaultServiceTopic, payload); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if len(cycler.requests) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(cycler.requests))
	}
	req := cycler.requests[0]
	if len(req.Scenes) != 2 || req.Scenes[0] != "scene.a" {
		t.Errorf("unexpected scenes %v", req.Scenes)
	}
	if req.GoToLastTimeout != 300 {
		t.Errorf("expected timeout 300, got %v", req.GoToLastTimeout)
	}
}

func TestDispatcherCycleFailureIsSwallowed(t *testing.T) {
	subs, cycler, _ := startDispatcher(t)
	cycler.err = errors.New("activation failed")

	payload := []byte(`{"scenes": ["scene.a"]}`)
	if err := subs.handlers[DefaultServiceTopic](DefaultServiceTopic, payload); err != nil {
		t.Errorf("cycle failure must not propagate, got %v", err)
	}
}

func TestDispatcherMalformedCyclePayload(t *testing.T) {
	subs, cycler, _ := startDispatcher(t)

	if err := subs.handlers[DefaultServiceTopic](DefaultServiceTopic, []byte("{nope")); err != nil {
		t.Errorf("malformed payload must not propagate, got %v", err)
	}
	if len(cycler.requests) != 1 {
		t.Fatalf("expected the empty request to reach the cycler, got %d", len(cycler.requests))
	}
	if len(cycler.requests[0].Scenes) != 0 {
		t.Errorf("expected empty scenes, got %v", cycler.requests[0].Scenes)
	}
}

func TestDispatcherRoutesStateUpdate(t *testing.T) {
	subs, _, states := startDispatcher(t)
	stateHandler := subs.handlers[DefaultStateTopicPrefix+"+"]

	payload := []byte(`{"value": "on", "attributes": {"brightness": 80}}`)
	if err := stateHandler(DefaultStateTopicPrefix+"light.hall", payload); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if len(states.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(states.writes))
	}
	w := states.writes[0]
	if w.entityID != "light.hall" || w.value != "on" {
		t.Errorf("unexpected write %+v", w)
	}
	if w.attrs["brightness"] != 80.0 {
		t.Errorf("expected brightness attribute, got %v", w.attrs)
	}
}

func TestDispatcherBareStateValue(t *testing.T) {
	subs, _, states := startDispatcher(t)
	stateHandler := subs.handlers[DefaultStateTopicPrefix+"+"]

	if err := stateHandler(DefaultStateTopicPrefix+"switch.fan", []byte("off")); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(states.writes) != 1 || states.writes[0].value != "off" {
		t.Fatalf("expected bare value write, got %+v", states.writes)
	}
}

func TestDispatcherIgnoresUnexpectedStateTopic(t *testing.T) {
	subs, _, states := startDispatcher(t)
	stateHandler := subs.handlers[DefaultStateTopicPrefix+"+"]

	if err := stateHandler("graylogic/other/light.hall", []byte("on")); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(states.writes) != 0 {
		t.Errorf("expected no writes for foreign topic, got %d", len(states.writes))
	}
}

func TestDispatcherStateWriteFailureIsSwallowed(t *testing.T) {
	subs, _, states := startDispatcher(t)
	states.err = errors.New("repository offline")

	stateHandler := subs.handlers[DefaultStateTopicPrefix+"+"]
	if err := stateHandler(DefaultStateTopicPrefix+"light.hall", []byte("on")); err != nil {
		t.Errorf("state write failure must not propagate, got %v", err)
	}
}
