package sequencer

import (
	"context"
	"fmt"
	"time"
)

// Hub is the interface for broadcasting cycle events to UI clients.
type Hub interface {
	// Broadcast sends an event to all clients subscribed to the given channel.
	Broadcast(channel string, payload any)
}

// Handler advances scene sequences.
//
// It loads the shared sequence store, sweeps stale entries, computes the
// next scene to activate (including the timeout divert), activates it,
// and writes the updated store back. Each call performs exactly one
// activation and at most one store write.
//
// The handler itself takes no locks: the host dispatcher invokes cycle
// calls sequentially, and concurrent callers racing on the same sequence
// key degrade to last-writer-wins on the store. That is an accepted
// limitation at manual-trigger call rates, not a guarantee.
type Handler struct {
	store     StoreBackend
	states    StateReader
	activator SceneActivator
	scenes    SceneResolver
	clock     func() time.Time
	logger    Logger
	metrics   Metrics
	hub       Hub
}

// Options configures optional Handler collaborators.
type Options struct {
	// Clock overrides the time source. Defaults to time.Now.
	Clock func() time.Time

	// Logger receives diagnostic output. Defaults to a no-op logger.
	Logger Logger

	// Metrics receives cycle telemetry. Defaults to a no-op sink.
	Metrics Metrics

	// Hub, if set, receives a "sequencer.cycled" broadcast per call.
	Hub Hub
}

// NewHandler creates a cycle handler.
//
// Parameters:
//   - store: Sequence store persistence (load/save of the whole mapping)
//   - states: Live entity state reads for the state-match check
//   - activator: Scene activation side effect
//   - scenes: Scene metadata for the state-match check
//   - opts: Optional clock, logger, metrics, and event hub
func NewHandler(store StoreBackend, states StateReader, activator SceneActivator, scenes SceneResolver, opts Options) *Handler {
	h := &Handler{
		store:     store,
		states:    states,
		activator: activator,
		scenes:    scenes,
		clock:     opts.Clock,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		hub:       opts.Hub,
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	if h.logger == nil {
		h.logger = noopLogger{}
	}
	if h.metrics == nil {
		h.metrics = noopMetrics{}
	}
	return h
}

// Cycle advances the sequence described by req and activates the
// resulting scene.
//
// An empty scene list returns (nil, nil) without side effects. A store
// that cannot be read is treated as empty. The only error path is a
// failed activation, in which case the store is left untouched so the
// next call repeats the same position.
//
// Returns:
//   - *CycleResult: What was activated and where the cursor moved, or
//     nil for the empty-input no-op
//   - error: nil on success, or the wrapped activation failure
func (h *Handler) Cycle(ctx context.Context, req CycleRequest) (*CycleResult, error) {
	if len(req.Scenes) == 0 {
		return nil, nil
	}

	started := h.clock()
	now := unixSeconds(started)
	key := GenerateKey(req.Scenes)

	store, err := h.store.Load(ctx)
	if err != nil {
		// Corrupt or unreadable store: start empty and self-heal on save.
		// This loses cursors for all sequences but never fails the call.
		h.logger.Warn("sequence store unreadable, starting empty", "error", err)
		store = Store{}
	}
	if store == nil {
		store = Store{}
	}

	swept := Sweep(store, started)
	if swept > 0 {
		h.logger.Debug("swept stale sequence entries", "count", swept)
	}
	h.metrics.RecordStoreSize(len(store), swept)

	entry := store[key] // zero value: index 0, no timeout armed
	count := len(req.Scenes)

	// The store attribute is externally writable, so a persisted index
	// can be negative or past the end. Wrap it into [0, count) instead
	// of letting a poisoned entry crash the call.
	index := ((entry.Index % count) + count) % count

	nextIndex := (index + 1) % count
	target := req.Scenes[index]
	branch := BranchAdvance

	if req.GoToLastTimeout > 0 && entry.LastActivation > 0 &&
		now-entry.LastActivation >= req.GoToLastTimeout {
		last := req.Scenes[count-1]
		if h.sceneMatchesState(ctx, last) {
			// Final scene is already showing: restart the cycle but skip
			// straight past the first scene, which activates now.
			target = req.Scenes[0]
			nextIndex = 1 % count
			branch = BranchSkipAhead
		} else {
			// Jump to the final scene; the next call restarts from 0.
			target = last
			nextIndex = 0
			branch = BranchJumpToLast
		}
	}

	// A cursor back at 0 disarms the timeout until the cycle restarts.
	lastActivation := now
	if nextIndex == 0 {
		lastActivation = 0
	}

	if err := h.activator.Activate(ctx, target); err != nil {
		h.logger.Warn("scene activation failed",
			"scene_id", target,
			"key", key,
			"error", err,
		)
		return nil, fmt.Errorf("activating scene %q: %w", target, err)
	}

	store[key] = Entry{
		Index:          nextIndex,
		LastActivation: lastActivation,
		LastUsed:       now,
	}
	if saveErr := h.store.Save(ctx, store); saveErr != nil {
		// The scene did activate; a lost cursor just replays a position
		// next call. Log and carry on.
		h.logger.Warn("persisting sequence store failed", "key", key, "error", saveErr)
	}

	result := &CycleResult{
		Key:       key,
		Target:    target,
		NextIndex: nextIndex,
		Branch:    branch,
		Swept:     swept,
		Timestamp: now,
	}

	h.logger.Info("sequence cycled",
		"key", key,
		"target", target,
		"next_index", nextIndex,
		"branch", branch,
	)

	h.metrics.RecordCycle(key, target, branch, h.clock().Sub(started))

	if h.hub != nil {
		h.hub.Broadcast("sequencer.cycled", result)
	}

	return result, nil
}
