package sequencer

import (
	"context"
	"time"
)

// Logger defines the logging interface used by the Handler.
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

// Entry is the persisted cursor state for one sequence.
//
// Index is the position of the scene to activate on the next call when
// no timeout fires; it starts at 0 and stays within [0, len(sequence))
// at rest. LastActivation is the wall-clock time (Unix seconds) of the
// previous activation; 0 means no timeout is armed because the sequence
// just completed a full cycle back to the start. LastUsed is the time
// of the last touch and is read only by the garbage-collection sweep.
type Entry struct {
	Index          int     `json:"idx"`
	LastActivation float64 `json:"ts"`
	LastUsed       float64 `json:"last_used"`
}

// Store is the full persisted mapping of sequence key to cursor state.
// It is read, mutated, and rewritten as a whole on every cycle call.
type Store map[string]Entry

// StoreBackend loads and saves the sequence store.
//
// Load failures are non-fatal: the handler treats an unreadable or
// unparseable store as empty and self-heals on the next save.
type StoreBackend interface {
	Load(ctx context.Context) (Store, error)
	Save(ctx context.Context, store Store) error
}

// EntityState is a point-in-time snapshot of one entity's live state.
type EntityState struct {
	Value      string
	Attributes map[string]any
}

// StateReader resolves the current live state of an entity.
// The second return value reports whether the entity is known at all.
type StateReader interface {
	GetState(ctx context.Context, entityID string) (EntityState, bool)
}

// SceneActivator applies a scene to the building.
// Activate blocks until the activation has been handed off for delivery.
type SceneActivator interface {
	Activate(ctx context.Context, sceneID string) error
}

// SceneResolver exposes a scene's member entities and their target states.
// The returned map is entity ID to expected state value; an empty expected
// state means the scene did not declare one for that entity.
type SceneResolver interface {
	SceneEntities(ctx context.Context, sceneID string) (map[string]string, error)
}

// Metrics receives cycle telemetry. Implementations must be non-blocking.
type Metrics interface {
	RecordCycle(key, target string, branch Branch, duration time.Duration)
	RecordStoreSize(size, swept int)
}

// noopMetrics discards all telemetry.
type noopMetrics struct{}

func (noopMetrics) RecordCycle(string, string, Branch, time.Duration) {}
func (noopMetrics) RecordStoreSize(int, int)                          {}

// Branch identifies which path a cycle call took.
type Branch string

const (
	// BranchAdvance is plain round-robin advancement.
	BranchAdvance Branch = "advance"

	// BranchSkipAhead fires when the timeout elapsed and the final scene
	// is already showing: the first scene activates and the cursor skips
	// past it.
	BranchSkipAhead Branch = "skip_ahead"

	// BranchJumpToLast fires when the timeout elapsed and the final scene
	// is not showing: the final scene activates and the cursor resets.
	BranchJumpToLast Branch = "jump_to_last"
)

// CycleResult describes the outcome of one cycle call.
type CycleResult struct {
	Key       string  `json:"key"`
	Target    string  `json:"target"`
	NextIndex int     `json:"next_index"`
	Branch    Branch  `json:"branch"`
	Swept     int     `json:"swept"`
	Timestamp float64 `json:"timestamp"`
}

// unixSeconds converts a time to fractional Unix seconds, the unit used
// throughout the persisted store.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
