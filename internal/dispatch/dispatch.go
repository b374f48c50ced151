package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/scene-sequencer/internal/infrastructure/mqtt"
	"github.com/nerrad567/scene-sequencer/internal/sequencer"
)

// Default topics, derived from the platform topic builders. Both can be
// overridden through Options.
var (
	// DefaultServiceTopic is where cycle requests arrive.
	DefaultServiceTopic = mqtt.Topics{}.SequencerCycle()

	// DefaultStateTopicPrefix is the root of the entity state stream.
	// Entity IDs occupy a single topic level below it.
	DefaultStateTopicPrefix = mqtt.TopicPrefixState + "/"
)

// cycleTimeout bounds a single cycle triggered over MQTT.
const cycleTimeout = 10 * time.Second

// Subscriber is the narrow subscription interface the dispatcher needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
}

// Cycler advances a scene sequence.
type Cycler interface {
	Cycle(ctx context.Context, req sequencer.CycleRequest) (*sequencer.CycleResult, error)
}

// StateWriter records entity state updates.
type StateWriter interface {
	SetState(ctx context.Context, entityID, value string, attributes map[string]any) error
}

// Logger defines the logging interface used by the dispatcher.
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

// statePayload is the wire format of an entity state update.
type statePayload struct {
	Value      string         `json:"value"`
	Attributes map[string]any `json:"attributes"`
}

// Dispatcher subscribes to the sequencer's MQTT surface and routes
// messages to the handler and the entity registry.
type Dispatcher struct {
	subs   Subscriber
	cycler Cycler
	states StateWriter
	logger Logger

	serviceTopic string
	statePrefix  string

	// baseCtx is the lifetime context captured at Start; per-message
	// work derives bounded contexts from it.
	baseCtx context.Context
}

// Options configures optional dispatcher behaviour.
type Options struct {
	ServiceTopic string
	StatePrefix  string
	Logger       Logger
}

// NewDispatcher creates a dispatcher. Subscriptions are not made until
// Start is called.
func NewDispatcher(subs Subscriber, cycler Cycler, states StateWriter, opts Options) *Dispatcher {
	d := &Dispatcher{
		subs:         subs,
		cycler:       cycler,
		states:       states,
		logger:       opts.Logger,
		serviceTopic: opts.ServiceTopic,
		statePrefix:  opts.StatePrefix,
		baseCtx:      context.Background(),
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}
	if d.serviceTopic == "" {
		d.serviceTopic = DefaultServiceTopic
	}
	if d.statePrefix == "" {
		d.statePrefix = DefaultStateTopicPrefix
	}
	return d
}

// Start subscribes to the service and state topics. The context bounds
// all message handling started after this call.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.baseCtx = ctx

	if err := d.subs.Subscribe(d.serviceTopic, 1, d.handleCycle); err != nil {
		return fmt.Errorf("subscribing to service topic: %w", err)
	}
	if err := d.subs.Subscribe(d.statePrefix+"+", 0, d.handleState); err != nil {
		return fmt.Errorf("subscribing to state stream: %w", err)
	}

	d.logger.Info("dispatcher started",
		"service_topic", d.serviceTopic,
		"state_topic", d.statePrefix+"+",
	)
	return nil
}

// handleCycle decodes a cycle request and runs it. Decode never fails;
// an unusable payload produces an empty request, which the handler
// treats as a no-op.
func (d *Dispatcher) handleCycle(topic string, payload []byte) error {
	req := sequencer.DecodeCycleRequest(payload)

	ctx, cancel := context.WithTimeout(d.baseCtx, cycleTimeout)
	defer cancel()

	result, err := d.cycler.Cycle(ctx, req)
	if err != nil {
		d.logger.Warn("cycle request failed",
			"topic", topic,
			"scenes", len(req.Scenes),
			"error", err,
		)
		// Fire-and-forget: the error stays here.
		return nil
	}
	if result != nil {
		d.logger.Debug("cycle request handled",
			"key", result.Key,
			"target", result.Target,
		)
	}
	return nil
}

// handleState applies an entity state update from the platform core.
func (d *Dispatcher) handleState(topic string, payload []byte) error {
	entityID := strings.TrimPrefix(topic, d.statePrefix)
	if entityID == "" || entityID == topic || strings.Contains(entityID, "/") {
		d.logger.Warn("state update on unexpected topic", "topic", topic)
		return nil
	}

	var state statePayload
	if err := json.Unmarshal(payload, &state); err != nil {
		// Bridges may publish bare values without a JSON envelope.
		state = statePayload{Value: string(payload)}
	}

	ctx, cancel := context.WithTimeout(d.baseCtx, cycleTimeout)
	defer cancel()

	if err := d.states.SetState(ctx, entityID, state.Value, state.Attributes); err != nil {
		d.logger.Warn("state update rejected",
			"entity_id", entityID,
			"error", err,
		)
	}
	return nil
}
