package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/scene-sequencer/internal/infrastructure/mqtt"
)

// MQTTClient is the narrow publishing interface the activator needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// activateCommand is the wire format of a scene activation request.
type activateCommand struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// Activator sends scene activation commands to the platform core.
type Activator struct {
	client MQTTClient
	clock  func() time.Time
	logger Logger
}

// NewActivator creates a scene activator publishing over the given client.
func NewActivator(client MQTTClient) *Activator {
	return &Activator{
		client: client,
		clock:  time.Now,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the activator.
func (a *Activator) SetLogger(logger Logger) {
	a.logger = logger
}

// SetClock overrides the time source, used by tests.
func (a *Activator) SetClock(clock func() time.Time) {
	a.clock = clock
}

// Activate publishes an activation command for the scene.
//
// Parameters:
//   - ctx: checked before publishing; the publish itself is synchronous
//   - sceneID: platform identifier of the scene to activate
//
// Returns:
//   - error: ErrInvalidID for an empty scene ID, ErrActivationFailed
//     (wrapped) when the command cannot be delivered
func (a *Activator) Activate(ctx context.Context, sceneID string) error {
	if sceneID == "" {
		return ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scene activation aborted: %w", err)
	}

	cmd := activateCommand{
		RequestID: uuid.New().String(),
		Action:    "activate",
		Timestamp: a.clock().UTC().Unix(),
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshalling activation command: %w", err)
	}

	topic := mqtt.Topics{}.SceneCommand(sceneID)
	if err := a.client.Publish(topic, payload, 1, false); err != nil {
		a.logger.Warn("scene activation publish failed",
			"scene_id", sceneID,
			"request_id", cmd.RequestID,
			"error", err,
		)
		return fmt.Errorf("%w: %s: %v", ErrActivationFailed, sceneID, err)
	}

	a.logger.Debug("scene activation published",
		"scene_id", sceneID,
		"request_id", cmd.RequestID,
	)
	return nil
}
