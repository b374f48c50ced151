package mqtt

import "fmt"

// Topic prefixes for the platform MQTT bus.
//
// The sequencer shares the broker with the platform core: entity state
// flows in under the state prefix, scene commands flow out under the
// command prefix, and cycle requests arrive on the service prefix.
const (
	// TopicPrefixPlatform is the base for all platform topics.
	TopicPrefixPlatform = "graylogic"

	// TopicPrefixState is the base for entity state updates.
	TopicPrefixState = "graylogic/state"

	// TopicPrefixCommand is the base for commands to the platform core.
	TopicPrefixCommand = "graylogic/command"

	// TopicPrefixService is the base for service invocation topics.
	TopicPrefixService = "graylogic/service"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for platform MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.EntityState("light.hall")
//	// Returns: "graylogic/state/light.hall"
type Topics struct{}

// =============================================================================
// Entity State Topics
// =============================================================================

// EntityState returns the state topic for a single entity.
//
// Example: graylogic/state/light.hall
func (Topics) EntityState(entityID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixState, entityID)
}

// AllEntityStates returns a pattern matching all entity state updates.
// Entity IDs occupy a single topic level.
//
// Pattern: graylogic/state/+
func (Topics) AllEntityStates() string {
	return TopicPrefixState + "/+"
}

// =============================================================================
// Command Topics
// =============================================================================

// SceneCommand returns the topic for scene activation commands.
//
// Example: graylogic/command/scene/scene.evening
func (Topics) SceneCommand(sceneID string) string {
	return fmt.Sprintf("%s/scene/%s", TopicPrefixCommand, sceneID)
}

// =============================================================================
// Service Topics
// =============================================================================

// SequencerCycle returns the topic that triggers a sequence cycle.
//
// Example: graylogic/service/sequencer/cycle
func (Topics) SequencerCycle() string {
	return TopicPrefixService + "/sequencer/cycle"
}

// SequencerCycled returns the topic for cycle result events.
//
// Example: graylogic/service/sequencer/cycled
func (Topics) SequencerCycled() string {
	return TopicPrefixService + "/sequencer/cycled"
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// ServiceStatus returns the status topic for a named service, used for
// the sequencer's Last Will and Testament.
//
// Example: graylogic/system/status/scene-sequencer
func (Topics) ServiceStatus(serviceID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefixSystem, serviceID)
}

// AllTopics returns a pattern matching all platform topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: graylogic/#
func (Topics) AllTopics() string {
	return TopicPrefixPlatform + "/#"
}
