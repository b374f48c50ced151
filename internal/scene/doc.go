// Package scene stores scene metadata and performs scene activation.
//
// A scene is a named target state for a set of entities. The sequencer
// only needs two things from it: which entities it touches (with their
// expected states, for the timeout state-match check) and a way to
// activate it. Metadata lives in SQLite behind a cached registry;
// activation is a command published to the platform core over MQTT.
package scene
