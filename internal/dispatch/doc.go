// Package dispatch connects the sequencer to the MQTT side of the
// platform. It subscribes to the service topic that triggers cycles and
// to the entity state stream that keeps the local registry current.
//
// Cycle invocations are fire-and-forget: a malformed or failing request
// is logged and dropped, never surfaced back to the publisher.
package dispatch
