// Package sequencer implements stateful scene cycling.
//
// Given an ordered list of scene identifiers, each Cycle call advances a
// persistent per-sequence cursor and activates the next scene. Sequences
// are tracked by a short hash of the scene list, so any caller supplying
// the same list shares the same cursor. An optional inactivity timeout
// diverts the next call from plain round-robin: if the final scene's
// entities already hold their target states the cycle skips past the
// first scene, otherwise it jumps straight to the final scene.
//
// The package holds no global state. All collaborators (sequence store,
// entity state reads, scene activation, scene metadata) are injected as
// narrow interfaces, so the handler can be exercised entirely in memory.
//
// Cycling is fire-and-forget: bad input is a silent no-op, a corrupt
// store is replaced with an empty one, and lookup failures during the
// timeout decision fall back to the jump-to-last branch with a warning.
package sequencer
