// Package api implements the HTTP REST API and WebSocket server for the
// scene sequencer.
//
// This package provides:
//   - REST endpoints for cycling sequences and inspecting the cursor store
//   - Scene CRUD and activation endpoints
//   - Entity read and state-write endpoints
//   - WebSocket hub for real-time cycle event broadcasts
//   - Middleware stack (request ID, logging, recovery, CORS, JWT auth)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between user interfaces (wall panels, mobile apps,
// web admin) and the sequencer core. Cycle requests arrive here or on the
// MQTT service topic; either path runs the same handler. Cycle results are
// broadcast to WebSocket clients subscribed to "sequencer.cycled".
//
// # Security
//
// Authentication uses JWT bearer tokens issued by the platform's identity
// service; this server only verifies them. WebSocket upgrades pass the same
// token as a query parameter because browsers cannot set headers there.
//
// # Graceful Degradation
//
// The server operates without MQTT: reads, cycling, and WebSocket
// connections work, only scene activation fails. This enables testing
// and partial operation.
package api
