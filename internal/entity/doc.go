// Package entity tracks the live state of host-platform entities.
//
// An entity is anything with a current state string and a bag of
// attributes: lights, sensors, and the virtual store entity the
// sequencer persists its cursors into. States arrive from protocol
// bridges over MQTT and are written through to SQLite so they survive
// restarts; reads are served from an in-memory cache.
package entity
