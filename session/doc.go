// Package session stores live conversation tracker snapshots between turns.
//
// The durable half of a conversation (counts, artifacts, retention) lives in
// the store package. This package holds the ephemeral half: the tracker
// snapshot that travels with the client between requests so any backend
// instance can resume the conversation. The TrackerStore interface keeps the
// backing pluggable; the in-memory implementation suits single-process
// deployments and tests.
package session
