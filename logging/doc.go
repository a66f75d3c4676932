// Package logging provides a minimal logging interface and adapters for the
// orchestration backend.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the chat executor, provisioner and stores use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ChatLogger with contextual helpers (session, module, agent) and
//     domain specific helpers for turns, provider calls and teardown
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// The design intentionally keeps the interface minimal so callers can plug
// any structured logger.
package logging
