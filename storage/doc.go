// Package storage contains concrete implementations of the document object
// store used for module and agent knowledge files.
//
// The ObjectStore interface lives here and stays deliberately small: raw
// bytes keyed by storage key. Implementation packages (in-memory, gcs)
// provide backends that can be swapped without touching calling code.
// Callers should depend on the interface rather than concrete types so they
// can substitute alternative persistence layers in tests or production.
package storage
