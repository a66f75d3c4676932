// Package core defines the domain model shared by every layer of the
// backend: durable definitions managed by admins (modules, agents,
// documents), the durable-plus-ephemeral conversation session, the
// per-conversation resource tracker, the tagged output-chunk variants
// emitted during a turn, and the error taxonomy.
//
// The package has no dependencies on providers or stores; everything here is
// plain data plus the small amount of synchronization the tracker needs.
package core
