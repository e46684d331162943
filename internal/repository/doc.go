// Package repository defines the storage abstraction for layout versions.
//
// The core only needs a minimal synchronous get/set/delete over opaque byte
// values, so KeyValueStore is all it depends on. Two implementations exist:
//
// - sqlite: a durable store in a single-table SQLite database (WAL mode)
// - memory: a map-backed store for tests and ephemeral sessions
//
// # Testing
//
// The sqlite implementation is tested against in-memory databases.
package repository
