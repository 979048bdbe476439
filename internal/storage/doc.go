// Package storage implements the seen-item store: the durable, append-only,
// id-unique record backing deduplication.
//
// Two drivers are available:
//   - "file": one JSON artifact rewritten atomically on every append
//   - "sqlite": SQLite database file, one committed row per append
package storage
