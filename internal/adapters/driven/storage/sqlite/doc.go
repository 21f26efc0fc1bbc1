// Package sqlite provides a SQLite-based implementation of driven.ModelStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A fitted model is stored as one row in
// models plus its terms, documents, topics and the latest Bourdieu projection.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.topicmap/data/models.db
//
// # Thread Safety
//
// All operations are thread-safe. Saving a model runs in one transaction; the
// store relies on SQLite WAL mode for concurrent readers.
package sqlite
