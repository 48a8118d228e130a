// Package history persists one row per generation run in a small SQLite
// database so `quickshorts history` and `quickshorts status` can report on
// past work.
//
// The schema is embedded and versioned; a database written by a different
// schema version is rejected with ErrSchemaMismatch rather than migrated.
package history
