// Package store provides SQLite-backed run history.
//
// Every persisted run is one row in runs plus one row per spec in
// spec_results, keyed by (run_id, position) so a stored run replays in the
// order it executed. Diagnostics and reporter errors are stored as JSON
// arrays.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Runs are listed newest first by started_at; run IDs are UUIDv7, so the ID
// breaks ties in creation order.
package store
