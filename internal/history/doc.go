// Package history persists analysis and render runs in SQLite.
//
// Each run is keyed by a random UUID. Per-frame decisions are stored for
// analyze runs so "history show" can list the interpolated frames later.
// The schema is maintained by ordered SQL migrations embedded in the binary.
package history
