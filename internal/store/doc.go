// Package store persists parameter values.
//
// Two backends implement Store: YAMLFile, a human-editable file written
// atomically, and SQLite, a single-table database for targets that keep
// parameters alongside other state. Open picks one from the path.
//
// LoadInto applies a store to a registry at boot with import semantics, so a
// stale or hand-edited file never prevents start-up. Autosaver writes the
// registry back after changes settle.
package store
