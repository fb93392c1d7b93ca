// Package state holds tracklist's local model and the Store that guards it.
//
// The Store owns favorites, the playlist group cache, the session, the last
// playlist pointer, the once-per-process resume flag and the authoritative
// Snapshot of the engine playlist. A single mutex covers both the in-memory
// state and the TOML files written through package prefs, so a mutation and
// its persistence are never interleaved with another mutation.
//
// Reconciliation workers never read the Store directly. They receive a Policy
// copy when the pass starts, and the owner installs their result with
// ReplaceSnapshot when it arrives. Every mutation that changes the target
// order bumps the policy generation so the owner can tell when a result was
// computed from outdated inputs.
//
// Snapshot and Policy values returned by the Store are deep copies.
package state
