// Package app provides the orchestration layer for tracklist.
//
// # Overview
//
// This package wires configuration, the mpv client, the state store, the
// reconciliation engine and the UI into the running program. It is the
// composition root: every long-lived dependency is built here and handed to
// the packages that use it.
//
// # Components
//
//   - app.go: Run, the client and store constructors, and ReconcileOnce for
//     the headless reconcile command
//   - controller.go: the Controller that owns the single in-flight pass and
//     exposes user operations
//   - heartbeat.go: the background loop that watches path, pause and title
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> NewClient()        mpv IPC client with supervisor
//	       ├─────> NewStore()         favorites, session, last playlist
//	       ├─────> NewController()    reconcile owner
//	       ├─────> ctrl.Startup()     reload last playlist or reconcile
//	       ├─────> StartHeartbeat()   change detection
//	       └─────> ui.Run()           TUI (blocks)
//
//	Reconciliation:
//	┌─────────────────────────────────────────┐
//	│ RequestReconcile()  drop if in flight   │
//	│  └─> worker: Fetch, plan, move, resume  │
//	│      └─> Results() ─> UI ─> Apply()     │
//	│          └─> stale? RequestReconcile()  │
//	└─────────────────────────────────────────┘
//
// # Concurrency
//
// At most one pass runs at a time. RequestReconcile drops requests while a
// pass is running or its result has not been applied yet. Workers never touch
// the store snapshot; the UI goroutine applies each Outcome through Apply,
// which reports results computed under an older policy generation so the UI
// can ask for a fresh pass.
//
// # Error Handling
//
// Run fails only when the log file cannot be opened or the UI cannot start.
// An unreachable mpv never stops the program: calls report failure, the
// supervisor relaunches mpv at a bounded rate and the next heartbeat retries.
package app
