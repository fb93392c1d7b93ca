// Package reconcile turns the engine playlist into the order tracklist wants.
//
// A pass reads the playlist once, computes the target order with TargetOrder,
// and plans the moves with PlanMoves. Planning walks the target front to back
// and keeps a local index map updated after each planned move, so the engine
// is queried only once per pass and at most N-1 moves are issued for N tracks.
package reconcile
