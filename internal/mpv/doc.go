// Package mpv talks to a running mpv over its JSON IPC socket.
//
// Client sends one command per connection and never returns hard errors:
// a call either produces a Response or reports ok=false. When a call fails
// the Client asks its Restarter (normally a Supervisor) to bring mpv back
// once and retries once.
//
// Supervisor probes the socket, clears stale socket files and launches a
// detached idle mpv bound to the socket, at most once per launch interval.
// Discover lists candidate sockets on the machine.
package mpv
