// Package inmem provides map-backed implementations of the store
// interfaces. A single Store value implements every contract; all access is
// guarded by one RWMutex, which also makes the granular set unions atomic
// per subject.
//
// The package backs unit tests and the server's --in-memory mode.
package inmem
