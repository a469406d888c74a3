package store

// HealthStore abstracts connectivity checks against the backing store.
type HealthStore interface {
	// CheckConnectivity verifies the store is reachable.
	CheckConnectivity() error
}
