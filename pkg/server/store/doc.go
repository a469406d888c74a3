// Package store defines the storage interfaces consumed by the permission
// resolver, the services, and the API endpoints.
//
// Each interface is an external read (or read/write) contract; the concrete
// implementations live in subpackages:
//
//   - gorm: PostgreSQL-backed implementations using GORM
//   - inmem: map-backed implementations for tests and single-process use
//
// Stores honor soft-delete transparently: deleted entities never surface in
// results. Direct id lookups return an errs.ErrNotFound-kind error for
// absent or soft-deleted records; list and search operations return empty
// sets instead.
package store
