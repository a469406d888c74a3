package store

import (
	"context"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// GranularStore is the read/write contract for per-user permission
// overrides.
type GranularStore interface {
	// FetchGranularPermissions returns the override record for a subject.
	// nil, nil is a valid answer meaning no overrides exist.
	FetchGranularPermissions(ctx context.Context, subject identity.Subject) (*model.GranularPermission, error)

	// AddAdditionalPermissions unions permissions into the subject's
	// additional set. Adding a permission already present is a no-op. The
	// union must be atomic per subject: concurrent additions from two
	// callers must not lose either addition.
	AddAdditionalPermissions(ctx context.Context, subject identity.Subject, permissions []model.Permission) error

	// AddDeniedPermissions unions permissions into the subject's denied
	// set, with the same idempotence and atomicity guarantees.
	AddDeniedPermissions(ctx context.Context, subject identity.Subject, permissions []model.Permission) error
}
