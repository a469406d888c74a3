package store

import (
	"context"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// PermissionsStore is the read/write contract for permission definitions.
type PermissionsStore interface {
	// FetchPermission retrieves an active permission by id. Absent or
	// soft-deleted permissions yield an errs.ErrNotFound-kind error.
	FetchPermission(ctx context.Context, id string) (*model.Permission, error)

	// FetchPermissionByTriple retrieves a permission by its identity triple,
	// including soft-deleted records. This is the audit/reactivation path;
	// nil, nil means no record exists for the triple at all.
	FetchPermissionByTriple(ctx context.Context, scope model.Scope, name string) (*model.Permission, error)

	// FetchPermissions lists active permissions in a scope. An empty name
	// matches all names.
	FetchPermissions(ctx context.Context, scope model.Scope, name string) ([]model.Permission, error)

	// AddPermission persists a new permission.
	AddPermission(ctx context.Context, permission model.Permission) (*model.Permission, error)

	// DeletePermission soft-deletes a permission by id.
	DeletePermission(ctx context.Context, id string) error

	// RestorePermission clears the soft-delete flag on a permission.
	RestorePermission(ctx context.Context, id string) error
}
