package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/resolver"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// ErrPermissionIDMissing is the message returned when a granular override
// request carries a permission without an id.
const ErrPermissionIDMissing = "Permission id is required but missing in the request"

// PermissionService manages permission definitions and per-user granular
// overrides, and answers user permission queries through the resolver.
type PermissionService struct {
	permissions store.PermissionsStore
	granular    store.GranularStore
	resolver    *resolver.Service
}

// NewPermissionService creates a PermissionService.
func NewPermissionService(permissions store.PermissionsStore, granular store.GranularStore, res *resolver.Service) *PermissionService {
	return &PermissionService{permissions: permissions, granular: granular, resolver: res}
}

// GetPermission retrieves an active permission by id.
func (s *PermissionService) GetPermission(ctx context.Context, id string) (*model.Permission, error) {
	return s.permissions.FetchPermission(ctx, id)
}

// GetPermissions lists active permissions in a scope, optionally filtered
// by name.
func (s *PermissionService) GetPermissions(ctx context.Context, scope model.Scope, name string) ([]model.Permission, error) {
	return s.permissions.FetchPermissions(ctx, scope, name)
}

// AddPermission creates a permission. Re-adding an active triple fails with
// AlreadyExists; re-adding a soft-deleted triple reactivates the existing
// record instead of creating a second one.
func (s *PermissionService) AddPermission(ctx context.Context, permission model.Permission) (*model.Permission, error) {
	if permission.Grain == "" || permission.SecurableItem == "" || permission.Name == "" {
		return nil, errs.Validation("permission grain, securable item, and name are required")
	}

	scope, err := model.NewScope(permission.Grain, permission.SecurableItem)
	if err != nil {
		return nil, errs.Validation("%s", err.Error())
	}

	existing, err := s.permissions.FetchPermissionByTriple(ctx, scope, permission.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.IsDeleted {
			return nil, errs.AlreadyExists("permission %s already exists", permission.Key())
		}
		if err := s.permissions.RestorePermission(ctx, existing.ID); err != nil {
			return nil, err
		}
		return s.permissions.FetchPermission(ctx, existing.ID)
	}

	if permission.ID == "" {
		permission.ID = uuid.NewString()
	}
	return s.permissions.AddPermission(ctx, permission)
}

// DeletePermission soft-deletes a permission by id.
func (s *PermissionService) DeletePermission(ctx context.Context, id string) error {
	return s.permissions.DeletePermission(ctx, id)
}

// AddAdditionalPermissions records per-user additional permissions. Every
// entry must carry a non-empty id; adding an entry already present is a
// no-op.
func (s *PermissionService) AddAdditionalPermissions(ctx context.Context, subject identity.Subject, permissions []model.Permission) error {
	if err := validateGranular(permissions); err != nil {
		return err
	}
	return s.granular.AddAdditionalPermissions(ctx, subject, permissions)
}

// AddDeniedPermissions records per-user denied permissions, with the same
// validation as AddAdditionalPermissions.
func (s *PermissionService) AddDeniedPermissions(ctx context.Context, subject identity.Subject, permissions []model.Permission) error {
	if err := validateGranular(permissions); err != nil {
		return err
	}
	return s.granular.AddDeniedPermissions(ctx, subject, permissions)
}

// GetPermissionsForUser resolves the effective permission set for a subject
// and renders it as "grain/securableItem.name" strings.
func (s *PermissionService) GetPermissionsForUser(ctx context.Context, subject identity.Subject, groups []string, scope model.Scope, includeShared bool) ([]string, error) {
	result, err := s.resolver.Resolve(ctx, resolver.Request{
		Subject:                  subject,
		Scope:                    scope,
		UserGroups:               groups,
		IncludeSharedPermissions: includeShared,
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(result.AllowedPermissions))
	for _, p := range result.AllowedPermissions {
		out = append(out, p.String())
	}
	return out, nil
}

func validateGranular(permissions []model.Permission) error {
	if len(permissions) == 0 {
		return errs.Validation("at least one permission is required")
	}
	for _, p := range permissions {
		if p.ID == "" {
			return errs.Validation("%s", ErrPermissionIDMissing)
		}
	}
	return nil
}
