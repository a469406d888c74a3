package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// Ensure PermissionsStore implements store.PermissionsStore
var _ store.PermissionsStore = (*PermissionsStore)(nil)

// PermissionsStore implements store.PermissionsStore using GORM
type PermissionsStore struct {
	db *gorm.DB
}

// NewPermissionsStore creates a new PermissionsStore
func NewPermissionsStore(db *gorm.DB) *PermissionsStore {
	return &PermissionsStore{db: db}
}

// FetchPermission retrieves an active permission by id.
func (s *PermissionsStore) FetchPermission(ctx context.Context, id string) (*model.Permission, error) {
	var permissions []model.Permission
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, grain, securable_item, name, is_deleted, created_at
		FROM permissions
		WHERE id = ? AND NOT is_deleted
	`, id).Scan(&permissions).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "querying permission %s", id)
	}
	if len(permissions) == 0 {
		return nil, errs.NotFound("permission %s not found", id)
	}
	return &permissions[0], nil
}

// FetchPermissionByTriple retrieves a permission by its identity triple,
// including soft-deleted records. nil, nil means no record exists.
func (s *PermissionsStore) FetchPermissionByTriple(ctx context.Context, scope model.Scope, name string) (*model.Permission, error) {
	var permissions []model.Permission
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, grain, securable_item, name, is_deleted, created_at
		FROM permissions
		WHERE grain = ? AND securable_item = ? AND name = ?
	`, scope.Grain(), scope.SecurableItem(), name).Scan(&permissions).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "querying permission %s:%s", scope.Key(), name)
	}
	if len(permissions) == 0 {
		return nil, nil
	}
	return &permissions[0], nil
}

// FetchPermissions lists active permissions in a scope. An empty name
// matches all names.
func (s *PermissionsStore) FetchPermissions(ctx context.Context, scope model.Scope, name string) ([]model.Permission, error) {
	query := `
		SELECT id, grain, securable_item, name, is_deleted, created_at
		FROM permissions
		WHERE grain = ? AND securable_item = ? AND NOT is_deleted
	`
	args := []interface{}{scope.Grain(), scope.SecurableItem()}
	if name != "" {
		query += ` AND name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY name`

	var permissions []model.Permission
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&permissions).Error; err != nil {
		return nil, errs.Infrastructure(err, "querying permissions in %s", scope.Key())
	}
	return permissions, nil
}

// AddPermission persists a new permission.
func (s *PermissionsStore) AddPermission(ctx context.Context, permission model.Permission) (*model.Permission, error) {
	err := s.db.WithContext(ctx).Exec(`
		INSERT INTO permissions (id, grain, securable_item, name, is_deleted)
		VALUES (?, ?, ?, ?, false)
	`, permission.ID, permission.Grain, permission.SecurableItem, permission.Name).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "inserting permission %s", permission.Key())
	}
	return s.FetchPermission(ctx, permission.ID)
}

// DeletePermission soft-deletes a permission by id.
func (s *PermissionsStore) DeletePermission(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Exec(`
		UPDATE permissions SET is_deleted = true WHERE id = ? AND NOT is_deleted
	`, id)
	if result.Error != nil {
		return errs.Infrastructure(result.Error, "deleting permission %s", id)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("permission %s not found", id)
	}
	return nil
}

// RestorePermission clears the soft-delete flag on a permission.
func (s *PermissionsStore) RestorePermission(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Exec(`
		UPDATE permissions SET is_deleted = false WHERE id = ? AND is_deleted
	`, id)
	if result.Error != nil {
		return errs.Infrastructure(result.Error, "restoring permission %s", id)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("permission %s not found", id)
	}
	return nil
}
