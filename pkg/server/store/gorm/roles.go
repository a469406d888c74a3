package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// Ensure RolesStore implements store.RolesStore
var _ store.RolesStore = (*RolesStore)(nil)

// RolesStore implements store.RolesStore using GORM
type RolesStore struct {
	db *gorm.DB
}

// NewRolesStore creates a new RolesStore
func NewRolesStore(db *gorm.DB) *RolesStore {
	return &RolesStore{db: db}
}

// FetchRolesForSecurableItem returns the active roles in a scope with their
// grant edges materialized.
func (s *RolesStore) FetchRolesForSecurableItem(ctx context.Context, scope model.Scope) ([]model.Role, error) {
	return s.scanRoles(ctx, `
		SELECT id, name, grain, securable_item, parent_role_id, is_deleted, created_at
		FROM roles
		WHERE grain = ? AND securable_item = ? AND NOT is_deleted
		ORDER BY name
	`, scope.Grain(), scope.SecurableItem())
}

// FetchRole retrieves an active role by id.
func (s *RolesStore) FetchRole(ctx context.Context, id string) (*model.Role, error) {
	roles, err := s.scanRoles(ctx, `
		SELECT id, name, grain, securable_item, parent_role_id, is_deleted, created_at
		FROM roles
		WHERE id = ? AND NOT is_deleted
	`, id)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, errs.NotFound("role %s not found", id)
	}
	return &roles[0], nil
}

// FetchRolesForGroups returns the active roles granted to any of the named
// groups. Group names match case-insensitively.
func (s *RolesStore) FetchRolesForGroups(ctx context.Context, groupNames []string) ([]model.Role, error) {
	if len(groupNames) == 0 {
		return nil, nil
	}
	lowered := make([]string, 0, len(groupNames))
	for _, name := range groupNames {
		lowered = append(lowered, lowerName(name))
	}
	return s.scanRoles(ctx, `
		SELECT DISTINCT r.id, r.name, r.grain, r.securable_item, r.parent_role_id, r.is_deleted, r.created_at
		FROM roles r
		JOIN role_groups rg ON rg.role_id = r.id
		WHERE LOWER(rg.group_name) IN ? AND NOT r.is_deleted
		ORDER BY r.name
	`, lowered)
}

// FetchRolesForUser returns the active roles assigned directly to the
// subject.
func (s *RolesStore) FetchRolesForUser(ctx context.Context, subject identity.Subject) ([]model.Role, error) {
	return s.scanRoles(ctx, `
		SELECT r.id, r.name, r.grain, r.securable_item, r.parent_role_id, r.is_deleted, r.created_at
		FROM roles r
		JOIN role_users ru ON ru.role_id = r.id
		WHERE ru.subject_id = ? AND LOWER(ru.identity_provider) = LOWER(?) AND NOT r.is_deleted
		ORDER BY r.name
	`, subject.SubjectID, subject.IdentityProvider)
}

// FetchChildRoles returns the active roles whose parent is the given role.
func (s *RolesStore) FetchChildRoles(ctx context.Context, id string) ([]model.Role, error) {
	return s.scanRoles(ctx, `
		SELECT id, name, grain, securable_item, parent_role_id, is_deleted, created_at
		FROM roles
		WHERE parent_role_id = ? AND NOT is_deleted
		ORDER BY name
	`, id)
}

// AddRole persists a new role. Role names are unique per scope among active
// roles.
func (s *RolesStore) AddRole(ctx context.Context, role model.Role) (*model.Role, error) {
	var exists bool
	err := s.db.WithContext(ctx).Raw(`
		SELECT EXISTS(
			SELECT 1 FROM roles
			WHERE grain = ? AND securable_item = ? AND LOWER(name) = LOWER(?) AND NOT is_deleted
		)
	`, role.Grain, role.SecurableItem, role.Name).Scan(&exists).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "checking role uniqueness")
	}
	if exists {
		return nil, errs.AlreadyExists("role %s already exists in %s:%s", role.Name, role.Grain, role.SecurableItem)
	}

	err = s.db.WithContext(ctx).Exec(`
		INSERT INTO roles (id, name, grain, securable_item, parent_role_id, is_deleted)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), false)
	`, role.ID, role.Name, role.Grain, role.SecurableItem, role.ParentRoleID).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "inserting role %s", role.ID)
	}
	return s.FetchRole(ctx, role.ID)
}

// DeleteRole soft-deletes a role by id.
func (s *RolesStore) DeleteRole(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Exec(`
		UPDATE roles SET is_deleted = true WHERE id = ? AND NOT is_deleted
	`, id)
	if result.Error != nil {
		return errs.Infrastructure(result.Error, "deleting role %s", id)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("role %s not found", id)
	}
	return nil
}

// AddGroupToRole grants the role to a group by name.
func (s *RolesStore) AddGroupToRole(ctx context.Context, roleID, groupName string) error {
	if _, err := s.FetchRole(ctx, roleID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Exec(`
		INSERT INTO role_groups (role_id, group_name)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, roleID, groupName).Error
	if err != nil {
		return errs.Infrastructure(err, "granting role %s to group %s", roleID, groupName)
	}
	return nil
}

// AddUserToRole assigns the role directly to a subject.
func (s *RolesStore) AddUserToRole(ctx context.Context, roleID string, subject identity.Subject) error {
	if _, err := s.FetchRole(ctx, roleID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Exec(`
		INSERT INTO role_users (role_id, subject_id, identity_provider)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, roleID, subject.SubjectID, subject.IdentityProvider).Error
	if err != nil {
		return errs.Infrastructure(err, "assigning role %s to %s", roleID, subject.Key())
	}
	return nil
}

// AddPermissionsToRole attaches active permissions by id to a role.
func (s *RolesStore) AddPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := s.FetchRole(ctx, roleID); err != nil {
		return err
	}
	for _, permissionID := range permissionIDs {
		var exists bool
		err := s.db.WithContext(ctx).Raw(`
			SELECT EXISTS(SELECT 1 FROM permissions WHERE id = ? AND NOT is_deleted)
		`, permissionID).Scan(&exists).Error
		if err != nil {
			return errs.Infrastructure(err, "checking permission %s", permissionID)
		}
		if !exists {
			return errs.NotFound("permission %s not found", permissionID)
		}
		err = s.db.WithContext(ctx).Exec(`
			INSERT INTO role_permissions (role_id, permission_id)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, roleID, permissionID).Error
		if err != nil {
			return errs.Infrastructure(err, "attaching permission %s to role %s", permissionID, roleID)
		}
	}
	return nil
}

// scanRoles runs a role query and materializes each role's grant edges.
func (s *RolesStore) scanRoles(ctx context.Context, query string, args ...interface{}) ([]model.Role, error) {
	var roles []model.Role
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&roles).Error; err != nil {
		return nil, errs.Infrastructure(err, "querying roles")
	}
	for i := range roles {
		if err := s.loadRoleEdges(ctx, &roles[i]); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func (s *RolesStore) loadRoleEdges(ctx context.Context, role *model.Role) error {
	err := s.db.WithContext(ctx).Raw(`
		SELECT p.id, p.grain, p.securable_item, p.name, p.is_deleted, p.created_at
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = ? AND NOT p.is_deleted
		ORDER BY p.name
	`, role.ID).Scan(&role.Permissions).Error
	if err != nil {
		return errs.Infrastructure(err, "loading permissions for role %s", role.ID)
	}

	type groupRow struct {
		GroupName string `gorm:"column:group_name"`
	}
	var groupRows []groupRow
	err = s.db.WithContext(ctx).Raw(`
		SELECT group_name FROM role_groups WHERE role_id = ? ORDER BY group_name
	`, role.ID).Scan(&groupRows).Error
	if err != nil {
		return errs.Infrastructure(err, "loading groups for role %s", role.ID)
	}
	role.Groups = make([]string, 0, len(groupRows))
	for _, row := range groupRows {
		role.Groups = append(role.Groups, row.GroupName)
	}

	err = s.db.WithContext(ctx).Raw(`
		SELECT subject_id, identity_provider
		FROM role_users
		WHERE role_id = ?
		ORDER BY subject_id
	`, role.ID).Scan(&role.Users).Error
	if err != nil {
		return errs.Infrastructure(err, "loading users for role %s", role.ID)
	}
	return nil
}
