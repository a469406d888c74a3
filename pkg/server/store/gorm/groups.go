package gorm

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// Ensure GroupsStore implements store.GroupsStore
var _ store.GroupsStore = (*GroupsStore)(nil)

func lowerName(name string) string { return strings.ToLower(name) }

// GroupsStore implements store.GroupsStore using GORM
type GroupsStore struct {
	db    *gorm.DB
	roles *RolesStore
}

// NewGroupsStore creates a new GroupsStore
func NewGroupsStore(db *gorm.DB) *GroupsStore {
	return &GroupsStore{db: db, roles: NewRolesStore(db)}
}

// FetchGroup retrieves an active group by name, case-insensitively, with its
// roles and users materialized.
func (s *GroupsStore) FetchGroup(ctx context.Context, name string) (*model.Group, error) {
	groups, err := s.scanGroups(ctx, `
		SELECT id, name, source, is_deleted, created_at
		FROM groups
		WHERE LOWER(name) = LOWER(?) AND NOT is_deleted
	`, name)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, errs.NotFound("group %s not found", name)
	}
	return &groups[0], nil
}

// FetchGroupsForUser returns the active groups the subject is a direct
// member of.
func (s *GroupsStore) FetchGroupsForUser(ctx context.Context, subject identity.Subject) ([]model.Group, error) {
	return s.scanGroups(ctx, `
		SELECT g.id, g.name, g.source, g.is_deleted, g.created_at
		FROM groups g
		JOIN group_users gu ON gu.group_id = g.id
		WHERE gu.subject_id = ? AND LOWER(gu.identity_provider) = LOWER(?) AND NOT g.is_deleted
		ORDER BY g.name
	`, subject.SubjectID, subject.IdentityProvider)
}

// FetchGroupsForRoles returns the active groups granted any of the given
// role ids.
func (s *GroupsStore) FetchGroupsForRoles(ctx context.Context, roleIDs []string) ([]model.Group, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return s.scanGroups(ctx, `
		SELECT DISTINCT g.id, g.name, g.source, g.is_deleted, g.created_at
		FROM groups g
		JOIN role_groups rg ON LOWER(rg.group_name) = LOWER(g.name)
		WHERE rg.role_id IN ? AND NOT g.is_deleted
		ORDER BY g.name
	`, roleIDs)
}

// AddGroup persists a new group. Group names are unique case-insensitively
// among active groups.
func (s *GroupsStore) AddGroup(ctx context.Context, group model.Group) (*model.Group, error) {
	var exists bool
	err := s.db.WithContext(ctx).Raw(`
		SELECT EXISTS(SELECT 1 FROM groups WHERE LOWER(name) = LOWER(?) AND NOT is_deleted)
	`, group.Name).Scan(&exists).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "checking group uniqueness")
	}
	if exists {
		return nil, errs.AlreadyExists("group %s already exists", group.Name)
	}

	err = s.db.WithContext(ctx).Exec(`
		INSERT INTO groups (id, name, source, is_deleted)
		VALUES (?, ?, ?, false)
	`, group.ID, group.Name, group.Source).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "inserting group %s", group.Name)
	}
	return s.FetchGroup(ctx, group.Name)
}

// AddUserToGroup adds a subject to a group.
func (s *GroupsStore) AddUserToGroup(ctx context.Context, groupName string, subject identity.Subject) error {
	group, err := s.FetchGroup(ctx, groupName)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Exec(`
		INSERT INTO users (subject_id, identity_provider)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, subject.SubjectID, subject.IdentityProvider).Error
	if err != nil {
		return errs.Infrastructure(err, "upserting user %s", subject.Key())
	}
	err = s.db.WithContext(ctx).Exec(`
		INSERT INTO group_users (group_id, subject_id, identity_provider)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, group.ID, subject.SubjectID, subject.IdentityProvider).Error
	if err != nil {
		return errs.Infrastructure(err, "adding %s to group %s", subject.Key(), groupName)
	}
	return nil
}

// scanGroups runs a group query and materializes each group's roles and
// users.
func (s *GroupsStore) scanGroups(ctx context.Context, query string, args ...interface{}) ([]model.Group, error) {
	var groups []model.Group
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&groups).Error; err != nil {
		return nil, errs.Infrastructure(err, "querying groups")
	}
	for i := range groups {
		roles, err := s.roles.scanRoles(ctx, `
			SELECT r.id, r.name, r.grain, r.securable_item, r.parent_role_id, r.is_deleted, r.created_at
			FROM roles r
			JOIN role_groups rg ON rg.role_id = r.id
			WHERE LOWER(rg.group_name) = LOWER(?) AND NOT r.is_deleted
			ORDER BY r.name
		`, groups[i].Name)
		if err != nil {
			return nil, err
		}
		groups[i].Roles = roles

		err = s.db.WithContext(ctx).Raw(`
			SELECT subject_id, identity_provider
			FROM group_users
			WHERE group_id = ?
			ORDER BY subject_id
		`, groups[i].ID).Scan(&groups[i].Users).Error
		if err != nil {
			return nil, errs.Infrastructure(err, "loading users for group %s", groups[i].Name)
		}
	}
	return groups, nil
}
