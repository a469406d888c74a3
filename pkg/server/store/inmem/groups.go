package inmem

import (
	"context"
	"strings"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// FetchGroup retrieves a group by name with roles and users materialized.
func (s *Store) FetchGroup(ctx context.Context, name string) (*model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupKey(name)]
	if !ok || g.IsDeleted {
		return nil, errs.NotFound("group %s not found", name)
	}

	group := copyGroup(g)
	group.Roles = s.rolesForGroupLocked(g.Name)
	return &group, nil
}

// FetchGroupsForUser returns the active groups the subject belongs to.
func (s *Store) FetchGroupsForUser(ctx context.Context, subject identity.Subject) ([]model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Group
	for _, g := range s.groups {
		if g.IsDeleted {
			continue
		}
		for _, u := range g.Users {
			if subject.Equal(identity.NewSubject(u.SubjectID, u.IdentityProvider)) {
				group := copyGroup(g)
				group.Roles = s.rolesForGroupLocked(g.Name)
				out = append(out, group)
				break
			}
		}
	}
	return out, nil
}

// FetchGroupsForRoles returns the active groups granted any of the role ids.
func (s *Store) FetchGroupsForRoles(ctx context.Context, roleIDs []string) ([]model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(roleIDs))
	for _, id := range roleIDs {
		wanted[id] = true
	}

	names := map[string]bool{}
	for _, r := range s.roles {
		if r.IsDeleted || !wanted[r.ID] {
			continue
		}
		for _, g := range r.Groups {
			names[groupKey(g)] = true
		}
	}

	var out []model.Group
	for key, g := range s.groups {
		if g.IsDeleted || !names[key] {
			continue
		}
		group := copyGroup(g)
		group.Roles = s.rolesForGroupLocked(g.Name)
		out = append(out, group)
	}
	return out, nil
}

// AddGroup persists a new group.
func (s *Store) AddGroup(ctx context.Context, group model.Group) (*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := groupKey(group.Name)
	if g, ok := s.groups[key]; ok && !g.IsDeleted {
		return nil, errs.AlreadyExists("group %s already exists", group.Name)
	}

	stored := copyGroup(&group)
	s.groups[key] = &stored
	out := copyGroup(&stored)
	return &out, nil
}

// AddUserToGroup adds a subject to a group.
func (s *Store) AddUserToGroup(ctx context.Context, groupName string, subject identity.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupKey(groupName)]
	if !ok || g.IsDeleted {
		return errs.NotFound("group %s not found", groupName)
	}
	for _, u := range g.Users {
		if subject.Equal(identity.NewSubject(u.SubjectID, u.IdentityProvider)) {
			return nil
		}
	}
	g.Users = append(g.Users, model.User{SubjectID: subject.SubjectID, IdentityProvider: subject.IdentityProvider})
	return nil
}

// rolesForGroupLocked derives the group's role grants by scanning the role
// records. Caller must hold at least a read lock.
func (s *Store) rolesForGroupLocked(groupName string) []model.Role {
	var out []model.Role
	for _, r := range s.roles {
		if r.IsDeleted {
			continue
		}
		for _, g := range r.Groups {
			if strings.EqualFold(g, groupName) {
				out = append(out, copyRole(r))
				break
			}
		}
	}
	return out
}
