package inmem

import (
	"context"
	"strings"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// FetchRolesForSecurableItem returns the active roles scoped to the given
// grain/securable item.
func (s *Store) FetchRolesForSecurableItem(ctx context.Context, scope model.Scope) ([]model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Role
	for _, r := range s.roles {
		if r.IsDeleted {
			continue
		}
		if r.Grain == scope.Grain() && r.SecurableItem == scope.SecurableItem() {
			out = append(out, copyRole(r))
		}
	}
	return out, nil
}

// FetchRole retrieves a role by id.
func (s *Store) FetchRole(ctx context.Context, id string) (*model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[id]
	if !ok || r.IsDeleted {
		return nil, errs.NotFound("role %s not found", id)
	}
	role := copyRole(r)
	return &role, nil
}

// FetchRolesForGroups returns the active roles granted to any of the named
// groups. Group names match case-insensitively.
func (s *Store) FetchRolesForGroups(ctx context.Context, groupNames []string) ([]model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(groupNames))
	for _, name := range groupNames {
		wanted[groupKey(name)] = true
	}

	var out []model.Role
	for _, r := range s.roles {
		if r.IsDeleted {
			continue
		}
		for _, g := range r.Groups {
			if wanted[groupKey(g)] {
				out = append(out, copyRole(r))
				break
			}
		}
	}
	return out, nil
}

// FetchRolesForUser returns the active roles assigned directly to the
// subject.
func (s *Store) FetchRolesForUser(ctx context.Context, subject identity.Subject) ([]model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Role
	for _, r := range s.roles {
		if r.IsDeleted {
			continue
		}
		for _, u := range r.Users {
			if subject.Equal(identity.NewSubject(u.SubjectID, u.IdentityProvider)) {
				out = append(out, copyRole(r))
				break
			}
		}
	}
	return out, nil
}

// FetchChildRoles returns the active roles whose parent is the given role.
func (s *Store) FetchChildRoles(ctx context.Context, id string) ([]model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Role
	for _, r := range s.roles {
		if !r.IsDeleted && r.ParentRoleID == id {
			out = append(out, copyRole(r))
		}
	}
	return out, nil
}

// AddRole persists a new role.
func (s *Store) AddRole(ctx context.Context, role model.Role) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.roles {
		if r.IsDeleted {
			continue
		}
		if r.Grain == role.Grain && r.SecurableItem == role.SecurableItem &&
			strings.EqualFold(r.Name, role.Name) {
			return nil, errs.AlreadyExists("role %s already exists in %s:%s", role.Name, role.Grain, role.SecurableItem)
		}
	}

	stored := copyRole(&role)
	s.roles[role.ID] = &stored
	out := copyRole(&stored)
	return &out, nil
}

// DeleteRole soft-deletes a role by id.
func (s *Store) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[id]
	if !ok || r.IsDeleted {
		return errs.NotFound("role %s not found", id)
	}
	r.IsDeleted = true
	return nil
}

// AddGroupToRole grants the role to a group by name.
func (s *Store) AddGroupToRole(ctx context.Context, roleID, groupName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[roleID]
	if !ok || r.IsDeleted {
		return errs.NotFound("role %s not found", roleID)
	}
	for _, g := range r.Groups {
		if strings.EqualFold(g, groupName) {
			return nil
		}
	}
	r.Groups = append(r.Groups, groupName)
	return nil
}

// AddUserToRole assigns the role directly to a subject.
func (s *Store) AddUserToRole(ctx context.Context, roleID string, subject identity.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[roleID]
	if !ok || r.IsDeleted {
		return errs.NotFound("role %s not found", roleID)
	}
	for _, u := range r.Users {
		if subject.Equal(identity.NewSubject(u.SubjectID, u.IdentityProvider)) {
			return nil
		}
	}
	r.Users = append(r.Users, model.User{SubjectID: subject.SubjectID, IdentityProvider: subject.IdentityProvider})
	return nil
}

// AddPermissionsToRole attaches permissions by id to a role.
func (s *Store) AddPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[roleID]
	if !ok || r.IsDeleted {
		return errs.NotFound("role %s not found", roleID)
	}

	attached := make(map[string]bool, len(r.Permissions))
	for _, p := range r.Permissions {
		attached[p.ID] = true
	}
	for _, id := range permissionIDs {
		if attached[id] {
			continue
		}
		p, ok := s.permissions[id]
		if !ok || p.IsDeleted {
			return errs.NotFound("permission %s not found", id)
		}
		r.Permissions = append(r.Permissions, *p)
		attached[id] = true
	}
	return nil
}
