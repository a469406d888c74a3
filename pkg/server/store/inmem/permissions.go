package inmem

import (
	"context"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// FetchPermission retrieves an active permission by id.
func (s *Store) FetchPermission(ctx context.Context, id string) (*model.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.permissions[id]
	if !ok || p.IsDeleted {
		return nil, errs.NotFound("permission %s not found", id)
	}
	out := *p
	return &out, nil
}

// FetchPermissionByTriple retrieves a permission by identity triple,
// including soft-deleted records.
func (s *Store) FetchPermissionByTriple(ctx context.Context, scope model.Scope, name string) (*model.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := scope.Grain() + ":" + scope.SecurableItem() + ":" + name
	for _, p := range s.permissions {
		if p.Key() == key {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

// FetchPermissions lists active permissions in a scope. Empty name matches
// all names.
func (s *Store) FetchPermissions(ctx context.Context, scope model.Scope, name string) ([]model.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Permission
	for _, p := range s.permissions {
		if p.IsDeleted {
			continue
		}
		if p.Grain != scope.Grain() || p.SecurableItem != scope.SecurableItem() {
			continue
		}
		if name != "" && p.Name != name {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// AddPermission persists a new permission.
func (s *Store) AddPermission(ctx context.Context, permission model.Permission) (*model.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.permissions {
		if !p.IsDeleted && p.Key() == permission.Key() {
			return nil, errs.AlreadyExists("permission %s already exists", permission.Key())
		}
	}

	stored := permission
	s.permissions[permission.ID] = &stored
	out := stored
	return &out, nil
}

// DeletePermission soft-deletes a permission by id.
func (s *Store) DeletePermission(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.permissions[id]
	if !ok || p.IsDeleted {
		return errs.NotFound("permission %s not found", id)
	}
	p.IsDeleted = true
	return nil
}

// RestorePermission clears the soft-delete flag on a permission.
func (s *Store) RestorePermission(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.permissions[id]
	if !ok {
		return errs.NotFound("permission %s not found", id)
	}
	p.IsDeleted = false
	return nil
}
