package inmem

import (
	"context"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// FetchAncestors returns the items above the given scope, immediate parent
// first. The walk keeps a visited set; cyclic parent data stops the walk
// instead of failing it.
func (s *Store) FetchAncestors(ctx context.Context, scope model.Scope) ([]model.SecurableItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.itemsByScope[scope.Key()]
	if !ok {
		return nil, nil
	}

	visited := map[string]bool{id: true}
	var out []model.SecurableItem

	current := s.items[id]
	for current != nil && current.ParentID != "" {
		parent, ok := s.items[current.ParentID]
		if !ok || parent.IsDeleted {
			break
		}
		if visited[parent.ID] {
			// cycle in hierarchy data; return what was collected
			break
		}
		visited[parent.ID] = true
		out = append(out, *parent)
		current = parent
	}
	return out, nil
}

// FetchSecurableItem retrieves an item by id.
func (s *Store) FetchSecurableItem(ctx context.Context, id string) (*model.SecurableItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok || item.IsDeleted {
		return nil, errs.NotFound("securable item %s not found", id)
	}
	out := *item
	return &out, nil
}

// FetchTree returns the item named by scope with its descendant subtree.
func (s *Store) FetchTree(ctx context.Context, scope model.Scope) (*model.SecurableItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.itemsByScope[scope.Key()]
	if !ok {
		return nil, errs.NotFound("securable item %s not found", scope.Key())
	}
	root, ok := s.items[id]
	if !ok || root.IsDeleted {
		return nil, errs.NotFound("securable item %s not found", scope.Key())
	}

	visited := map[string]bool{}
	tree := s.subtreeLocked(root, visited)
	return &tree, nil
}

// AddSecurableItem persists a new item.
func (s *Store) AddSecurableItem(ctx context.Context, item model.SecurableItem) (*model.SecurableItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.ScopeKey()
	if id, ok := s.itemsByScope[key]; ok {
		if existing := s.items[id]; existing != nil && !existing.IsDeleted {
			return nil, errs.AlreadyExists("securable item %s already exists", key)
		}
	}

	stored := item
	stored.SecurableItems = nil
	s.items[item.ID] = &stored
	s.itemsByScope[key] = item.ID
	out := stored
	return &out, nil
}

func (s *Store) subtreeLocked(root *model.SecurableItem, visited map[string]bool) model.SecurableItem {
	visited[root.ID] = true
	out := *root
	out.SecurableItems = nil
	for _, item := range s.items {
		if item.IsDeleted || item.ParentID != root.ID || visited[item.ID] {
			continue
		}
		out.SecurableItems = append(out.SecurableItems, s.subtreeLocked(item, visited))
	}
	return out
}

// FetchClient retrieves a client by id with its top-level item materialized.
func (s *Store) FetchClient(ctx context.Context, id string) (*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok || c.IsDeleted {
		return nil, errs.NotFound("client %s not found", id)
	}

	out := *c
	if top, ok := s.items[c.TopLevelSecurableItemID]; ok && !top.IsDeleted {
		tree := s.subtreeLocked(top, map[string]bool{})
		out.TopLevelSecurableItem = &tree
	}
	return &out, nil
}

// AddClient persists a new client together with its top-level item.
func (s *Store) AddClient(ctx context.Context, client model.Client) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[client.ID]; ok && !c.IsDeleted {
		return nil, errs.AlreadyExists("client %s already exists", client.ID)
	}

	stored := client
	if client.TopLevelSecurableItem != nil {
		top := *client.TopLevelSecurableItem
		top.SecurableItems = nil
		s.items[top.ID] = &top
		s.itemsByScope[top.ScopeKey()] = top.ID
		stored.TopLevelSecurableItemID = top.ID
	}
	stored.TopLevelSecurableItem = nil
	s.clients[client.ID] = &stored
	out := stored
	return &out, nil
}

// CheckConnectivity always succeeds for the in-memory store.
func (s *Store) CheckConnectivity() error { return nil }
