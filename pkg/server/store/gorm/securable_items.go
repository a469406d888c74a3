package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// Ensure the stores implement their contracts
var (
	_ store.SecurableItemsStore = (*SecurableItemsStore)(nil)
	_ store.ClientsStore        = (*ClientsStore)(nil)
)

// SecurableItemsStore implements store.SecurableItemsStore using GORM
type SecurableItemsStore struct {
	db *gorm.DB
}

// NewSecurableItemsStore creates a new SecurableItemsStore
func NewSecurableItemsStore(db *gorm.DB) *SecurableItemsStore {
	return &SecurableItemsStore{db: db}
}

// FetchAncestors returns the items above the given scope, immediate parent
// first. The recursive query carries its path so cyclic parent data
// terminates instead of looping.
func (s *SecurableItemsStore) FetchAncestors(ctx context.Context, scope model.Scope) ([]model.SecurableItem, error) {
	var items []model.SecurableItem
	err := s.db.WithContext(ctx).Raw(`
		WITH RECURSIVE ancestors AS (
			SELECT si.id, si.grain, si.name, si.parent_id, si.client_owner, si.is_deleted, si.created_at,
			       ARRAY[si.id] AS path, 0 AS depth
			FROM securable_items si
			WHERE si.grain = ? AND si.name = ? AND NOT si.is_deleted
			UNION ALL
			SELECT p.id, p.grain, p.name, p.parent_id, p.client_owner, p.is_deleted, p.created_at,
			       a.path || p.id, a.depth + 1
			FROM securable_items p
			JOIN ancestors a ON p.id = a.parent_id
			WHERE NOT p.is_deleted AND p.id <> ALL(a.path)
		)
		SELECT id, grain, name, parent_id, client_owner, is_deleted, created_at
		FROM ancestors
		WHERE depth > 0
		ORDER BY depth
	`, scope.Grain(), scope.SecurableItem()).Scan(&items).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "querying ancestors of %s", scope.Key())
	}
	return items, nil
}

// FetchSecurableItem retrieves an active item by id.
func (s *SecurableItemsStore) FetchSecurableItem(ctx context.Context, id string) (*model.SecurableItem, error) {
	var items []model.SecurableItem
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, grain, name, parent_id, client_owner, is_deleted, created_at
		FROM securable_items
		WHERE id = ? AND NOT is_deleted
	`, id).Scan(&items).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "querying securable item %s", id)
	}
	if len(items) == 0 {
		return nil, errs.NotFound("securable item %s not found", id)
	}
	return &items[0], nil
}

// FetchTree returns the item named by scope with its descendant subtree
// materialized.
func (s *SecurableItemsStore) FetchTree(ctx context.Context, scope model.Scope) (*model.SecurableItem, error) {
	var roots []model.SecurableItem
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, grain, name, parent_id, client_owner, is_deleted, created_at
		FROM securable_items
		WHERE grain = ? AND name = ? AND NOT is_deleted
	`, scope.Grain(), scope.SecurableItem()).Scan(&roots).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "querying securable item %s", scope.Key())
	}
	if len(roots) == 0 {
		return nil, errs.NotFound("securable item %s not found", scope.Key())
	}
	return s.buildTree(ctx, &roots[0])
}

// AddSecurableItem persists a new item.
func (s *SecurableItemsStore) AddSecurableItem(ctx context.Context, item model.SecurableItem) (*model.SecurableItem, error) {
	var exists bool
	err := s.db.WithContext(ctx).Raw(`
		SELECT EXISTS(SELECT 1 FROM securable_items WHERE grain = ? AND name = ? AND NOT is_deleted)
	`, item.Grain, item.Name).Scan(&exists).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "checking securable item uniqueness")
	}
	if exists {
		return nil, errs.AlreadyExists("securable item %s already exists", item.ScopeKey())
	}

	err = s.db.WithContext(ctx).Exec(`
		INSERT INTO securable_items (id, grain, name, parent_id, client_owner, is_deleted)
		VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), false)
	`, item.ID, item.Grain, item.Name, item.ParentID, item.ClientOwner).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "inserting securable item %s", item.ID)
	}
	return s.FetchSecurableItem(ctx, item.ID)
}

// buildTree assembles the subtree under root from a single recursive query.
func (s *SecurableItemsStore) buildTree(ctx context.Context, root *model.SecurableItem) (*model.SecurableItem, error) {
	var descendants []model.SecurableItem
	err := s.db.WithContext(ctx).Raw(`
		WITH RECURSIVE descendants AS (
			SELECT si.id, si.grain, si.name, si.parent_id, si.client_owner, si.is_deleted, si.created_at,
			       ARRAY[si.id] AS path
			FROM securable_items si
			WHERE si.parent_id = ? AND NOT si.is_deleted
			UNION ALL
			SELECT c.id, c.grain, c.name, c.parent_id, c.client_owner, c.is_deleted, c.created_at,
			       d.path || c.id
			FROM securable_items c
			JOIN descendants d ON c.parent_id = d.id
			WHERE NOT c.is_deleted AND c.id <> ALL(d.path)
		)
		SELECT id, grain, name, parent_id, client_owner, is_deleted, created_at
		FROM descendants
	`, root.ID).Scan(&descendants).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "querying descendants of %s", root.ID)
	}

	byParent := map[string][]model.SecurableItem{}
	for _, d := range descendants {
		byParent[d.ParentID] = append(byParent[d.ParentID], d)
	}

	var attach func(item *model.SecurableItem)
	attach = func(item *model.SecurableItem) {
		item.SecurableItems = byParent[item.ID]
		for i := range item.SecurableItems {
			attach(&item.SecurableItems[i])
		}
	}
	out := *root
	attach(&out)
	return &out, nil
}

// ClientsStore implements store.ClientsStore using GORM
type ClientsStore struct {
	db    *gorm.DB
	items *SecurableItemsStore
}

// NewClientsStore creates a new ClientsStore
func NewClientsStore(db *gorm.DB) *ClientsStore {
	return &ClientsStore{db: db, items: NewSecurableItemsStore(db)}
}

// FetchClient retrieves an active client by id with its top-level item and
// tree materialized.
func (s *ClientsStore) FetchClient(ctx context.Context, id string) (*model.Client, error) {
	var clients []model.Client
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, name, top_level_securable_item_id, is_deleted, created_at
		FROM clients
		WHERE id = ? AND NOT is_deleted
	`, id).Scan(&clients).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "querying client %s", id)
	}
	if len(clients) == 0 {
		return nil, errs.NotFound("client %s not found", id)
	}

	client := clients[0]
	if client.TopLevelSecurableItemID != "" {
		top, err := s.items.FetchSecurableItem(ctx, client.TopLevelSecurableItemID)
		if err == nil {
			tree, err := s.items.buildTree(ctx, top)
			if err != nil {
				return nil, err
			}
			client.TopLevelSecurableItem = tree
		}
	}
	return &client, nil
}

// AddClient persists a new client together with its top-level item.
func (s *ClientsStore) AddClient(ctx context.Context, client model.Client) (*model.Client, error) {
	var exists bool
	err := s.db.WithContext(ctx).Raw(`
		SELECT EXISTS(SELECT 1 FROM clients WHERE id = ? AND NOT is_deleted)
	`, client.ID).Scan(&exists).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "checking client uniqueness")
	}
	if exists {
		return nil, errs.AlreadyExists("client %s already exists", client.ID)
	}

	topID := client.TopLevelSecurableItemID
	if client.TopLevelSecurableItem != nil {
		top := *client.TopLevelSecurableItem
		top.ClientOwner = client.ID
		if _, err := s.items.AddSecurableItem(ctx, top); err != nil {
			return nil, err
		}
		topID = top.ID
	}

	err = s.db.WithContext(ctx).Exec(`
		INSERT INTO clients (id, name, top_level_securable_item_id, is_deleted)
		VALUES (?, ?, NULLIF(?, ''), false)
	`, client.ID, client.Name, topID).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "inserting client %s", client.ID)
	}
	return s.FetchClient(ctx, client.ID)
}
