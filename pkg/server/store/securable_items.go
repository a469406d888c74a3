package store

import (
	"context"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// SecurableItemsStore is the read contract for the securable-item hierarchy.
type SecurableItemsStore interface {
	// FetchAncestors returns the securable items above the given scope,
	// ordered from immediate parent up to the root. The traversal carries a
	// visited-set guard: on cyclic hierarchy data it stops and returns what
	// was collected rather than failing.
	FetchAncestors(ctx context.Context, scope model.Scope) ([]model.SecurableItem, error)

	// FetchSecurableItem retrieves an item by id. Absent or soft-deleted
	// items yield an errs.ErrNotFound-kind error.
	FetchSecurableItem(ctx context.Context, id string) (*model.SecurableItem, error)

	// FetchTree returns the item named by scope with its descendant
	// subtree materialized.
	FetchTree(ctx context.Context, scope model.Scope) (*model.SecurableItem, error)

	// AddSecurableItem persists a new item.
	AddSecurableItem(ctx context.Context, item model.SecurableItem) (*model.SecurableItem, error)
}

// ClientsStore is the read contract for registered clients.
type ClientsStore interface {
	// FetchClient retrieves a client by id with its top-level securable
	// item materialized. Absent or soft-deleted clients yield an
	// errs.ErrNotFound-kind error.
	FetchClient(ctx context.Context, id string) (*model.Client, error)

	// AddClient persists a new client together with its top-level item.
	AddClient(ctx context.Context, client model.Client) (*model.Client, error)
}
