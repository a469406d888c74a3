package inmem

import (
	"strings"
	"sync"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// Ensure Store implements every store contract
var (
	_ store.RolesStore          = (*Store)(nil)
	_ store.GroupsStore         = (*Store)(nil)
	_ store.PermissionsStore    = (*Store)(nil)
	_ store.SecurableItemsStore = (*Store)(nil)
	_ store.ClientsStore        = (*Store)(nil)
	_ store.GranularStore       = (*Store)(nil)
	_ store.HealthStore         = (*Store)(nil)
)

// Store is a map-backed implementation of all store interfaces.
type Store struct {
	mu sync.RWMutex

	roles        map[string]*model.Role
	groups       map[string]*model.Group // keyed by lowercased name
	permissions  map[string]*model.Permission
	items        map[string]*model.SecurableItem
	itemsByScope map[string]string // scope key -> item id
	clients      map[string]*model.Client
	granular     map[string]*model.GranularPermission // keyed by subject key
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		roles:        map[string]*model.Role{},
		groups:       map[string]*model.Group{},
		permissions:  map[string]*model.Permission{},
		items:        map[string]*model.SecurableItem{},
		itemsByScope: map[string]string{},
		clients:      map[string]*model.Client{},
		granular:     map[string]*model.GranularPermission{},
	}
}

func groupKey(name string) string { return strings.ToLower(name) }

func copyRole(r *model.Role) model.Role {
	out := *r
	out.Permissions = append([]model.Permission(nil), r.Permissions...)
	out.Groups = append([]string(nil), r.Groups...)
	out.Users = append([]model.User(nil), r.Users...)
	return out
}

func copyGroup(g *model.Group) model.Group {
	out := *g
	out.Roles = make([]model.Role, 0, len(g.Roles))
	for i := range g.Roles {
		out.Roles = append(out.Roles, copyRole(&g.Roles[i]))
	}
	out.Users = append([]model.User(nil), g.Users...)
	return out
}

func copyPermissions(perms []model.Permission) []model.Permission {
	return append([]model.Permission(nil), perms...)
}
