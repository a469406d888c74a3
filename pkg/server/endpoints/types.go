package endpoints

import (
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// permissionView is the wire representation of a permission.
type permissionView struct {
	ID                 string `json:"id,omitempty"`
	Grain              string `json:"grain"`
	SecurableItem      string `json:"securableItem"`
	Name               string `json:"name"`
	PermissionAsString string `json:"permissionAsString,omitempty"`
}

func toPermissionView(p model.Permission) permissionView {
	return permissionView{
		ID:                 p.ID,
		Grain:              p.Grain,
		SecurableItem:      p.SecurableItem,
		Name:               p.Name,
		PermissionAsString: p.String(),
	}
}

func toPermissionViews(perms []model.Permission) []permissionView {
	out := make([]permissionView, 0, len(perms))
	for _, p := range perms {
		out = append(out, toPermissionView(p))
	}
	return out
}

func fromPermissionView(v permissionView) model.Permission {
	return model.Permission{
		ID:            v.ID,
		Grain:         v.Grain,
		SecurableItem: v.SecurableItem,
		Name:          v.Name,
	}
}

// roleView is the wire representation of a role.
type roleView struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Grain         string           `json:"grain"`
	SecurableItem string           `json:"securableItem"`
	ParentRole    string           `json:"parentRole,omitempty"`
	Permissions   []permissionView `json:"permissions"`
	Groups        []string         `json:"groups"`
}

func toRoleView(r model.Role) roleView {
	groups := r.Groups
	if groups == nil {
		groups = []string{}
	}
	return roleView{
		ID:            r.ID,
		Name:          r.Name,
		Grain:         r.Grain,
		SecurableItem: r.SecurableItem,
		ParentRole:    r.ParentRoleID,
		Permissions:   toPermissionViews(r.Permissions),
		Groups:        groups,
	}
}

func toRoleViews(roles []model.Role) []roleView {
	out := make([]roleView, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleView(r))
	}
	return out
}

// groupView is the wire representation of a group.
type groupView struct {
	ID     string     `json:"id"`
	Name   string     `json:"groupName"`
	Source string     `json:"groupSource"`
	Roles  []roleView `json:"roles"`
	Users  []userView `json:"users"`
}

func toGroupView(g model.Group) groupView {
	return groupView{
		ID:     g.ID,
		Name:   g.Name,
		Source: g.Source,
		Roles:  toRoleViews(g.Roles),
		Users:  toUserViews(g.Users),
	}
}

// userView is the wire representation of a user reference.
type userView struct {
	SubjectID        string `json:"subjectId"`
	IdentityProvider string `json:"identityProvider"`
}

func subjectFromView(v userView) identity.Subject {
	return identity.NewSubject(v.SubjectID, v.IdentityProvider)
}

func toUserViews(users []model.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{SubjectID: u.SubjectID, IdentityProvider: u.IdentityProvider})
	}
	return out
}

// securableItemView is the wire representation of a securable item subtree.
type securableItemView struct {
	ID             string              `json:"id"`
	Grain          string              `json:"grain"`
	Name           string              `json:"name"`
	SecurableItems []securableItemView `json:"securableItems"`
}

func toSecurableItemView(item model.SecurableItem) securableItemView {
	children := make([]securableItemView, 0, len(item.SecurableItems))
	for _, child := range item.SecurableItems {
		children = append(children, toSecurableItemView(child))
	}
	return securableItemView{
		ID:             item.ID,
		Grain:          item.Grain,
		Name:           item.Name,
		SecurableItems: children,
	}
}

// clientView is the wire representation of a client.
type clientView struct {
	ID                    string             `json:"id"`
	Name                  string             `json:"name"`
	TopLevelSecurableItem *securableItemView `json:"topLevelSecurableItem,omitempty"`
}

func toClientView(c model.Client) clientView {
	view := clientView{ID: c.ID, Name: c.Name}
	if c.TopLevelSecurableItem != nil {
		item := toSecurableItemView(*c.TopLevelSecurableItem)
		view.TopLevelSecurableItem = &item
	}
	return view
}
