package model

import "time"

// Role represents a named bundle of permissions scoped to a grain/securable
// item. Roles are granted to groups by name and to users directly. A role may
// have at most one parent; children are derived from an index over parent
// links, never stored as back-pointers.
type Role struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Grain         string    `gorm:"column:grain;not null"`
	SecurableItem string    `gorm:"column:securable_item;not null"`
	ParentRoleID  string    `gorm:"column:parent_role_id"`
	IsDeleted     bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`

	// Grant edges, materialized by the store.
	Permissions []Permission `gorm:"-"`
	Groups      []string     `gorm:"-"`
	Users       []User       `gorm:"-"`
}

func (Role) TableName() string {
	return "roles"
}

// Scope returns the role's scope key ("grain:securableItem").
func (r Role) Scope() string {
	return r.Grain + ":" + r.SecurableItem
}
