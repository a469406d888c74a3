package model

import "time"

// SecurableItem is a node in a client's resource tree. The tree root is the
// client's top-level item; descendants inherit shared permissions from
// ancestors when a resolution request opts in.
type SecurableItem struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Grain       string    `gorm:"column:grain;not null"`
	Name        string    `gorm:"column:name;not null"`
	ParentID    string    `gorm:"column:parent_id"`
	ClientOwner string    `gorm:"column:client_owner"`
	IsDeleted   bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`

	// Children, materialized by the store when a full tree is requested.
	SecurableItems []SecurableItem `gorm:"-"`
}

func (SecurableItem) TableName() string {
	return "securable_items"
}

// ScopeKey returns the item's scope key ("grain:name").
func (s SecurableItem) ScopeKey() string {
	return s.Grain + ":" + s.Name
}
