package model

import "time"

// Client represents a registered application. Each client owns one top-level
// securable item, the root of its resource tree.
type Client struct {
	ID                      string    `gorm:"column:id;primaryKey"`
	Name                    string    `gorm:"column:name;not null"`
	TopLevelSecurableItemID string    `gorm:"column:top_level_securable_item_id"`
	IsDeleted               bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt               time.Time `gorm:"column:created_at;autoCreateTime"`

	TopLevelSecurableItem *SecurableItem `gorm:"-"`
}

func (Client) TableName() string {
	return "clients"
}
