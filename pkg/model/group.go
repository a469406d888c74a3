package model

import "time"

// Group source constants. Directory groups originate from an external
// directory service; custom groups are managed locally.
const (
	GroupSourceDirectory = "directory"
	GroupSourceCustom    = "custom"
)

// Group represents a named set of users carrying role grants.
type Group struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	Source    string    `gorm:"column:source;not null"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	// Grant edges, materialized by the store.
	Roles []Role `gorm:"-"`
	Users []User `gorm:"-"`
}

func (Group) TableName() string {
	return "groups"
}
