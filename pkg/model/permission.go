package model

import "time"

// Permission represents a grantable capability within a grain/securable-item
// scope. Permissions are uniquely keyed by (grain, securable item, name);
// the Id is a surrogate for direct lookups.
type Permission struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Grain         string    `gorm:"column:grain;not null"`
	SecurableItem string    `gorm:"column:securable_item;not null"`
	Name          string    `gorm:"column:name;not null"`
	IsDeleted     bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

// Key returns the identity triple as "grain:securableItem:name". Two
// permissions with the same key are the same logical permission regardless
// of which role carried them.
func (p Permission) Key() string {
	return p.Grain + ":" + p.SecurableItem + ":" + p.Name
}

// String renders the permission the way the API reports it,
// e.g. "app/patientsafety.createalerts".
func (p Permission) String() string {
	return p.Grain + "/" + p.SecurableItem + "." + p.Name
}
