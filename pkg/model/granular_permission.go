package model

// GranularPermission holds the per-user permission overrides for a target
// identity. Overrides are independent of role and group membership and are
// applied as the final pass of resolution: denied permissions always win.
//
// The target is a weak reference; overrides may exist for identities that
// were never materialized as full user records.
type GranularPermission struct {
	SubjectID        string `gorm:"column:subject_id;primaryKey"`
	IdentityProvider string `gorm:"column:identity_provider;primaryKey"`

	AdditionalPermissions []Permission `gorm:"-"`
	DeniedPermissions     []Permission `gorm:"-"`
}

func (GranularPermission) TableName() string {
	return "granular_permissions"
}
