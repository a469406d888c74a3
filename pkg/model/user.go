package model

// User represents a composite identity. Users are identified by
// (subject id, identity provider); there is no standalone user id.
// Group names are denormalized for fast membership lookups.
type User struct {
	SubjectID        string `gorm:"column:subject_id;primaryKey"`
	IdentityProvider string `gorm:"column:identity_provider;primaryKey"`

	Groups []string `gorm:"-"`
	Roles  []Role   `gorm:"-"`
}

func (User) TableName() string {
	return "users"
}
