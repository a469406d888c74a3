package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// Ensure GranularStore implements store.GranularStore
var _ store.GranularStore = (*GranularStore)(nil)

// Override actions stored in user_permissions.action.
const (
	actionAdditional = "additional"
	actionDenied     = "denied"
)

// GranularStore implements store.GranularStore using GORM. Overrides live in
// the user_permissions table with the permission triple denormalized, one
// row per (subject, permission, action). Insert-or-ignore on the unique key
// makes concurrent unions safe without explicit locking.
type GranularStore struct {
	db *gorm.DB
}

// NewGranularStore creates a new GranularStore
func NewGranularStore(db *gorm.DB) *GranularStore {
	return &GranularStore{db: db}
}

// FetchGranularPermissions returns the override record for a subject, or
// nil, nil when no overrides exist.
func (s *GranularStore) FetchGranularPermissions(ctx context.Context, subject identity.Subject) (*model.GranularPermission, error) {
	type overrideRow struct {
		PermissionID  string `gorm:"column:permission_id"`
		Grain         string `gorm:"column:grain"`
		SecurableItem string `gorm:"column:securable_item"`
		Name          string `gorm:"column:name"`
		Action        string `gorm:"column:action"`
	}

	var rows []overrideRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT permission_id, grain, securable_item, name, action
		FROM user_permissions
		WHERE subject_id = ? AND LOWER(identity_provider) = LOWER(?)
		ORDER BY grain, securable_item, name
	`, subject.SubjectID, subject.IdentityProvider).Scan(&rows).Error
	if err != nil {
		return nil, errs.Infrastructure(err, "querying overrides for %s", subject.Key())
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := &model.GranularPermission{
		SubjectID:        subject.SubjectID,
		IdentityProvider: subject.IdentityProvider,
	}
	for _, row := range rows {
		p := model.Permission{
			ID:            row.PermissionID,
			Grain:         row.Grain,
			SecurableItem: row.SecurableItem,
			Name:          row.Name,
		}
		switch row.Action {
		case actionDenied:
			out.DeniedPermissions = append(out.DeniedPermissions, p)
		default:
			out.AdditionalPermissions = append(out.AdditionalPermissions, p)
		}
	}
	return out, nil
}

// AddAdditionalPermissions unions permissions into the subject's additional
// set.
func (s *GranularStore) AddAdditionalPermissions(ctx context.Context, subject identity.Subject, permissions []model.Permission) error {
	return s.addOverrides(ctx, subject, permissions, actionAdditional)
}

// AddDeniedPermissions unions permissions into the subject's denied set.
func (s *GranularStore) AddDeniedPermissions(ctx context.Context, subject identity.Subject, permissions []model.Permission) error {
	return s.addOverrides(ctx, subject, permissions, actionDenied)
}

func (s *GranularStore) addOverrides(ctx context.Context, subject identity.Subject, permissions []model.Permission, action string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range permissions {
			err := tx.Exec(`
				INSERT INTO user_permissions (subject_id, identity_provider, permission_id, grain, securable_item, name, action)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT DO NOTHING
			`, subject.SubjectID, subject.IdentityProvider, p.ID, p.Grain, p.SecurableItem, p.Name, action).Error
			if err != nil {
				return errs.Infrastructure(err, "recording %s override for %s", action, subject.Key())
			}
		}
		return nil
	})
}
