package inmem

import (
	"context"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

// FetchGranularPermissions returns the override record for a subject, or
// nil, nil when no overrides exist.
func (s *Store) FetchGranularPermissions(ctx context.Context, subject identity.Subject) (*model.GranularPermission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.granular[subject.Key()]
	if !ok {
		return nil, nil
	}
	out := model.GranularPermission{
		SubjectID:             rec.SubjectID,
		IdentityProvider:      rec.IdentityProvider,
		AdditionalPermissions: copyPermissions(rec.AdditionalPermissions),
		DeniedPermissions:     copyPermissions(rec.DeniedPermissions),
	}
	return &out, nil
}

// AddAdditionalPermissions unions permissions into the subject's additional
// set. The whole union happens under the store lock, so concurrent callers
// cannot lose additions.
func (s *Store) AddAdditionalPermissions(ctx context.Context, subject identity.Subject, permissions []model.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.granularLocked(subject)
	rec.AdditionalPermissions = unionByKey(rec.AdditionalPermissions, permissions)
	return nil
}

// AddDeniedPermissions unions permissions into the subject's denied set.
func (s *Store) AddDeniedPermissions(ctx context.Context, subject identity.Subject, permissions []model.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.granularLocked(subject)
	rec.DeniedPermissions = unionByKey(rec.DeniedPermissions, permissions)
	return nil
}

func (s *Store) granularLocked(subject identity.Subject) *model.GranularPermission {
	rec, ok := s.granular[subject.Key()]
	if !ok {
		rec = &model.GranularPermission{
			SubjectID:        subject.SubjectID,
			IdentityProvider: subject.IdentityProvider,
		}
		s.granular[subject.Key()] = rec
	}
	return rec
}

func unionByKey(existing, additions []model.Permission) []model.Permission {
	present := make(map[string]bool, len(existing))
	for _, p := range existing {
		present[p.Key()] = true
	}
	for _, p := range additions {
		if present[p.Key()] {
			continue
		}
		existing = append(existing, p)
		present[p.Key()] = true
	}
	return existing
}
