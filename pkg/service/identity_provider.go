package service

import (
	"context"
	"time"
)

// UserDetail is the per-user metadata supplied by an external identity
// service for member search results.
type UserDetail struct {
	SubjectID            string
	FirstName            string
	LastName             string
	LastLoginDateTimeUtc *time.Time
}

// IdentityServiceProvider looks up user metadata from the identity system.
// It is an external collaborator; lookups are best-effort and a failed
// lookup should degrade to missing metadata, not a failed search.
type IdentityServiceProvider interface {
	SearchUsers(ctx context.Context, clientID string, subjectIDs []string) ([]UserDetail, error)
}

// NoopIdentityService is an IdentityServiceProvider that returns no
// metadata. Used when no identity service is configured.
type NoopIdentityService struct{}

func (NoopIdentityService) SearchUsers(ctx context.Context, clientID string, subjectIDs []string) ([]UserDetail, error) {
	return nil, nil
}
