package identity

import (
	"context"
	"net"
	"strings"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Subject is the composite identity key: a subject id paired with the
// identity provider that issued it. Subjects are value-type keys; a Subject
// may refer to an identity that was never materialized as a user record.
type Subject struct {
	SubjectID        string
	IdentityProvider string
}

// NewSubject constructs a Subject.
func NewSubject(subjectID, identityProvider string) Subject {
	return Subject{SubjectID: subjectID, IdentityProvider: identityProvider}
}

// Equal compares subjects. The identity provider component is compared
// case-insensitively ("Windows" and "windows" name the same provider); the
// subject id is compared exactly.
func (s Subject) Equal(other Subject) bool {
	return s.SubjectID == other.SubjectID &&
		strings.EqualFold(s.IdentityProvider, other.IdentityProvider)
}

// Key returns a canonical lookup key for the subject.
func (s Subject) Key() string {
	return s.SubjectID + ":" + strings.ToLower(s.IdentityProvider)
}

func (s Subject) String() string { return s.Key() }

// Identity represents the verified caller identity for a request. The
// upstream gateway has already authenticated the caller; this core treats
// the claims as given input.
type Identity struct {
	Subject  Subject
	ClientID string
	Groups   []string

	RemoteIP net.IP
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
