package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store/inmem"
)

func mustScope(t *testing.T, grain, item string) model.Scope {
	t.Helper()
	scope, err := model.NewScope(grain, item)
	require.NoError(t, err)
	return scope
}

func perm(id, grain, item, name string) model.Permission {
	return model.Permission{ID: id, Grain: grain, SecurableItem: item, Name: name}
}

func permStrings(result *Result) []string {
	out := make([]string, 0, len(result.AllowedPermissions))
	for _, p := range result.AllowedPermissions {
		out = append(out, p.String())
	}
	return out
}

// fixture: role "contributor" (edit) granted to group "contributors", role
// "reader" (read) assigned directly to alice, both scoped to
// app:patientsafety.
func seedBaseline(t *testing.T) *inmem.Store {
	t.Helper()
	ctx := context.Background()
	s := inmem.New()

	_, err := s.AddRole(ctx, model.Role{
		ID: "role-contributor", Name: "contributor", Grain: "app", SecurableItem: "patientsafety",
		Groups:      []string{"contributors"},
		Permissions: []model.Permission{perm("p-edit", "app", "patientsafety", "edit")},
	})
	require.NoError(t, err)

	_, err = s.AddRole(ctx, model.Role{
		ID: "role-reader", Name: "reader", Grain: "app", SecurableItem: "patientsafety",
		Users:       []model.User{{SubjectID: "alice", IdentityProvider: "windows"}},
		Permissions: []model.Permission{perm("p-read", "app", "patientsafety", "read")},
	})
	require.NoError(t, err)

	return s
}

func baselineRequest() Request {
	return Request{
		Subject:    identity.NewSubject("alice", "windows"),
		UserGroups: []string{"contributors"},
	}
}

func TestResolveMergesUserAndGroupRoles(t *testing.T) {
	s := seedBaseline(t)
	svc := NewService(s, s, s)

	req := baselineRequest()
	req.Scope = mustScope(t, "app", "patientsafety")

	result, err := svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/patientsafety.edit", "app/patientsafety.read"}, permStrings(result))
}

func TestResolveDenialDominatesRoleGrant(t *testing.T) {
	s := seedBaseline(t)
	ctx := context.Background()
	require.NoError(t, s.AddDeniedPermissions(ctx, identity.NewSubject("alice", "windows"),
		[]model.Permission{perm("p-edit", "app", "patientsafety", "edit")}))

	svc := NewService(s, s, s)
	req := baselineRequest()
	req.Scope = mustScope(t, "app", "patientsafety")

	result, err := svc.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/patientsafety.read"}, permStrings(result))
}

func TestResolveAdditionalWithoutRoleGrant(t *testing.T) {
	s := seedBaseline(t)
	ctx := context.Background()
	require.NoError(t, s.AddAdditionalPermissions(ctx, identity.NewSubject("alice", "windows"),
		[]model.Permission{perm("p-delete", "app", "patientsafety", "delete")}))

	svc := NewService(s, s, s)
	req := baselineRequest()
	req.Scope = mustScope(t, "app", "patientsafety")

	result, err := svc.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Contains(t, permStrings(result), "app/patientsafety.delete")
}

func TestResolveDenialDominatesAddition(t *testing.T) {
	s := seedBaseline(t)
	ctx := context.Background()
	subject := identity.NewSubject("alice", "windows")
	deletePerm := perm("p-delete", "app", "patientsafety", "delete")

	require.NoError(t, s.AddAdditionalPermissions(ctx, subject, []model.Permission{deletePerm}))
	require.NoError(t, s.AddDeniedPermissions(ctx, subject, []model.Permission{deletePerm}))

	svc := NewService(s, s, s)
	req := baselineRequest()
	req.Scope = mustScope(t, "app", "patientsafety")

	result, err := svc.Resolve(ctx, req)
	require.NoError(t, err)
	assert.NotContains(t, permStrings(result), "app/patientsafety.delete")
}

func TestResolveDeduplicatesAcrossRoles(t *testing.T) {
	ctx := context.Background()
	s := inmem.New()

	// two roles grant the same logical permission through distinct records
	_, err := s.AddRole(ctx, model.Role{
		ID: "r1", Name: "editor-a", Grain: "app", SecurableItem: "atlas",
		Groups:      []string{"team"},
		Permissions: []model.Permission{perm("p1", "app", "atlas", "edit")},
	})
	require.NoError(t, err)
	_, err = s.AddRole(ctx, model.Role{
		ID: "r2", Name: "editor-b", Grain: "app", SecurableItem: "atlas",
		Groups:      []string{"team"},
		Permissions: []model.Permission{perm("p2", "app", "atlas", "edit")},
	})
	require.NoError(t, err)

	svc := NewService(s, s, s)
	result, err := svc.Resolve(ctx, Request{
		Subject:    identity.NewSubject("alice", "windows"),
		Scope:      mustScope(t, "app", "atlas"),
		UserGroups: []string{"team"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"app/atlas.edit"}, permStrings(result))
}

func TestResolveEmptyIsNotAnError(t *testing.T) {
	s := inmem.New()
	svc := NewService(s, s, s)

	result, err := svc.Resolve(context.Background(), Request{
		Subject: identity.NewSubject("nobody", "windows"),
		Scope:   mustScope(t, "app", "unknown"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.AllowedPermissions)
}

func TestResolveSharedPermissionsToggle(t *testing.T) {
	ctx := context.Background()
	s := inmem.New()

	// atlas (root, has the role grant) -> atlas-si2 (child, no roles)
	_, err := s.AddSecurableItem(ctx, model.SecurableItem{ID: "top", Grain: "app", Name: "atlas"})
	require.NoError(t, err)
	_, err = s.AddSecurableItem(ctx, model.SecurableItem{ID: "si2", Grain: "app", Name: "atlas-si2", ParentID: "top"})
	require.NoError(t, err)

	_, err = s.AddRole(ctx, model.Role{
		ID: "r-admin", Name: "admin", Grain: "app", SecurableItem: "atlas",
		Groups:      []string{"admins"},
		Permissions: []model.Permission{perm("p-manage", "app", "atlas", "manageusers")},
	})
	require.NoError(t, err)

	svc := NewService(s, s, s)
	req := Request{
		Subject:    identity.NewSubject("alice", "windows"),
		Scope:      mustScope(t, "app", "atlas-si2"),
		UserGroups: []string{"admins"},
	}

	result, err := svc.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, result.AllowedPermissions, "shared permissions excluded without opt-in")

	req.IncludeSharedPermissions = true
	result, err = svc.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/atlas.manageusers"}, permStrings(result))
}

func TestResolveTerminatesOnCyclicHierarchy(t *testing.T) {
	ctx := context.Background()
	s := inmem.New()

	// a -> b -> a cycle
	_, err := s.AddSecurableItem(ctx, model.SecurableItem{ID: "a", Grain: "app", Name: "alpha", ParentID: "b"})
	require.NoError(t, err)
	_, err = s.AddSecurableItem(ctx, model.SecurableItem{ID: "b", Grain: "app", Name: "beta", ParentID: "a"})
	require.NoError(t, err)

	_, err = s.AddRole(ctx, model.Role{
		ID: "r1", Name: "viewer", Grain: "app", SecurableItem: "beta",
		Groups:      []string{"viewers"},
		Permissions: []model.Permission{perm("p1", "app", "beta", "view")},
	})
	require.NoError(t, err)

	svc := NewService(s, s, s)
	result, err := svc.Resolve(ctx, Request{
		Subject:                  identity.NewSubject("alice", "windows"),
		Scope:                    mustScope(t, "app", "alpha"),
		UserGroups:               []string{"viewers"},
		IncludeSharedPermissions: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"app/beta.view"}, permStrings(result))
}

func TestResolveIdempotent(t *testing.T) {
	s := seedBaseline(t)
	svc := NewService(s, s, s)
	req := baselineRequest()
	req.Scope = mustScope(t, "app", "patientsafety")

	first, err := svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, permStrings(first), permStrings(second))
}

func TestResolveValidatesRequest(t *testing.T) {
	s := inmem.New()
	svc := NewService(s, s, s)

	_, err := svc.Resolve(context.Background(), Request{
		Subject: identity.NewSubject("alice", "windows"),
	})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Resolve(context.Background(), Request{
		Scope: mustScope(t, "app", "patientsafety"),
	})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

// failingRoles wraps the in-memory store and fails user-role reads.
type failingRoles struct {
	*inmem.Store
	err error
}

func (f *failingRoles) FetchRolesForUser(ctx context.Context, subject identity.Subject) ([]model.Role, error) {
	return nil, f.err
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	s := inmem.New()
	storeErr := errors.New("connection refused")
	svc := NewService(&failingRoles{Store: s, err: storeErr}, s, s)

	_, err := svc.Resolve(context.Background(), Request{
		Subject: identity.NewSubject("alice", "windows"),
		Scope:   mustScope(t, "app", "patientsafety"),
	})
	assert.ErrorIs(t, err, storeErr)
}

func TestResolveHonorsCancellation(t *testing.T) {
	s := seedBaseline(t)
	svc := NewService(&ctxCheckingRoles{Store: s}, s, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := baselineRequest()
	req.Scope = mustScope(t, "app", "patientsafety")
	_, err := svc.Resolve(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}

// ctxCheckingRoles fails user-role reads when the context is already done,
// standing in for a network-backed store.
type ctxCheckingRoles struct {
	*inmem.Store
}

func (c *ctxCheckingRoles) FetchRolesForUser(ctx context.Context, subject identity.Subject) ([]model.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Store.FetchRolesForUser(ctx, subject)
}
