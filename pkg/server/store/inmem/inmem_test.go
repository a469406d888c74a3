package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
)

func mustScope(t *testing.T, grain, item string) model.Scope {
	t.Helper()
	scope, err := model.NewScope(grain, item)
	require.NoError(t, err)
	return scope
}

func TestRolesSoftDeleteFiltering(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.AddRole(ctx, model.Role{ID: "r1", Name: "contributor", Grain: "app", SecurableItem: "patientsafety"})
	require.NoError(t, err)
	_, err = s.AddRole(ctx, model.Role{ID: "r2", Name: "viewer", Grain: "app", SecurableItem: "patientsafety"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRole(ctx, "r2"))

	roles, err := s.FetchRolesForSecurableItem(ctx, mustScope(t, "app", "patientsafety"))
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "contributor", roles[0].Name)

	_, err = s.FetchRole(ctx, "r2")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAddRoleDuplicateScope(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.AddRole(ctx, model.Role{ID: "r1", Name: "admin", Grain: "app", SecurableItem: "atlas"})
	require.NoError(t, err)

	_, err = s.AddRole(ctx, model.Role{ID: "r2", Name: "Admin", Grain: "app", SecurableItem: "atlas"})
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	// same name in a different scope is fine
	_, err = s.AddRole(ctx, model.Role{ID: "r3", Name: "admin", Grain: "app", SecurableItem: "patientsafety"})
	assert.NoError(t, err)
}

func TestFetchRolesForGroupsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.AddRole(ctx, model.Role{
		ID: "r1", Name: "contributor", Grain: "app", SecurableItem: "patientsafety",
		Groups: []string{"Editors"},
	})
	require.NoError(t, err)

	roles, err := s.FetchRolesForGroups(ctx, []string{"editors"})
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestAncestorsStopsOnCycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	// a -> b -> c -> a
	_, err := s.AddSecurableItem(ctx, model.SecurableItem{ID: "a", Grain: "app", Name: "alpha", ParentID: "c"})
	require.NoError(t, err)
	_, err = s.AddSecurableItem(ctx, model.SecurableItem{ID: "b", Grain: "app", Name: "beta", ParentID: "a"})
	require.NoError(t, err)
	_, err = s.AddSecurableItem(ctx, model.SecurableItem{ID: "c", Grain: "app", Name: "gamma", ParentID: "b"})
	require.NoError(t, err)

	ancestors, err := s.FetchAncestors(ctx, mustScope(t, "app", "beta"))
	require.NoError(t, err)

	// b's walk visits a and c, then stops when the cycle closes
	require.Len(t, ancestors, 2)
	assert.Equal(t, "alpha", ancestors[0].Name)
	assert.Equal(t, "gamma", ancestors[1].Name)
}

func TestAncestorsUnknownScopeIsEmpty(t *testing.T) {
	ancestors, err := New().FetchAncestors(context.Background(), mustScope(t, "app", "nowhere"))
	require.NoError(t, err)
	assert.Empty(t, ancestors)
}

func TestGranularUnionIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	subject := identity.NewSubject("alice", "windows")

	perm := model.Permission{ID: "p1", Grain: "app", SecurableItem: "patientsafety", Name: "edit"}
	require.NoError(t, s.AddAdditionalPermissions(ctx, subject, []model.Permission{perm}))
	require.NoError(t, s.AddAdditionalPermissions(ctx, subject, []model.Permission{perm}))

	rec, err := s.FetchGranularPermissions(ctx, subject)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.AdditionalPermissions, 1)

	// provider name casing maps to the same subject
	rec, err = s.FetchGranularPermissions(ctx, identity.NewSubject("alice", "Windows"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.AdditionalPermissions, 1)
}

func TestGranularAbsentIsNil(t *testing.T) {
	rec, err := New().FetchGranularPermissions(context.Background(), identity.NewSubject("nobody", "windows"))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPermissionSoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	s := New()
	scope := mustScope(t, "app", "patientsafety")

	perm := model.Permission{ID: "p1", Grain: "app", SecurableItem: "patientsafety", Name: "createalerts"}
	_, err := s.AddPermission(ctx, perm)
	require.NoError(t, err)

	_, err = s.AddPermission(ctx, model.Permission{ID: "p2", Grain: "app", SecurableItem: "patientsafety", Name: "createalerts"})
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	require.NoError(t, s.DeletePermission(ctx, "p1"))

	_, err = s.FetchPermission(ctx, "p1")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	// the triple lookup still sees the soft-deleted record
	deleted, err := s.FetchPermissionByTriple(ctx, scope, "createalerts")
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.True(t, deleted.IsDeleted)

	require.NoError(t, s.RestorePermission(ctx, "p1"))
	restored, err := s.FetchPermission(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "createalerts", restored.Name)
}

func TestFetchClientMaterializesTree(t *testing.T) {
	ctx := context.Background()
	s := New()

	top := model.SecurableItem{ID: "top", Grain: "app", Name: "atlas", ClientOwner: "atlas"}
	_, err := s.AddClient(ctx, model.Client{ID: "atlas", Name: "Atlas", TopLevelSecurableItem: &top})
	require.NoError(t, err)

	_, err = s.AddSecurableItem(ctx, model.SecurableItem{ID: "si1", Grain: "atlas", Name: "patient", ParentID: "top"})
	require.NoError(t, err)

	client, err := s.FetchClient(ctx, "atlas")
	require.NoError(t, err)
	require.NotNil(t, client.TopLevelSecurableItem)
	require.Len(t, client.TopLevelSecurableItem.SecurableItems, 1)
	assert.Equal(t, "patient", client.TopLevelSecurableItem.SecurableItems[0].Name)
}
