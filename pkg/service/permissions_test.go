package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/resolver"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store/inmem"
)

func newPermissionService() (*PermissionService, *inmem.Store) {
	st := inmem.New()
	res := resolver.NewService(st, st, st)
	return NewPermissionService(st, st, res), st
}

func TestAddPermission_GeneratesID(t *testing.T) {
	svc, _ := newPermissionService()

	created, err := svc.AddPermission(context.Background(), model.Permission{
		Grain: "app", SecurableItem: "patientsafety", Name: "manageusers",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "app:patientsafety:manageusers", created.Key())
}

func TestAddPermission_DuplicateTriple(t *testing.T) {
	svc, _ := newPermissionService()
	ctx := context.Background()

	_, err := svc.AddPermission(ctx, model.Permission{
		Grain: "app", SecurableItem: "patientsafety", Name: "manageusers",
	})
	require.NoError(t, err)

	_, err = svc.AddPermission(ctx, model.Permission{
		Grain: "app", SecurableItem: "patientsafety", Name: "manageusers",
	})
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestAddPermission_ReactivatesSoftDeleted(t *testing.T) {
	svc, _ := newPermissionService()
	ctx := context.Background()

	created, err := svc.AddPermission(ctx, model.Permission{
		Grain: "app", SecurableItem: "patientsafety", Name: "manageusers",
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeletePermission(ctx, created.ID))

	_, err = svc.GetPermission(ctx, created.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	revived, err := svc.AddPermission(ctx, model.Permission{
		Grain: "app", SecurableItem: "patientsafety", Name: "manageusers",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, revived.ID)
	assert.False(t, revived.IsDeleted)
}

func TestAddPermission_MissingFields(t *testing.T) {
	svc, _ := newPermissionService()

	_, err := svc.AddPermission(context.Background(), model.Permission{Grain: "app"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAddGranularPermissions_RequiresIDs(t *testing.T) {
	svc, _ := newPermissionService()
	ctx := context.Background()
	subject := identity.Subject{SubjectID: "bob", IdentityProvider: "windows"}

	err := svc.AddAdditionalPermissions(ctx, subject, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)

	err = svc.AddDeniedPermissions(ctx, subject, []model.Permission{
		{Grain: "app", SecurableItem: "patientsafety", Name: "manageusers"},
	})
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Contains(t, err.Error(), ErrPermissionIDMissing)
}

func TestGetPermissionsForUser_RendersStrings(t *testing.T) {
	svc, st := newPermissionService()
	ctx := context.Background()

	editor, err := st.AddRole(ctx, model.Role{
		ID: "r-editor", Name: "editor", Grain: "app", SecurableItem: "patientsafety",
		Permissions: []model.Permission{
			{ID: "p-edit", Grain: "app", SecurableItem: "patientsafety", Name: "editpatient"},
		},
	})
	require.NoError(t, err)

	subject := identity.Subject{SubjectID: "bob", IdentityProvider: "windows"}
	require.NoError(t, st.AddUserToRole(ctx, editor.ID, subject))

	scope, err := model.NewScope("app", "patientsafety")
	require.NoError(t, err)

	perms, err := svc.GetPermissionsForUser(ctx, subject, nil, scope, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/patientsafety.editpatient"}, perms)
}

func TestGetPermissionsForUser_DenialWins(t *testing.T) {
	svc, st := newPermissionService()
	ctx := context.Background()

	editor, err := st.AddRole(ctx, model.Role{
		ID: "r-editor", Name: "editor", Grain: "app", SecurableItem: "patientsafety",
		Permissions: []model.Permission{
			{ID: "p-edit", Grain: "app", SecurableItem: "patientsafety", Name: "editpatient"},
			{ID: "p-read", Grain: "app", SecurableItem: "patientsafety", Name: "readpatient"},
		},
	})
	require.NoError(t, err)

	subject := identity.Subject{SubjectID: "bob", IdentityProvider: "windows"}
	require.NoError(t, st.AddUserToRole(ctx, editor.ID, subject))
	require.NoError(t, svc.AddDeniedPermissions(ctx, subject, []model.Permission{
		{ID: "p-edit", Grain: "app", SecurableItem: "patientsafety", Name: "editpatient"},
	}))

	scope, err := model.NewScope("app", "patientsafety")
	require.NoError(t, err)

	perms, err := svc.GetPermissionsForUser(ctx, subject, nil, scope, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/patientsafety.readpatient"}, perms)
}
