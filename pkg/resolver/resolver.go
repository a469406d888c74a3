package resolver

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// Request carries the identity context for one resolution. UserGroups is the
// caller-supplied group list; it is treated as given input, already verified
// upstream.
type Request struct {
	Subject                  identity.Subject
	Scope                    model.Scope
	UserGroups               []string
	IncludeSharedPermissions bool
}

// Result holds the effective permission set for a request. Permissions are
// de-duplicated by their (grain, securable item, name) identity and sorted
// by key.
type Result struct {
	AllowedPermissions []model.Permission
}

// Service resolves effective permissions against the role directory, the
// securable-item hierarchy, and the granular override store.
type Service struct {
	roles    store.RolesStore
	items    store.SecurableItemsStore
	granular store.GranularStore
}

// NewService creates a resolver Service.
func NewService(roles store.RolesStore, items store.SecurableItemsStore, granular store.GranularStore) *Service {
	return &Service{roles: roles, items: items, granular: granular}
}

// Resolve computes the effective permission set for the request.
//
// Directory reads are issued concurrently and joined before aggregation.
// An identity with no matching roles and no overrides resolves to an empty
// set; only a failed directory read fails the resolution, and that error is
// propagated unchanged.
func (s *Service) Resolve(ctx context.Context, req Request) (*Result, error) {
	if req.Scope.IsZero() {
		return nil, errs.Validation("resolution scope is required")
	}
	if req.Subject.SubjectID == "" {
		return nil, errs.Validation("resolution subject id is required")
	}

	var (
		userRoles  []model.Role
		groupRoles []model.Role
		ancestors  []model.SecurableItem
		overrides  *model.GranularPermission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userRoles, err = s.roles.FetchRolesForUser(gctx, req.Subject)
		return err
	})
	if len(req.UserGroups) > 0 {
		g.Go(func() error {
			var err error
			groupRoles, err = s.roles.FetchRolesForGroups(gctx, req.UserGroups)
			return err
		})
	}
	if req.IncludeSharedPermissions {
		g.Go(func() error {
			var err error
			ancestors, err = s.items.FetchAncestors(gctx, req.Scope)
			return err
		})
	}
	g.Go(func() error {
		var err error
		overrides, err = s.granular.FetchGranularPermissions(gctx, req.Subject)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Scopes whose role grants count: the requested scope plus, when shared
	// permissions are requested, every ancestor scope. The visited set keeps
	// malformed ancestor chains from being counted twice.
	scopes := map[string]bool{req.Scope.Key(): true}
	for _, ancestor := range ancestors {
		scopes[ancestor.ScopeKey()] = true
	}

	allowed := map[string]model.Permission{}
	seenRoles := map[string]bool{}
	for _, role := range append(userRoles, groupRoles...) {
		if role.IsDeleted || seenRoles[role.ID] || !scopes[role.Scope()] {
			continue
		}
		seenRoles[role.ID] = true
		for _, p := range role.Permissions {
			if p.IsDeleted {
				continue
			}
			allowed[p.Key()] = p
		}
	}

	applyOverrides(allowed, overrides)

	result := &Result{AllowedPermissions: make([]model.Permission, 0, len(allowed))}
	for _, p := range allowed {
		result.AllowedPermissions = append(result.AllowedPermissions, p)
	}
	sort.Slice(result.AllowedPermissions, func(i, j int) bool {
		return result.AllowedPermissions[i].Key() < result.AllowedPermissions[j].Key()
	})
	return result, nil
}

// applyOverrides is the precedence pass: denials remove permissions no
// matter how many roles granted them, additions fill in permissions no role
// granted, and a permission that is both denied and additional stays out.
func applyOverrides(allowed map[string]model.Permission, overrides *model.GranularPermission) {
	if overrides == nil {
		return
	}

	denied := make(map[string]bool, len(overrides.DeniedPermissions))
	for _, p := range overrides.DeniedPermissions {
		denied[p.Key()] = true
		delete(allowed, p.Key())
	}
	for _, p := range overrides.AdditionalPermissions {
		if denied[p.Key()] {
			continue
		}
		allowed[p.Key()] = p
	}
}
