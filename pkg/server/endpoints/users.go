package endpoints

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/audit"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server"
)

// RegisterUserEndpoints registers the user permission and membership routes.
func RegisterUserEndpoints(srv *server.Server, router *mux.Router) {
	h := userHandlers{srv: srv}
	router.HandleFunc("/user/permissions", h.ResolveOwnPermissions).Methods("GET")
	router.HandleFunc("/user/{identityProvider}/{subjectId}/permissions", h.ResolveUserPermissions).Methods("GET")
	router.HandleFunc("/user/{identityProvider}/{subjectId}/permissions/additional", h.AddAdditionalPermissions).Methods("POST")
	router.HandleFunc("/user/{identityProvider}/{subjectId}/permissions/denied", h.AddDeniedPermissions).Methods("POST")
	router.HandleFunc("/user/{identityProvider}/{subjectId}/groups", h.GetUserGroups).Methods("GET")
}

type userHandlers struct {
	srv *server.Server
}

type resolvedPermissionsResponse struct {
	RequestedGrain         string   `json:"requestedGrain"`
	RequestedSecurableItem string   `json:"requestedSecurableItem"`
	Permissions            []string `json:"permissions"`
}

// ResolveOwnPermissions resolves the effective permission set of the caller
// identified by the bearer token.
func (h userHandlers) ResolveOwnPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.Get(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "no identity on request")
		return
	}

	scope, includeShared, ok := scopeFromQueryWithDefault(w, r, id.ClientID)
	if !ok {
		return
	}

	h.resolve(w, r, id.Subject, id.Groups, scope, includeShared)
}

// ResolveUserPermissions resolves the effective permission set of an
// arbitrary subject. Group membership comes from the stored direct
// memberships rather than a token.
func (h userHandlers) ResolveUserPermissions(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromPath(w, r)
	if !ok {
		return
	}

	scope, includeShared, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}

	groups, err := h.srv.Groups.GetGroupsForUser(r.Context(), subject)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	groupNames := make([]string, 0, len(groups))
	for _, g := range groups {
		groupNames = append(groupNames, g.Name)
	}

	h.resolve(w, r, subject, groupNames, scope, includeShared)
}

func (h userHandlers) resolve(w http.ResponseWriter, r *http.Request, subject identity.Subject, groups []string, scope model.Scope, includeShared bool) {
	_, clientIP := actorInfo(r)

	permissions, err := h.srv.Permissions.GetPermissionsForUser(r.Context(), subject, groups, scope, includeShared)
	audit.Log(audit.ResolveEvent{
		SubjectID:        subject.SubjectID,
		IdentityProvider: subject.IdentityProvider,
		ClientIP:         clientIP,
		Scope:            scope.Key(),
		IncludeShared:    includeShared,
		PermissionCount:  len(permissions),
		Success:          err == nil,
		ErrorMessage:     errMessage(err),
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resolvedPermissionsResponse{
		RequestedGrain:         scope.Grain(),
		RequestedSecurableItem: scope.SecurableItem(),
		Permissions:            permissions,
	})
}

// AddAdditionalPermissions records additional granular permissions for a
// subject.
func (h userHandlers) AddAdditionalPermissions(w http.ResponseWriter, r *http.Request) {
	h.addGranular(w, r, "additional", h.srv.Permissions.AddAdditionalPermissions)
}

// AddDeniedPermissions records denied granular permissions for a subject.
func (h userHandlers) AddDeniedPermissions(w http.ResponseWriter, r *http.Request) {
	h.addGranular(w, r, "denied", h.srv.Permissions.AddDeniedPermissions)
}

func (h userHandlers) addGranular(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	apply func(ctx context.Context, subject identity.Subject, permissions []model.Permission) error,
) {
	subject, ok := subjectFromPath(w, r)
	if !ok {
		return
	}

	var body []permissionView
	if !decodeJSONBody(w, r, &body) {
		return
	}

	permissions := make([]model.Permission, 0, len(body))
	permissionIDs := make([]string, 0, len(body))
	for _, v := range body {
		permissions = append(permissions, fromPermissionView(v))
		permissionIDs = append(permissionIDs, v.ID)
	}

	actorID, clientIP := actorInfo(r)
	err := apply(r.Context(), subject, permissions)
	audit.Log(audit.GranularOverrideEvent{
		ActorID:          actorID,
		ClientIP:         clientIP,
		SubjectID:        subject.SubjectID,
		IdentityProvider: subject.IdentityProvider,
		Action:           action,
		PermissionIDs:    permissionIDs,
		Success:          err == nil,
		ErrorMessage:     errMessage(err),
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUserGroups returns the groups the subject is a direct member of.
func (h userHandlers) GetUserGroups(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromPath(w, r)
	if !ok {
		return
	}

	groups, err := h.srv.Groups.GetGroupsForUser(r.Context(), subject)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"groups": names})
}

// subjectFromPath decodes the identity provider and subject id path
// variables. Subject ids may carry encoded separators such as domain
// backslashes.
func subjectFromPath(w http.ResponseWriter, r *http.Request) (identity.Subject, bool) {
	vars := mux.Vars(r)

	idp, err := url.PathUnescape(vars["identityProvider"])
	if err != nil || idp == "" {
		respondWithError(w, http.StatusBadRequest, "identity provider is required")
		return identity.Subject{}, false
	}
	subjectID, err := url.PathUnescape(vars["subjectId"])
	if err != nil || subjectID == "" {
		respondWithError(w, http.StatusBadRequest, "subject id is required")
		return identity.Subject{}, false
	}

	return identity.NewSubject(subjectID, idp), true
}

// scopeFromQuery reads the grain and securableItem query parameters. Grain
// defaults to the app grain.
func scopeFromQuery(w http.ResponseWriter, r *http.Request) (model.Scope, bool, bool) {
	return scopeFromQueryWithDefault(w, r, "")
}

// scopeFromQueryWithDefault falls back to the caller's client for the
// securable item. The client's top-level item shares the client's id.
func scopeFromQueryWithDefault(w http.ResponseWriter, r *http.Request, defaultItem string) (model.Scope, bool, bool) {
	grain := r.URL.Query().Get("grain")
	if grain == "" {
		grain = model.GrainApp
	}
	securableItem := r.URL.Query().Get("securableItem")
	if securableItem == "" {
		securableItem = defaultItem
	}

	scope, err := model.NewScope(grain, securableItem)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return model.Scope{}, false, false
	}

	includeShared := r.URL.Query().Get("shared") == "true"
	return scope, includeShared, true
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
