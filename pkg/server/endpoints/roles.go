package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/audit"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server"
)

// RegisterRolesEndpoints registers the role definition and grant routes.
func RegisterRolesEndpoints(srv *server.Server, router *mux.Router) {
	h := roleHandlers{srv: srv}
	// The children route is registered ahead of the scope listing so
	// "/roles/{id}/children" is not consumed as a scope pair.
	router.HandleFunc("/roles/{roleId}/children", h.GetChildRoles).Methods("GET")
	router.HandleFunc("/roles/{grain}/{securableItem}", h.ListRoles).Methods("GET")
	router.HandleFunc("/roles/{roleId}", h.GetRole).Methods("GET")
	router.HandleFunc("/roles", h.AddRole).Methods("POST")
	router.HandleFunc("/roles/{roleId}", h.DeleteRole).Methods("DELETE")
	router.HandleFunc("/roles/{roleId}/permissions", h.AddPermissionsToRole).Methods("POST")
	router.HandleFunc("/roles/{roleId}/groups", h.AddGroupToRole).Methods("POST")
	router.HandleFunc("/roles/{roleId}/users", h.AddUserToRole).Methods("POST")
}

type roleHandlers struct {
	srv *server.Server
}

// ListRoles lists the active roles in a scope.
func (h roleHandlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	scope, err := model.NewScope(vars["grain"], vars["securableItem"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	roles, err := h.srv.Roles.GetRolesForSecurableItem(r.Context(), scope)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toRoleViews(roles))
}

// GetRole retrieves a single role by id.
func (h roleHandlers) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.srv.Roles.GetRole(r.Context(), mux.Vars(r)["roleId"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toRoleView(*role))
}

// GetChildRoles lists the roles whose parent is the given role.
func (h roleHandlers) GetChildRoles(w http.ResponseWriter, r *http.Request) {
	children, err := h.srv.Roles.GetChildRoles(r.Context(), mux.Vars(r)["roleId"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toRoleViews(children))
}

// AddRole creates a role.
func (h roleHandlers) AddRole(w http.ResponseWriter, r *http.Request) {
	var body roleView
	if !decodeJSONBody(w, r, &body) {
		return
	}

	role := model.Role{
		ID:            body.ID,
		Name:          body.Name,
		Grain:         body.Grain,
		SecurableItem: body.SecurableItem,
		ParentRoleID:  body.ParentRole,
	}

	actorID, clientIP := actorInfo(r)
	created, err := h.srv.Roles.AddRole(r.Context(), role)

	event := audit.RoleEvent{
		ActorID:      actorID,
		ClientIP:     clientIP,
		RoleName:     role.Name,
		Operation:    "create",
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	}
	if created != nil {
		event.RoleID = created.ID
	}
	audit.Log(event)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toRoleView(*created))
}

// DeleteRole soft-deletes a role.
func (h roleHandlers) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["roleId"]

	actorID, clientIP := actorInfo(r)
	err := h.srv.Roles.DeleteRole(r.Context(), id)
	audit.Log(audit.RoleEvent{
		ActorID:      actorID,
		ClientIP:     clientIP,
		RoleID:       id,
		Operation:    "delete",
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddPermissionsToRole attaches permissions to a role.
func (h roleHandlers) AddPermissionsToRole(w http.ResponseWriter, r *http.Request) {
	roleID := mux.Vars(r)["roleId"]

	var body []permissionView
	if !decodeJSONBody(w, r, &body) {
		return
	}

	permissionIDs := make([]string, 0, len(body))
	for _, v := range body {
		if v.ID == "" {
			respondWithError(w, http.StatusBadRequest, "permission id is required")
			return
		}
		permissionIDs = append(permissionIDs, v.ID)
	}

	actorID, clientIP := actorInfo(r)
	err := h.srv.Roles.AddPermissionsToRole(r.Context(), roleID, permissionIDs)
	audit.Log(audit.RoleEvent{
		ActorID:      actorID,
		ClientIP:     clientIP,
		RoleID:       roleID,
		Operation:    "attach-permissions",
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddGroupToRole grants a role to a group by name.
func (h roleHandlers) AddGroupToRole(w http.ResponseWriter, r *http.Request) {
	roleID := mux.Vars(r)["roleId"]

	var body struct {
		GroupName string `json:"groupName"`
	}
	if !decodeJSONBody(w, r, &body) {
		return
	}

	actorID, clientIP := actorInfo(r)
	err := h.srv.Roles.AddGroupToRole(r.Context(), roleID, body.GroupName)
	audit.Log(audit.RoleEvent{
		ActorID:      actorID,
		ClientIP:     clientIP,
		RoleID:       roleID,
		Operation:    "grant-group",
		Target:       body.GroupName,
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddUserToRole assigns a role directly to a subject.
func (h roleHandlers) AddUserToRole(w http.ResponseWriter, r *http.Request) {
	roleID := mux.Vars(r)["roleId"]

	var body userView
	if !decodeJSONBody(w, r, &body) {
		return
	}
	subject := subjectFromView(body)

	actorID, clientIP := actorInfo(r)
	err := h.srv.Roles.AddUserToRole(r.Context(), roleID, subject)
	audit.Log(audit.RoleEvent{
		ActorID:      actorID,
		ClientIP:     clientIP,
		RoleID:       roleID,
		Operation:    "grant-user",
		Target:       subject.SubjectID,
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
