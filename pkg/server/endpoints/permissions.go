package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/audit"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server"
)

// RegisterPermissionsEndpoints registers the permission definition routes.
func RegisterPermissionsEndpoints(srv *server.Server, router *mux.Router) {
	h := permissionHandlers{srv: srv}
	router.HandleFunc("/permissions/{grain}/{securableItem}", h.ListPermissions).Methods("GET")
	router.HandleFunc("/permissions/{grain}/{securableItem}/{permissionName}", h.ListPermissions).Methods("GET")
	router.HandleFunc("/permissions/{permissionId}", h.GetPermission).Methods("GET")
	router.HandleFunc("/permissions", h.AddPermission).Methods("POST")
	router.HandleFunc("/permissions/{permissionId}", h.DeletePermission).Methods("DELETE")
}

type permissionHandlers struct {
	srv *server.Server
}

// ListPermissions lists the active permissions in a scope, optionally
// narrowed to one name.
func (h permissionHandlers) ListPermissions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	scope, err := model.NewScope(vars["grain"], vars["securableItem"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	permissions, err := h.srv.Permissions.GetPermissions(r.Context(), scope, vars["permissionName"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPermissionViews(permissions))
}

// GetPermission retrieves a single permission by id.
func (h permissionHandlers) GetPermission(w http.ResponseWriter, r *http.Request) {
	permission, err := h.srv.Permissions.GetPermission(r.Context(), mux.Vars(r)["permissionId"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPermissionView(*permission))
}

// AddPermission creates a permission definition.
func (h permissionHandlers) AddPermission(w http.ResponseWriter, r *http.Request) {
	var body permissionView
	if !decodeJSONBody(w, r, &body) {
		return
	}

	actorID, clientIP := actorInfo(r)
	created, err := h.srv.Permissions.AddPermission(r.Context(), fromPermissionView(body))

	key := fromPermissionView(body).Key()
	if created != nil {
		key = created.Key()
	}
	audit.Log(audit.PermissionEvent{
		ActorID:       actorID,
		ClientIP:      clientIP,
		PermissionKey: key,
		Operation:     "create",
		Success:       err == nil,
		ErrorMessage:  errMessage(err),
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toPermissionView(*created))
}

// DeletePermission soft-deletes a permission.
func (h permissionHandlers) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["permissionId"]

	actorID, clientIP := actorInfo(r)
	err := h.srv.Permissions.DeletePermission(r.Context(), id)
	audit.Log(audit.PermissionEvent{
		ActorID:       actorID,
		ClientIP:      clientIP,
		PermissionKey: id,
		Operation:     "delete",
		Success:       err == nil,
		ErrorMessage:  errMessage(err),
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
