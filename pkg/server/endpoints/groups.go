package endpoints

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server"
)

// RegisterGroupsEndpoints registers the group routes.
func RegisterGroupsEndpoints(srv *server.Server, router *mux.Router) {
	h := groupHandlers{srv: srv}
	router.HandleFunc("/groups/{groupName}", h.GetGroup).Methods("GET")
	router.HandleFunc("/groups", h.AddGroup).Methods("POST")
	router.HandleFunc("/groups/{groupName}/users", h.AddUserToGroup).Methods("POST")
}

type groupHandlers struct {
	srv *server.Server
}

// GetGroup retrieves a group with its roles and users. Directory group
// names may carry encoded separators.
func (h groupHandlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(mux.Vars(r)["groupName"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed group name")
		return
	}

	group, err := h.srv.Groups.GetGroup(r.Context(), name)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toGroupView(*group))
}

// AddGroup creates a group.
func (h groupHandlers) AddGroup(w http.ResponseWriter, r *http.Request) {
	var body groupView
	if !decodeJSONBody(w, r, &body) {
		return
	}

	created, err := h.srv.Groups.AddGroup(r.Context(), model.Group{
		ID:     body.ID,
		Name:   body.Name,
		Source: body.Source,
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toGroupView(*created))
}

// AddUserToGroup adds a subject to a custom group.
func (h groupHandlers) AddUserToGroup(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(mux.Vars(r)["groupName"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed group name")
		return
	}

	var body userView
	if !decodeJSONBody(w, r, &body) {
		return
	}

	if err := h.srv.Groups.AddUserToGroup(r.Context(), name, subjectFromView(body)); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
