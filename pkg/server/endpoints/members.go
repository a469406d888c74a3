package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/audit"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/service"
)

// RegisterMembersEndpoints registers the member search route.
func RegisterMembersEndpoints(srv *server.Server, router *mux.Router) {
	h := memberHandlers{srv: srv}
	router.HandleFunc("/members", h.Search).Methods("GET")
}

type memberHandlers struct {
	srv *server.Server
}

// Search lists the members of a client's roles, paged and optionally
// filtered and sorted.
func (h memberHandlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := service.MemberSearchRequest{
		ClientID:       query.Get("client_id"),
		Filter:         query.Get("filter"),
		SortKey:        query.Get("sort_key"),
		SortDescending: query.Get("sort_dir") == "desc",
	}

	var err error
	if req.PageNumber, err = queryInt(query.Get("page_number")); err != nil {
		respondWithError(w, http.StatusBadRequest, "page_number must be a number")
		return
	}
	if req.PageSize, err = queryInt(query.Get("page_size")); err != nil {
		respondWithError(w, http.StatusBadRequest, "page_size must be a number")
		return
	}
	if max := h.srv.Config.MemberSearchPageSizeMax; req.PageSize > max {
		req.PageSize = max
	}

	actorID, clientIP := actorInfo(r)
	response, err := h.srv.Members.Search(r.Context(), req)

	event := audit.MemberSearchEvent{
		ActorID:  actorID,
		ClientIP: clientIP,
		ClientID: req.ClientID,
		Filter:   req.Filter,
		Success:  err == nil,
	}
	if response != nil {
		event.Total = response.TotalCount
	}
	audit.Log(event)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
