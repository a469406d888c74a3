package endpoints

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server"
)

// RegisterClientsEndpoints registers the client routes.
func RegisterClientsEndpoints(srv *server.Server, router *mux.Router) {
	h := clientHandlers{srv: srv}
	router.HandleFunc("/clients/{clientId}", h.GetClient).Methods("GET")
	router.HandleFunc("/clients", h.AddClient).Methods("POST")
}

type clientHandlers struct {
	srv *server.Server
}

// GetClient retrieves a client with its securable item tree.
func (h clientHandlers) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.srv.Stores.Clients.FetchClient(r.Context(), mux.Vars(r)["clientId"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toClientView(*client))
}

// AddClient registers a client. A top-level securable item named after the
// client is created alongside it in the app grain.
func (h clientHandlers) AddClient(w http.ResponseWriter, r *http.Request) {
	var body clientView
	if !decodeJSONBody(w, r, &body) {
		return
	}
	if body.ID == "" {
		respondWithError(w, http.StatusBadRequest, "client id is required")
		return
	}
	if body.Name == "" {
		body.Name = body.ID
	}

	client := model.Client{
		ID:   body.ID,
		Name: body.Name,
		TopLevelSecurableItem: &model.SecurableItem{
			ID:          uuid.NewString(),
			Grain:       model.GrainApp,
			Name:        body.ID,
			ClientOwner: body.ID,
		},
	}

	created, err := h.srv.Stores.Clients.AddClient(r.Context(), client)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	// Re-read so the response carries the materialized item tree.
	full, err := h.srv.Stores.Clients.FetchClient(r.Context(), created.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toClientView(*full))
}
