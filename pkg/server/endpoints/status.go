package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server"
)

// Version is the API version reported by the root endpoint.
const Version = "1.0.0"

// RegisterStatusEndpoints registers the unauthenticated service routes.
func RegisterStatusEndpoints(srv *server.Server) {
	h := statusHandlers{srv: srv}
	srv.Router.HandleFunc("/", h.Info).Methods("GET")
	srv.Router.HandleFunc("/health", h.Health).Methods("GET")
}

type statusHandlers struct {
	srv *server.Server
}

// Info reports the service name and version.
func (h statusHandlers) Info(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"service": "fabric-authz",
		"version": Version,
	})
}

// Health verifies store connectivity.
func (h statusHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.srv.Stores.Health.CheckConnectivity(); err != nil {
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
