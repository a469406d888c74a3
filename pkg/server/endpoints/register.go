package endpoints

import (
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/middleware"
)

// RegisterAll registers all API endpoints on the server. Every route except
// the status routes requires a caller identity.
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)

	protected := srv.Router.NewRoute().Subrouter()
	protected.Use(middleware.NewIdentityExtractor(srv.Config).Middleware)

	RegisterUserEndpoints(srv, protected)
	RegisterPermissionsEndpoints(srv, protected)
	RegisterRolesEndpoints(srv, protected)
	RegisterGroupsEndpoints(srv, protected)
	RegisterClientsEndpoints(srv, protected)
	RegisterMembersEndpoints(srv, protected)
}
