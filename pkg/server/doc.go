// Package server provides the HTTP server for the authorization API.
//
// This package implements the core HTTP server that handles all REST API
// requests. It uses gorilla/mux for routing and provides middleware for
// identity extraction and request handling.
//
// # Server Setup
//
//	srv := server.NewServer(stores, cfg, db, identityService, "0.0.0.0", "8080")
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// The Server struct holds:
//
//   - Stores: the persistence contracts for roles, groups, permissions,
//     securable items, clients, and granular overrides
//   - Router: HTTP request router
//   - DB: Database connection
//   - The resolver and domain services built over the stores
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//	endpoints.RegisterAll(srv)
//
// This registers the authorization API including:
//
//   - /user/permissions - Effective permission resolution
//   - /user/{identityProvider}/{subjectId}/permissions/... - Granular overrides
//   - /permissions/... - Permission definitions
//   - /roles/... - Role management
//   - /groups/... - Group management
//   - /clients/... - Client registration
//   - /members - Member search
package server
