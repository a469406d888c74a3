// Command fabricctl runs and manages the authorization server.
//
// The server resolves effective permissions for users of registered client
// applications from roles, group grants, and per-user overrides.
//
// # Quick Start
//
//	# Run database migrations
//	fabricctl db migrate
//
//	# Start the server
//	fabricctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - AUDIT_DATABASE_URL: optional separate database for audit messages
//   - FABRIC_AUTHZ_CONFIG_PATH: directory holding fabric-authz.yml
//   - FABRIC_AUTHZ_LOG_LEVEL: log level (debug enables SQL logging)
//   - FABRIC_AUTHZ_AUDIT_ENABLED: set to false to disable audit logging
//   - PORT: server port (default: 8000)
package main
