// Package config provides configuration management for the authorization
// service.
//
// This package handles loading and validating server configuration from
// environment variables and configuration files.
//
// # Configuration Sources
//
// Configuration is loaded from:
//
//   - Environment variables (primary)
//   - Configuration files (optional)
//
// # Key Configuration Options
//
//   - FABRIC_AUTHZ_DEFAULT_IDENTITY_PROVIDER: Identity provider assumed when
//     a request omits one
//   - FABRIC_AUTHZ_TRUSTED_PROXIES: CIDR ranges allowed to set forwarded
//     headers
//   - DATABASE_URL: Database connection
//   - PORT: Server listen port
package config
