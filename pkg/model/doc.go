// Package model defines the domain models for Fabric authorization.
//
// This package contains the records exchanged between the stores, the
// permission resolver, and the API layer. The GORM column tags map the
// scalar attributes to the PostgreSQL schema; collection attributes
// (role permissions, group members, securable-item children) are
// materialized by the store implementations.
//
// # Core Models
//
//   - Permission: a grantable capability keyed by (grain, securable item, name)
//   - Role: a named bundle of permissions scoped to a grain/securable item
//   - Group: a set of users carrying role grants, sourced from a directory
//     service or managed locally
//   - User: a composite identity (subject id, identity provider)
//   - SecurableItem: a node in a client's resource tree
//   - Client: an application owning a top-level securable item
//   - GranularPermission: per-user additional/denied permission overrides
//
// # Database Schema
//
// The database uses PostgreSQL with the following key tables:
//
//   - permissions: permission definitions
//   - roles: role definitions with optional parent links
//   - role_permissions, role_groups, role_users: role grant edges
//   - groups: group definitions
//   - group_users: group membership
//   - securable_items: the per-client resource trees
//   - clients: registered applications
//   - granular_permissions: per-user overrides
package model
