// Package audit provides audit logging for authorization operations.
//
// This package implements structured audit logging for security-relevant
// operations such as permission resolution, granular override changes, and
// permission lifecycle events.
//
// # Event Types
//
// The package defines event types for various operations:
//
//   - Permission resolution events
//   - Granular override events (additional/denied)
//   - Permission lifecycle events (create/delete/restore)
//   - Role lifecycle events
//
// Audit events are logged in RFC5424 syslog format suitable for security
// monitoring and compliance requirements.
package audit
