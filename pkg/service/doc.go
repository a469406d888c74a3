// Package service implements the application services on top of the stores
// and the resolver: permission lifecycle and granular overrides, role and
// group management, and the member search used by the administrative API.
package service
