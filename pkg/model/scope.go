package model

import (
	"fmt"
	"strings"
)

// Top-level grains. App scopes application resources, dos scopes shared
// data-platform resources, shared scopes cross-client resources.
const (
	GrainApp    = "app"
	GrainDos    = "dos"
	GrainShared = "shared"
)

// Scope identifies the (grain, securable item) pair that roles, permissions,
// and securable items are keyed by. Grain is a coarse namespace such as "app";
// the securable item is a named resource within it. Scopes are constructed
// once at the boundary and passed through the core as values.
type Scope struct {
	grain         string
	securableItem string
}

// NewScope validates and constructs a Scope. Both components are required;
// neither may contain the ":" separator used in scope keys.
func NewScope(grain, securableItem string) (Scope, error) {
	grain = strings.TrimSpace(grain)
	securableItem = strings.TrimSpace(securableItem)
	if grain == "" {
		return Scope{}, fmt.Errorf("scope grain is required")
	}
	if securableItem == "" {
		return Scope{}, fmt.Errorf("scope securable item is required")
	}
	if strings.ContainsRune(grain, ':') || strings.ContainsRune(securableItem, ':') {
		return Scope{}, fmt.Errorf("scope components must not contain ':'")
	}
	return Scope{grain: grain, securableItem: securableItem}, nil
}

// Grain returns the grain component.
func (s Scope) Grain() string { return s.grain }

// SecurableItem returns the securable item component.
func (s Scope) SecurableItem() string { return s.securableItem }

// Key returns the scope key, e.g. "app:patientsafety".
func (s Scope) Key() string { return s.grain + ":" + s.securableItem }

// IsZero reports whether the scope is uninitialized.
func (s Scope) IsZero() bool { return s.grain == "" && s.securableItem == "" }

func (s Scope) String() string { return s.Key() }
