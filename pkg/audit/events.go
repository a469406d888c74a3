package audit

import (
	"fmt"
	"strings"
)

// ResolveEvent records a permission resolution request.
type ResolveEvent struct {
	SubjectID        string
	IdentityProvider string
	ClientIP         string
	Scope            string
	IncludeShared    bool
	PermissionCount  int
	Success          bool
	ErrorMessage     string
}

func (e ResolveEvent) MessageID() string {
	return "resolve"
}

func (e ResolveEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s resolved %d permissions in %s", e.SubjectID, e.PermissionCount, e.Scope)
	}
	msg := fmt.Sprintf("%s failed to resolve permissions in %s", e.SubjectID, e.Scope)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ResolveEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e ResolveEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ResolveEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.SubjectID,
			"idp":  e.IdentityProvider,
		},
		SDIDSubject: {
			"scope":  e.Scope,
			"shared": fmt.Sprintf("%t", e.IncludeShared),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "resolve",
			"result":    result,
		},
	}
}

// GranularOverrideEvent records a change to a subject's additional or
// denied permission set.
type GranularOverrideEvent struct {
	ActorID          string
	ClientIP         string
	SubjectID        string
	IdentityProvider string
	Action           string // "additional" or "denied"
	PermissionIDs    []string
	Success          bool
	ErrorMessage     string
}

func (e GranularOverrideEvent) MessageID() string {
	return "granular"
}

func (e GranularOverrideEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s added %d %s permissions for %s", e.ActorID, len(e.PermissionIDs), e.Action, e.SubjectID)
	}
	msg := fmt.Sprintf("%s failed to add %s permissions for %s", e.ActorID, e.Action, e.SubjectID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e GranularOverrideEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e GranularOverrideEvent) Facility() int {
	return FacilityAuthPriv
}

func (e GranularOverrideEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.ActorID,
		},
		SDIDSubject: {
			"target":      e.SubjectID,
			"idp":         e.IdentityProvider,
			"permissions": strings.Join(e.PermissionIDs, ","),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Action,
			"result":    result,
		},
	}
}

// PermissionEvent records a permission lifecycle change.
type PermissionEvent struct {
	ActorID       string
	ClientIP      string
	PermissionKey string
	Operation     string // "create", "delete", "restore"
	Success       bool
	ErrorMessage  string
}

func (e PermissionEvent) MessageID() string {
	return "permission"
}

func (e PermissionEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %sd permission %s", e.ActorID, e.Operation, e.PermissionKey)
	}
	msg := fmt.Sprintf("%s tried to %s permission %s", e.ActorID, e.Operation, e.PermissionKey)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e PermissionEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e PermissionEvent) Facility() int {
	return FacilityAuthPriv
}

func (e PermissionEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.ActorID,
		},
		SDIDSubject: {
			"permission": e.PermissionKey,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result,
		},
	}
}

// RoleEvent records a role lifecycle or grant change.
type RoleEvent struct {
	ActorID      string
	ClientIP     string
	RoleID       string
	RoleName     string
	Operation    string // "create", "delete", "grant-group", "grant-user", "attach-permissions"
	Target       string
	Success      bool
	ErrorMessage string
}

func (e RoleEvent) MessageID() string {
	return "role"
}

func (e RoleEvent) Message() string {
	role := e.RoleName
	if role == "" {
		role = e.RoleID
	}
	var action string
	switch e.Operation {
	case "grant-group":
		action = fmt.Sprintf("granted role %s to group %s", role, e.Target)
	case "grant-user":
		action = fmt.Sprintf("granted role %s to user %s", role, e.Target)
	case "attach-permissions":
		action = fmt.Sprintf("attached permissions to role %s", role)
	default:
		action = fmt.Sprintf("%sd role %s", e.Operation, role)
	}
	if e.Success {
		return fmt.Sprintf("%s %s", e.ActorID, action)
	}
	msg := fmt.Sprintf("%s failed: %s", e.ActorID, action)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e RoleEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e RoleEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RoleEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.ActorID,
		},
		SDIDSubject: {
			"role": e.RoleID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result,
		},
	}
	if e.Target != "" {
		sd[SDIDSubject]["target"] = e.Target
	}
	return sd
}

// MemberSearchEvent records a member search request.
type MemberSearchEvent struct {
	ActorID  string
	ClientIP string
	ClientID string
	Filter   string
	Total    int
	Success  bool
}

func (e MemberSearchEvent) MessageID() string {
	return "members"
}

func (e MemberSearchEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s searched members of %s (%d matches)", e.ActorID, e.ClientID, e.Total)
	}
	return fmt.Sprintf("%s failed to search members of %s", e.ActorID, e.ClientID)
}

func (e MemberSearchEvent) Severity() Severity {
	return SeverityInfo
}

func (e MemberSearchEvent) Facility() int {
	return FacilityAuth
}

func (e MemberSearchEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.ActorID,
		},
		SDIDSubject: {
			"client": e.ClientID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "member-search",
		},
	}
	if e.Filter != "" {
		sd[SDIDSubject]["filter"] = e.Filter
	}
	return sd
}
