package audit

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	event := ResolveEvent{
		SubjectID:        "bob.smith",
		IdentityProvider: "windows",
		ClientIP:         "192.168.1.1",
		Scope:            "app:patientsafety",
		PermissionCount:  3,
		Success:          true,
	}

	logger.Log(event)

	output := buf.String()

	if !strings.Contains(output, "fabric-authz") {
		t.Error("Expected app name 'fabric-authz' in output")
	}
	if !strings.Contains(output, "resolve") {
		t.Error("Expected message ID 'resolve' in output")
	}
	if !strings.Contains(output, "bob.smith") {
		t.Error("Expected subject ID in output")
	}
	if !strings.Contains(output, "192.168.1.1") {
		t.Error("Expected client IP in output")
	}
	if !strings.Contains(output, "resolved 3 permissions") {
		t.Error("Expected success message in output")
	}
}

func TestResolveEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     ResolveEvent
		wantMsg   string
		wantSev   Severity
		wantFac   int
		wantMsgID string
	}{
		{
			name: "successful resolution",
			event: ResolveEvent{
				SubjectID:        "bob.smith",
				IdentityProvider: "windows",
				ClientIP:         "10.0.0.1",
				Scope:            "app:patientsafety",
				PermissionCount:  5,
				Success:          true,
			},
			wantMsg:   "resolved 5 permissions",
			wantSev:   SeverityInfo,
			wantFac:   FacilityAuthPriv,
			wantMsgID: "resolve",
		},
		{
			name: "failed resolution",
			event: ResolveEvent{
				SubjectID:    "bob.smith",
				ClientIP:     "10.0.0.1",
				Scope:        "app:patientsafety",
				Success:      false,
				ErrorMessage: "store unavailable",
			},
			wantMsg:   "failed to resolve",
			wantSev:   SeverityWarning,
			wantFac:   FacilityAuthPriv,
			wantMsgID: "resolve",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.Facility() != tt.wantFac {
				t.Errorf("Facility() = %v, want %v", tt.event.Facility(), tt.wantFac)
			}
			if tt.event.MessageID() != tt.wantMsgID {
				t.Errorf("MessageID() = %v, want %v", tt.event.MessageID(), tt.wantMsgID)
			}
		})
	}
}

func TestGranularOverrideEvent(t *testing.T) {
	event := GranularOverrideEvent{
		ActorID:          "admin",
		ClientIP:         "10.0.0.1",
		SubjectID:        "bob.smith",
		IdentityProvider: "windows",
		Action:           "denied",
		PermissionIDs:    []string{"p-1", "p-2"},
		Success:          true,
	}

	if event.MessageID() != "granular" {
		t.Errorf("MessageID() = %v, want 'granular'", event.MessageID())
	}
	if !strings.Contains(event.Message(), "added 2 denied permissions") {
		t.Errorf("Message() = %q, want to contain 'added 2 denied permissions'", event.Message())
	}
	if event.Severity() != SeverityNotice {
		t.Errorf("Severity() = %v, want SeverityNotice", event.Severity())
	}

	sd := event.StructuredData()
	if sd[SDIDSubject]["permissions"] != "p-1,p-2" {
		t.Errorf("StructuredData subject.permissions = %v, want 'p-1,p-2'", sd[SDIDSubject]["permissions"])
	}
	if sd[SDIDAction]["operation"] != "denied" {
		t.Errorf("StructuredData action.operation = %v, want 'denied'", sd[SDIDAction]["operation"])
	}
}

func TestPermissionEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   PermissionEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name: "create",
			event: PermissionEvent{
				ActorID:       "admin",
				ClientIP:      "10.0.0.1",
				PermissionKey: "app:patientsafety:manageusers",
				Operation:     "create",
				Success:       true,
			},
			wantMsg: "created permission",
			wantSev: SeverityInfo,
		},
		{
			name: "failed delete",
			event: PermissionEvent{
				ActorID:       "admin",
				ClientIP:      "10.0.0.1",
				PermissionKey: "app:patientsafety:manageusers",
				Operation:     "delete",
				Success:       false,
				ErrorMessage:  "not found",
			},
			wantMsg: "tried to delete",
			wantSev: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.MessageID() != "permission" {
				t.Errorf("MessageID() = %v, want 'permission'", tt.event.MessageID())
			}
		})
	}
}

func TestRoleEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   RoleEvent
		wantMsg string
	}{
		{
			name: "grant to group",
			event: RoleEvent{
				ActorID:   "admin",
				RoleID:    "r-1",
				RoleName:  "editor",
				Operation: "grant-group",
				Target:    "PS Admins",
				Success:   true,
			},
			wantMsg: "granted role editor to group PS Admins",
		},
		{
			name: "grant to user",
			event: RoleEvent{
				ActorID:   "admin",
				RoleID:    "r-1",
				RoleName:  "editor",
				Operation: "grant-user",
				Target:    "bob.smith",
				Success:   true,
			},
			wantMsg: "granted role editor to user bob.smith",
		},
		{
			name: "create",
			event: RoleEvent{
				ActorID:   "admin",
				RoleID:    "r-1",
				RoleName:  "editor",
				Operation: "create",
				Success:   true,
			},
			wantMsg: "created role editor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.MessageID() != "role" {
				t.Errorf("MessageID() = %v, want 'role'", tt.event.MessageID())
			}
		})
	}
}

func TestMemberSearchEvent(t *testing.T) {
	event := MemberSearchEvent{
		ActorID:  "admin",
		ClientIP: "10.0.0.1",
		ClientID: "patientsafety",
		Filter:   "viewer",
		Total:    4,
		Success:  true,
	}

	if event.MessageID() != "members" {
		t.Errorf("MessageID() = %v, want 'members'", event.MessageID())
	}
	if !strings.Contains(event.Message(), "searched members of patientsafety") {
		t.Errorf("Message() = %q, want to contain 'searched members of patientsafety'", event.Message())
	}
	if event.Facility() != FacilityAuth {
		t.Errorf("Facility() = %v, want FacilityAuth", event.Facility())
	}
}

func TestStructuredData(t *testing.T) {
	event := ResolveEvent{
		SubjectID:        "bob.smith",
		IdentityProvider: "windows",
		ClientIP:         "10.0.0.1",
		Scope:            "app:patientsafety",
		IncludeShared:    true,
		PermissionCount:  2,
		Success:          true,
	}

	sd := event.StructuredData()

	if sd[SDIDAuth]["user"] != "bob.smith" {
		t.Errorf("StructuredData auth.user = %v, want 'bob.smith'", sd[SDIDAuth]["user"])
	}
	if sd[SDIDSubject]["scope"] != "app:patientsafety" {
		t.Errorf("StructuredData subject.scope = %v, want 'app:patientsafety'", sd[SDIDSubject]["scope"])
	}
	if sd[SDIDSubject]["shared"] != "true" {
		t.Errorf("StructuredData subject.shared = %v, want 'true'", sd[SDIDSubject]["shared"])
	}
	if sd[SDIDClient]["ip"] != "10.0.0.1" {
		t.Errorf("StructuredData client.ip = %v, want '10.0.0.1'", sd[SDIDClient]["ip"])
	}
	if sd[SDIDAction]["result"] != "success" {
		t.Errorf("StructuredData action.result = %v, want 'success'", sd[SDIDAction]["result"])
	}
}

func TestAuditToggle(t *testing.T) {
	originalEnabled := auditEnabled
	defer func() {
		auditEnabled = originalEnabled
	}()

	SetEnabled(false)
	if IsEnabled() {
		t.Error("Expected audit to be disabled")
	}

	SetEnabled(true)
	if !IsEnabled() {
		t.Error("Expected audit to be enabled")
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", `"simple"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{`with]bracket`, `"with\]bracket"`},
		{`all"special\chars]`, `"all\"special\\chars\]"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeSDValue(tt.input)
			if got != tt.want {
				t.Errorf("escapeSDValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
