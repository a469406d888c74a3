package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte

	subjectID string
	groups    []string

	permissionIDs map[string]string
	roleIDs       map[string]string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:            tc,
		permissionIDs: make(map[string]string),
		roleIDs:       make(map[string]string),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the authorization server is running$`, s.theServerIsRunning)
	sc.Step(`^a permission "([^"]*)" exists for securable item "([^"]*)"$`, s.aPermissionExists)
	sc.Step(`^a role "([^"]*)" exists for securable item "([^"]*)"$`, s.aRoleExists)
	sc.Step(`^role "([^"]*)" has permission "([^"]*)"$`, s.roleHasPermission)
	sc.Step(`^role "([^"]*)" is granted to group "([^"]*)"$`, s.roleGrantedToGroup)
	sc.Step(`^permission "([^"]*)" is denied for user "([^"]*)"$`, s.permissionDeniedForUser)
	sc.Step(`^I am user "([^"]*)" in groups "([^"]*)"$`, s.iAmUserInGroups)
	sc.Step(`^I request my permissions for securable item "([^"]*)"$`, s.iRequestMyPermissions)
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the permissions should include "([^"]*)"$`, s.thePermissionsShouldInclude)
	sc.Step(`^the permissions should be empty$`, s.thePermissionsShouldBeEmpty)
}

func (s *StepsContext) theServerIsRunning() error {
	resp, err := s.tc.HTTPClient.Get(s.tc.ServerURL + "/health")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server health returned %d", resp.StatusCode)
	}
	return nil
}

func (s *StepsContext) adminToken() (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"idp": "windows",
	}).SignedString([]byte("integration-test"))
}

func (s *StepsContext) userToken() (string, error) {
	groups := make([]interface{}, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    s.subjectID,
		"idp":    "windows",
		"groups": groups,
	}).SignedString([]byte("integration-test"))
}

func (s *StepsContext) doJSON(method, path, token string, payload interface{}) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.tc.ServerURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, raw, nil
}

// aPermissionExists creates the permission, or looks it up if an earlier
// scenario already created it.
func (s *StepsContext) aPermissionExists(name, securableItem string) error {
	token, err := s.adminToken()
	if err != nil {
		return err
	}

	resp, raw, err := s.doJSON("POST", "/permissions", token, map[string]string{
		"grain":         "app",
		"securableItem": securableItem,
		"name":          name,
	})
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			return err
		}
		s.permissionIDs[name] = created.ID
		return nil
	case http.StatusConflict:
		return s.lookupPermissionID(name, securableItem, token)
	default:
		return fmt.Errorf("creating permission returned %d: %s", resp.StatusCode, raw)
	}
}

func (s *StepsContext) lookupPermissionID(name, securableItem, token string) error {
	resp, raw, err := s.doJSON("GET", "/permissions/app/"+securableItem+"/"+name, token, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listing permissions returned %d", resp.StatusCode)
	}

	var listed []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &listed); err != nil {
		return err
	}
	for _, p := range listed {
		if p.Name == name {
			s.permissionIDs[name] = p.ID
			return nil
		}
	}
	return fmt.Errorf("permission %s not found after conflict", name)
}

func (s *StepsContext) aRoleExists(name, securableItem string) error {
	token, err := s.adminToken()
	if err != nil {
		return err
	}

	resp, raw, err := s.doJSON("POST", "/roles", token, map[string]string{
		"name":          name,
		"grain":         "app",
		"securableItem": securableItem,
	})
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			return err
		}
		s.roleIDs[name] = created.ID
		return nil
	case http.StatusConflict:
		return s.lookupRoleID(name, securableItem, token)
	default:
		return fmt.Errorf("creating role returned %d: %s", resp.StatusCode, raw)
	}
}

func (s *StepsContext) lookupRoleID(name, securableItem, token string) error {
	resp, raw, err := s.doJSON("GET", "/roles/app/"+securableItem, token, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listing roles returned %d", resp.StatusCode)
	}

	var listed []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &listed); err != nil {
		return err
	}
	for _, r := range listed {
		if r.Name == name {
			s.roleIDs[name] = r.ID
			return nil
		}
	}
	return fmt.Errorf("role %s not found after conflict", name)
}

func (s *StepsContext) roleHasPermission(roleName, permissionName string) error {
	token, err := s.adminToken()
	if err != nil {
		return err
	}

	roleID, ok := s.roleIDs[roleName]
	if !ok {
		return fmt.Errorf("role %s has not been created", roleName)
	}
	permissionID, ok := s.permissionIDs[permissionName]
	if !ok {
		return fmt.Errorf("permission %s has not been created", permissionName)
	}

	resp, raw, err := s.doJSON("POST", "/roles/"+roleID+"/permissions", token,
		[]map[string]string{{"id": permissionID}})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("attaching permission returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}

func (s *StepsContext) roleGrantedToGroup(roleName, groupName string) error {
	token, err := s.adminToken()
	if err != nil {
		return err
	}

	roleID, ok := s.roleIDs[roleName]
	if !ok {
		return fmt.Errorf("role %s has not been created", roleName)
	}

	resp, raw, err := s.doJSON("POST", "/roles/"+roleID+"/groups", token,
		map[string]string{"groupName": groupName})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("granting role returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}

func (s *StepsContext) permissionDeniedForUser(permissionName, subjectID string) error {
	token, err := s.adminToken()
	if err != nil {
		return err
	}

	permissionID, ok := s.permissionIDs[permissionName]
	if !ok {
		return fmt.Errorf("permission %s has not been created", permissionName)
	}

	resp, raw, err := s.doJSON("POST", "/user/windows/"+subjectID+"/permissions/denied", token,
		[]map[string]string{{
			"id":            permissionID,
			"grain":         "app",
			"securableItem": "patientsafety",
			"name":          permissionName,
		}})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("denying permission returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}

func (s *StepsContext) iAmUserInGroups(subjectID, groupList string) error {
	s.subjectID = subjectID
	s.groups = nil
	for _, g := range strings.Split(groupList, ",") {
		s.groups = append(s.groups, strings.TrimSpace(g))
	}
	return nil
}

func (s *StepsContext) iRequestMyPermissions(securableItem string) error {
	token, err := s.userToken()
	if err != nil {
		return err
	}

	resp, raw, err := s.doJSON("GET", "/user/permissions?securableItem="+securableItem, token, nil)
	if err != nil {
		return err
	}
	s.response = resp
	s.responseBody = raw
	return nil
}

func (s *StepsContext) theResponseStatusShouldBe(status int) error {
	if s.response == nil {
		return fmt.Errorf("no response recorded")
	}
	if s.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) resolvedPermissions() ([]string, error) {
	var body struct {
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return nil, fmt.Errorf("malformed response body: %w", err)
	}
	return body.Permissions, nil
}

func (s *StepsContext) thePermissionsShouldInclude(rendered string) error {
	permissions, err := s.resolvedPermissions()
	if err != nil {
		return err
	}
	for _, p := range permissions {
		if p == rendered {
			return nil
		}
	}
	return fmt.Errorf("permission %s not in %v", rendered, permissions)
}

func (s *StepsContext) thePermissionsShouldBeEmpty() error {
	permissions, err := s.resolvedPermissions()
	if err != nil {
		return err
	}
	if len(permissions) != 0 {
		return fmt.Errorf("expected no permissions, got %v", permissions)
	}
	return nil
}
