package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
)

// HTTPIdentityService queries an external identity service over HTTP for
// user metadata.
type HTTPIdentityService struct {
	baseURL string
	client  *http.Client
}

// NewHTTPIdentityService creates a client for the identity service at
// baseURL.
func NewHTTPIdentityService(baseURL string) *HTTPIdentityService {
	return &HTTPIdentityService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type userSearchRequest struct {
	ClientID   string   `json:"client_id"`
	SubjectIDs []string `json:"subject_ids"`
}

type userSearchResponse struct {
	Users []struct {
		SubjectID            string     `json:"subject_id"`
		FirstName            string     `json:"first_name"`
		LastName             string     `json:"last_name"`
		LastLoginDateTimeUtc *time.Time `json:"last_login_date_time_utc"`
	} `json:"users"`
}

// SearchUsers looks up metadata for the given subject ids.
func (s *HTTPIdentityService) SearchUsers(ctx context.Context, clientID string, subjectIDs []string) ([]UserDetail, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(userSearchRequest{ClientID: clientID, SubjectIDs: subjectIDs})
	if err != nil {
		return nil, errs.Infrastructure(err, "encoding identity search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/users", bytes.NewReader(payload))
	if err != nil {
		return nil, errs.Infrastructure(err, "building identity search request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errs.Infrastructure(err, "querying identity service")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Infrastructure(
			fmt.Errorf("identity service returned %d", resp.StatusCode),
			"querying identity service")
	}

	var decoded userSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errs.Infrastructure(err, "decoding identity search response")
	}

	out := make([]UserDetail, 0, len(decoded.Users))
	for _, u := range decoded.Users {
		out = append(out, UserDetail{
			SubjectID:            u.SubjectID,
			FirstName:            u.FirstName,
			LastName:             u.LastName,
			LastLoginDateTimeUtc: u.LastLoginDateTimeUtc,
		})
	}
	return out, nil
}
