package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// Member entity types.
const (
	EntityTypeUser           = "user"
	EntityTypeDirectoryGroup = "group"
	EntityTypeCustomGroup    = "custom-group"
)

// Sort keys accepted by member search.
const (
	SortKeyName      = "name"
	SortKeyRole      = "role"
	SortKeySubjectID = "subjectid"
	SortKeyLastLogin = "lastlogin"
)

const defaultPageSize = 25

// MemberSearchRequest describes a paginated search over the union of groups
// and users holding roles under a client. Filter, sort, and page apply in
// that order; page numbers are 1-indexed.
type MemberSearchRequest struct {
	ClientID       string
	Filter         string
	SortKey        string
	SortDescending bool
	PageNumber     int
	PageSize       int
}

// MemberSearchResult is one row of a member search: a group or a user with
// its display name and role names, plus last-login metadata for users.
type MemberSearchResult struct {
	SubjectID            string     `json:"subject_id,omitempty"`
	IdentityProvider     string     `json:"identity_provider,omitempty"`
	GroupName            string     `json:"group_name,omitempty"`
	EntityType           string     `json:"entity_type"`
	Roles                []string   `json:"roles"`
	FirstName            string     `json:"first_name,omitempty"`
	LastName             string     `json:"last_name,omitempty"`
	LastLoginDateTimeUtc *time.Time `json:"last_login_date_time_utc,omitempty"`
}

// Name returns the display name used for filtering and sorting.
func (r MemberSearchResult) Name() string {
	if r.GroupName != "" {
		return r.GroupName
	}
	return r.SubjectID
}

// MemberSearchResponse is a page of results with the pre-paging total.
type MemberSearchResponse struct {
	TotalCount int                  `json:"total_count"`
	Results    []MemberSearchResult `json:"results"`
}

// MemberSearchService implements the searchable member listing across
// groups and users scoped to a client. It consumes the role and group
// directories plus an external identity service for last-login metadata.
type MemberSearchService struct {
	clients  store.ClientsStore
	roles    store.RolesStore
	groups   store.GroupsStore
	identity IdentityServiceProvider
}

// NewMemberSearchService creates a MemberSearchService.
func NewMemberSearchService(clients store.ClientsStore, roles store.RolesStore, groups store.GroupsStore, identity IdentityServiceProvider) *MemberSearchService {
	if identity == nil {
		identity = NoopIdentityService{}
	}
	return &MemberSearchService{clients: clients, roles: roles, groups: groups, identity: identity}
}

// Search runs the member listing: collect the client's scopes, gather the
// roles in them, expand to groups and directly assigned users, then filter,
// sort, and page.
func (s *MemberSearchService) Search(ctx context.Context, req MemberSearchRequest) (*MemberSearchResponse, error) {
	if req.ClientID == "" {
		return nil, errs.Validation("client id is required")
	}
	if req.PageNumber < 1 {
		req.PageNumber = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}

	client, err := s.clients.FetchClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	roles, err := s.rolesForClient(ctx, client)
	if err != nil {
		return nil, err
	}

	results, err := s.collectMembers(ctx, req.ClientID, roles)
	if err != nil {
		return nil, err
	}

	results = filterMembers(results, req.Filter)
	sortMembers(results, req.SortKey, req.SortDescending)

	total := len(results)
	return &MemberSearchResponse{
		TotalCount: total,
		Results:    pageSlice(results, req.PageNumber, req.PageSize),
	}, nil
}

// rolesForClient gathers the active roles scoped to any securable item in
// the client's tree, including the app-grain scope of the top-level item.
func (s *MemberSearchService) rolesForClient(ctx context.Context, client *model.Client) ([]model.Role, error) {
	if client.TopLevelSecurableItem == nil {
		return nil, nil
	}

	scopes := map[string]model.Scope{}
	addScope := func(grain, item string) {
		scope, err := model.NewScope(grain, item)
		if err != nil {
			return
		}
		scopes[scope.Key()] = scope
	}

	addScope(model.GrainApp, client.TopLevelSecurableItem.Name)
	var walk func(item model.SecurableItem)
	walk = func(item model.SecurableItem) {
		if item.Grain != "" {
			addScope(item.Grain, item.Name)
		}
		for _, child := range item.SecurableItems {
			walk(child)
		}
	}
	walk(*client.TopLevelSecurableItem)

	var out []model.Role
	seen := map[string]bool{}
	for _, scope := range scopes {
		roles, err := s.roles.FetchRolesForSecurableItem(ctx, scope)
		if err != nil {
			return nil, err
		}
		for _, r := range roles {
			if !seen[r.ID] {
				seen[r.ID] = true
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s *MemberSearchService) collectMembers(ctx context.Context, clientID string, roles []model.Role) ([]MemberSearchResult, error) {
	roleIDs := make([]string, 0, len(roles))
	for _, r := range roles {
		roleIDs = append(roleIDs, r.ID)
	}

	groups, err := s.groups.FetchGroupsForRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	var results []MemberSearchResult
	for _, g := range groups {
		entityType := EntityTypeDirectoryGroup
		if g.Source == model.GroupSourceCustom {
			entityType = EntityTypeCustomGroup
		}
		results = append(results, MemberSearchResult{
			GroupName:  g.Name,
			EntityType: entityType,
			Roles:      roleNames(g.Roles),
		})
	}

	// users assigned roles directly, merged across roles
	userRoles := map[string]*MemberSearchResult{}
	var order []string
	for _, r := range roles {
		for _, u := range r.Users {
			key := u.SubjectID + ":" + strings.ToLower(u.IdentityProvider)
			entry, ok := userRoles[key]
			if !ok {
				entry = &MemberSearchResult{
					SubjectID:        u.SubjectID,
					IdentityProvider: u.IdentityProvider,
					EntityType:       EntityTypeUser,
				}
				userRoles[key] = entry
				order = append(order, key)
			}
			entry.Roles = append(entry.Roles, r.Name)
		}
	}

	subjectIDs := make([]string, 0, len(order))
	for _, key := range order {
		subjectIDs = append(subjectIDs, userRoles[key].SubjectID)
	}
	details, err := s.identity.SearchUsers(ctx, clientID, subjectIDs)
	if err != nil {
		// metadata is best-effort; the listing itself still stands
		log.Printf("identity service lookup failed for client %s: %v", clientID, err)
	}
	detailsBySubject := map[string]UserDetail{}
	for _, d := range details {
		detailsBySubject[d.SubjectID] = d
	}

	for _, key := range order {
		entry := userRoles[key]
		if d, ok := detailsBySubject[entry.SubjectID]; ok {
			entry.FirstName = d.FirstName
			entry.LastName = d.LastName
			entry.LastLoginDateTimeUtc = d.LastLoginDateTimeUtc
		}
		sort.Strings(entry.Roles)
		results = append(results, *entry)
	}
	return results, nil
}

func roleNames(roles []model.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Name)
	}
	sort.Strings(out)
	return out
}

// filterMembers keeps rows whose name or any role name contains the filter,
// case-insensitively.
func filterMembers(results []MemberSearchResult, filter string) []MemberSearchResult {
	if filter == "" {
		return results
	}
	needle := strings.ToLower(filter)

	out := results[:0]
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Name()), needle) {
			out = append(out, r)
			continue
		}
		for _, role := range r.Roles {
			if strings.Contains(strings.ToLower(role), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// sortMembers orders results stably by the requested key.
func sortMembers(results []MemberSearchResult, key string, descending bool) {
	less := func(a, b MemberSearchResult) bool {
		switch key {
		case SortKeyRole:
			return firstRole(a) < firstRole(b)
		case SortKeySubjectID:
			return a.SubjectID < b.SubjectID
		case SortKeyLastLogin:
			return lastLogin(a).Before(lastLogin(b))
		default:
			return strings.ToLower(a.Name()) < strings.ToLower(b.Name())
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if descending {
			return less(results[j], results[i])
		}
		return less(results[i], results[j])
	})
}

func firstRole(r MemberSearchResult) string {
	if len(r.Roles) == 0 {
		return ""
	}
	return r.Roles[0]
}

func lastLogin(r MemberSearchResult) time.Time {
	if r.LastLoginDateTimeUtc == nil {
		return time.Time{}
	}
	return *r.LastLoginDateTimeUtc
}

// pageSlice returns the 1-indexed page of the given size.
func pageSlice(results []MemberSearchResult, pageNumber, pageSize int) []MemberSearchResult {
	start := (pageNumber - 1) * pageSize
	if start >= len(results) {
		return []MemberSearchResult{}
	}
	end := start + pageSize
	if end > len(results) {
		end = len(results)
	}
	return results[start:end]
}
