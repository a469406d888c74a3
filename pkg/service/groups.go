package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/errs"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/model"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
)

// GroupService manages groups and answers group membership queries.
type GroupService struct {
	groups store.GroupsStore
}

// NewGroupService creates a GroupService.
func NewGroupService(groups store.GroupsStore) *GroupService {
	return &GroupService{groups: groups}
}

// GetGroup retrieves a group by name with its roles and users.
func (s *GroupService) GetGroup(ctx context.Context, name string) (*model.Group, error) {
	if name == "" {
		return nil, errs.Validation("group name is required")
	}
	return s.groups.FetchGroup(ctx, name)
}

// GetGroupsForUser returns the groups the subject is a direct member of.
// This is the authoritative membership view; resolution accepts the
// caller-supplied group list as given and does not consult it.
func (s *GroupService) GetGroupsForUser(ctx context.Context, subject identity.Subject) ([]model.Group, error) {
	if subject.SubjectID == "" {
		return nil, errs.Validation("subject id is required")
	}
	return s.groups.FetchGroupsForUser(ctx, subject)
}

// AddGroup creates a group. Source defaults to custom.
func (s *GroupService) AddGroup(ctx context.Context, group model.Group) (*model.Group, error) {
	if group.Name == "" {
		return nil, errs.Validation("group name is required")
	}
	if group.Source == "" {
		group.Source = model.GroupSourceCustom
	}
	if group.Source != model.GroupSourceCustom && group.Source != model.GroupSourceDirectory {
		return nil, errs.Validation("group source %s is not recognized", group.Source)
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	return s.groups.AddGroup(ctx, group)
}

// AddUserToGroup adds a subject to a group.
func (s *GroupService) AddUserToGroup(ctx context.Context, groupName string, subject identity.Subject) error {
	if subject.SubjectID == "" || subject.IdentityProvider == "" {
		return errs.Validation("subject id and identity provider are required")
	}
	return s.groups.AddUserToGroup(ctx, groupName, subject)
}
