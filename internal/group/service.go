package group

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrWeightTypeNotFound = errors.New("weight type not found")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrUnknownWeightType  = errors.New("weight references an unknown weight type")
)

// ShareSyncer re-runs share redistribution for split-all expenses after the
// member set of a group changes. Implemented by the expense service and
// wired in at startup.
type ShareSyncer interface {
	SyncSplitAll(ctx context.Context, groupID int64) error
}

// Service handles group business logic.
type Service struct {
	repo   *Repository
	syncer ShareSyncer
}

// NewService creates a new group service. The syncer may be nil in tests.
func NewService(repo *Repository, syncer ShareSyncer) *Service {
	return &Service{repo: repo, syncer: syncer}
}

// Create creates a new group.
func (s *Service) Create(ctx context.Context, req *CreateGroupRequest) (*Group, error) {
	return s.repo.Create(ctx, req)
}

// GetByID retrieves a group by its ID.
func (s *Service) GetByID(ctx context.Context, id int64) (*Group, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// List retrieves all groups.
func (s *Service) List(ctx context.Context) ([]*Group, error) {
	return s.repo.List(ctx)
}

// Update applies a partial update to a group.
func (s *Service) Update(ctx context.Context, id int64, req *UpdateGroupRequest) (*Group, error) {
	g, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// Delete removes a group.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// CreateWeightType adds a weighting scheme to a group.
func (s *Service) CreateWeightType(ctx context.Context, groupID int64, req *CreateWeightTypeRequest) (*WeightType, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.CreateWeightType(ctx, groupID, req)
}

// ListWeightTypes lists the weighting schemes of a group.
func (s *Service) ListWeightTypes(ctx context.Context, groupID int64) ([]*WeightType, error) {
	return s.repo.ListWeightTypes(ctx, groupID)
}

// DeleteWeightType removes a weighting scheme.
func (s *Service) DeleteWeightType(ctx context.Context, groupID, weightTypeID int64) error {
	return s.repo.DeleteWeightType(ctx, groupID, weightTypeID)
}

// AddMember adds a member to a group and re-syncs split-all expense shares
// so the newcomer starts absorbing its part of those splits.
func (s *Service) AddMember(ctx context.Context, groupID int64, req *CreateMemberRequest) (*Member, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.validateWeights(ctx, groupID, req.Weights); err != nil {
		return nil, err
	}

	m, err := s.repo.CreateMember(ctx, groupID, req)
	if err != nil {
		return nil, err
	}
	if err := s.syncShares(ctx, groupID); err != nil {
		return nil, err
	}
	return m, nil
}

// GetMember retrieves one member of a group.
func (s *Service) GetMember(ctx context.Context, groupID, memberID int64) (*Member, error) {
	m, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.GroupID != groupID {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// ListMembers lists all members of a group.
func (s *Service) ListMembers(ctx context.Context, groupID int64) ([]*Member, error) {
	return s.repo.ListMembers(ctx, groupID)
}

// UpdateMember applies a partial member update. Weight or activity changes
// re-sync split-all expense shares.
func (s *Service) UpdateMember(ctx context.Context, groupID, memberID int64, req *UpdateMemberRequest) (*Member, error) {
	if err := s.validateWeights(ctx, groupID, req.Weights); err != nil {
		return nil, err
	}

	m, err := s.repo.UpdateMember(ctx, groupID, memberID, req)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	if err := s.syncShares(ctx, groupID); err != nil {
		return nil, err
	}
	return m, nil
}

// RemoveMember removes a member and re-syncs split-all expense shares.
func (s *Service) RemoveMember(ctx context.Context, groupID, memberID int64) error {
	if err := s.repo.DeleteMember(ctx, groupID, memberID); err != nil {
		return err
	}
	return s.syncShares(ctx, groupID)
}

// CreateResource adds a metered resource to a group.
func (s *Service) CreateResource(ctx context.Context, groupID int64, req *CreateResourceRequest) (*Resource, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.CreateResource(ctx, groupID, req)
}

// GetResource retrieves one resource of a group.
func (s *Service) GetResource(ctx context.Context, groupID, resourceID int64) (*Resource, error) {
	res, err := s.repo.GetResourceByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if res == nil || res.GroupID != groupID {
		return nil, ErrResourceNotFound
	}
	return res, nil
}

// ListResources lists all resources of a group.
func (s *Service) ListResources(ctx context.Context, groupID int64) ([]*Resource, error) {
	return s.repo.ListResources(ctx, groupID)
}

// UpdateResource applies a partial resource update.
func (s *Service) UpdateResource(ctx context.Context, groupID, resourceID int64, req *UpdateResourceRequest) (*Resource, error) {
	res, err := s.repo.UpdateResource(ctx, groupID, resourceID, req)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrResourceNotFound
	}
	return res, nil
}

// DeleteResource removes a resource.
func (s *Service) DeleteResource(ctx context.Context, groupID, resourceID int64) error {
	return s.repo.DeleteResource(ctx, groupID, resourceID)
}

// validateWeights checks that every weight references an existing weight
// type of the group.
func (s *Service) validateWeights(ctx context.Context, groupID int64, weights map[string]decimal.Decimal) error {
	if len(weights) == 0 {
		return nil
	}
	types, err := s.repo.ListWeightTypes(ctx, groupID)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(types))
	for _, wt := range types {
		known[wt.Name] = true
	}
	for name := range weights {
		if !known[name] {
			return ErrUnknownWeightType
		}
	}
	return nil
}

func (s *Service) syncShares(ctx context.Context, groupID int64) error {
	if s.syncer == nil {
		return nil
	}
	return s.syncer.SyncSplitAll(ctx, groupID)
}
