package consumption

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/phclaus/fairsplit/internal/balance"
	"github.com/phclaus/fairsplit/internal/group"
)

// Common errors
var (
	ErrConsumptionNotFound = errors.New("consumption not found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrResourceNotFound    = errors.New("resource not found in group")
	ErrMissingUnitPrice    = errors.New("resource has no unit price for unit amounts")
	ErrUnknownMember       = errors.New("share references a member outside the group")
	ErrNoParticipants      = errors.New("at least one participant is required")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
)

// Service handles consumption business logic. The cost of a unit-amount
// consumption is resolved through the resource's unit price before shares
// are redistributed.
type Service struct {
	repo      *Repository
	groupRepo *group.Repository
}

// NewService creates a new consumption service.
func NewService(repo *Repository, groupRepo *group.Repository) *Service {
	return &Service{repo: repo, groupRepo: groupRepo}
}

// CreateConsumption records a consumption and computes its cost shares.
func (s *Service) CreateConsumption(ctx context.Context, groupID int64, req *CreateConsumptionRequest) (*ConsumptionResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	res, err := s.groupResource(ctx, groupID, req.ResourceID)
	if err != nil {
		return nil, err
	}

	c := &Consumption{
		GroupID:      groupID,
		ResourceID:   req.ResourceID,
		Description:  req.Description,
		Amount:       req.Amount,
		IsUnitAmount: req.IsUnitAmount,
		Date:         req.Date,
	}
	totalCost, err := resolveCost(c, res)
	if err != nil {
		return nil, err
	}

	redis, err := s.redistribute(ctx, c, totalCost, req.Shares)
	if err != nil {
		return nil, err
	}
	c.Shares = fromEngine(redis.Shares)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return &ConsumptionResponse{Consumption: c, TotalCost: totalCost, Difference: redis.Difference}, nil
}

// GetByID retrieves a consumption with its shares.
func (s *Service) GetByID(ctx context.Context, id int64) (*Consumption, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrConsumptionNotFound
	}
	return c, nil
}

// ListByGroup lists a group's consumptions.
func (s *Service) ListByGroup(ctx context.Context, groupID int64) ([]*Consumption, error) {
	return s.repo.ListByGroup(ctx, groupID)
}

// UpdateConsumption revises a consumption and recomputes its shares.
func (s *Service) UpdateConsumption(ctx context.Context, id int64, req *UpdateConsumptionRequest) (*ConsumptionResponse, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Amount != nil {
		c.Amount = *req.Amount
	}
	if req.IsUnitAmount != nil {
		c.IsUnitAmount = *req.IsUnitAmount
	}
	if req.Date != nil {
		c.Date = *req.Date
	}
	if !c.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}

	res, err := s.groupResource(ctx, c.GroupID, c.ResourceID)
	if err != nil {
		return nil, err
	}
	totalCost, err := resolveCost(c, res)
	if err != nil {
		return nil, err
	}

	shares := req.Shares
	if shares == nil {
		shares = inputsFromStored(c.Shares)
	}
	redis, err := s.redistribute(ctx, c, totalCost, shares)
	if err != nil {
		return nil, err
	}
	c.Shares = fromEngine(redis.Shares)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return &ConsumptionResponse{Consumption: c, TotalCost: totalCost, Difference: redis.Difference}, nil
}

// DeleteConsumption removes a consumption.
func (s *Service) DeleteConsumption(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// redistribute splits the resolved cost among the requested participants,
// or among all members active at the date when none are given.
func (s *Service) redistribute(ctx context.Context, c *Consumption, totalCost decimal.Decimal, inputs []ShareInput) (balance.Redistribution, error) {
	members, err := s.groupRepo.ListMembers(ctx, c.GroupID)
	if err != nil {
		return balance.Redistribution{}, err
	}
	byID := make(map[int64]*group.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	var participants []balance.Participant
	var prior []balance.Share
	if len(inputs) == 0 {
		for _, m := range members {
			if m.ActiveAt(c.Date) {
				participants = append(participants, balance.Participant{ID: m.ID})
			}
		}
	} else {
		for _, in := range inputs {
			if _, ok := byID[in.MemberID]; !ok {
				return balance.Redistribution{}, ErrUnknownMember
			}
			participants = append(participants, balance.Participant{ID: in.MemberID})
			sh := balance.Share{MemberID: in.MemberID, ManuallyEdited: in.ManuallyEdited && in.Amount != nil}
			if sh.ManuallyEdited {
				sh.Amount = *in.Amount
			}
			prior = append(prior, sh)
		}
	}
	if len(participants) == 0 {
		return balance.Redistribution{}, ErrNoParticipants
	}
	return balance.Redistribute(totalCost, participants, prior, balance.MethodEqual), nil
}

func (s *Service) groupResource(ctx context.Context, groupID, resourceID int64) (*group.Resource, error) {
	g, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	res, err := s.groupRepo.GetResourceByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if res == nil || res.GroupID != groupID {
		return nil, ErrResourceNotFound
	}
	return res, nil
}

// resolveCost converts a consumption's recorded amount to currency.
func resolveCost(c *Consumption, res *group.Resource) (decimal.Decimal, error) {
	if !c.IsUnitAmount {
		return c.Amount, nil
	}
	if res.UnitPrice == nil {
		return decimal.Zero, ErrMissingUnitPrice
	}
	return c.Amount.Mul(*res.UnitPrice), nil
}

func inputsFromStored(shares []*Share) []ShareInput {
	inputs := make([]ShareInput, len(shares))
	for i, sh := range shares {
		amount := sh.Amount
		inputs[i] = ShareInput{MemberID: sh.MemberID, Amount: &amount, ManuallyEdited: sh.ManuallyEdited}
	}
	return inputs
}

func fromEngine(shares []balance.Share) []*Share {
	out := make([]*Share, len(shares))
	for i, s := range shares {
		out[i] = &Share{
			MemberID:       s.MemberID,
			Amount:         s.Amount,
			ManuallyEdited: s.ManuallyEdited,
		}
	}
	return out
}
