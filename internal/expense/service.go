package expense

import (
	"context"
	"errors"
	"time"

	"github.com/phclaus/fairsplit/internal/balance"
	"github.com/phclaus/fairsplit/internal/group"
)

// Common errors
var (
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrShareNotFound        = errors.New("expense share not found")
	ErrGroupNotFound        = errors.New("group not found")
	ErrPayerNotMember       = errors.New("payer is not a member of the group")
	ErrUnknownMember        = errors.New("share references a member outside the group")
	ErrUnknownSharingMethod = errors.New("sharing method is not a weight type of the group")
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrNonPositiveAmount    = errors.New("amount must be positive")
)

// Service handles expense business logic. Share amounts are computed by the
// redistribution engine; the service only decides who participates and which
// shares are pinned.
type Service struct {
	repo      *Repository
	groupRepo *group.Repository
}

// NewService creates a new expense service.
func NewService(repo *Repository, groupRepo *group.Repository) *Service {
	return &Service{repo: repo, groupRepo: groupRepo}
}

// CreateExpense creates an expense and computes its shares.
func (s *Service) CreateExpense(ctx context.Context, groupID int64, req *CreateExpenseRequest) (*ExpenseResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	members, err := s.groupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	method, err := s.resolveMethod(ctx, groupID, req.SharingMethod)
	if err != nil {
		return nil, err
	}
	if !isMember(members, req.PayerID) {
		return nil, ErrPayerNotMember
	}

	participants, err := selectParticipants(members, req.SplitAll, req.Date, shareMemberIDs(req.Shares))
	if err != nil {
		return nil, err
	}

	res := balance.Redistribute(req.Amount, participants, inputShares(req.Shares), method)
	e := &Expense{
		GroupID:            groupID,
		PayerID:            req.PayerID,
		Description:        req.Description,
		Amount:             req.Amount,
		Date:               req.Date,
		SplitAll:           req.SplitAll,
		SharingMethod:      string(method),
		RecurrenceUnit:     req.RecurrenceUnit,
		RecurrenceInterval: req.RecurrenceInterval,
		Shares:             fromEngine(res.Shares),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return &ExpenseResponse{Expense: e, Difference: res.Difference}, nil
}

// GetByID retrieves an expense with its shares.
func (s *Service) GetByID(ctx context.Context, id int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}
	return e, nil
}

// ListByGroup lists a group's expenses.
func (s *Service) ListByGroup(ctx context.Context, groupID int64) ([]*Expense, error) {
	return s.repo.ListByGroup(ctx, groupID)
}

// UpdateExpense revises an expense and recomputes its shares. Pinned
// amounts survive only when resubmitted as manually edited; everything else
// is redistributed against the new total and participant set.
func (s *Service) UpdateExpense(ctx context.Context, id int64, req *UpdateExpenseRequest) (*ExpenseResponse, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PayerID != nil {
		e.PayerID = *req.PayerID
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	if req.SplitAll != nil {
		e.SplitAll = *req.SplitAll
	}
	if req.SharingMethod != nil {
		e.SharingMethod = *req.SharingMethod
	}
	if req.RecurrenceUnit != nil {
		e.RecurrenceUnit = req.RecurrenceUnit
	}
	if req.RecurrenceInterval != nil {
		e.RecurrenceInterval = req.RecurrenceInterval
	}
	if !e.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}

	members, err := s.groupMembers(ctx, e.GroupID)
	if err != nil {
		return nil, err
	}
	method, err := s.resolveMethod(ctx, e.GroupID, e.SharingMethod)
	if err != nil {
		return nil, err
	}
	if !isMember(members, e.PayerID) {
		return nil, ErrPayerNotMember
	}

	var prior []balance.Share
	var explicit []int64
	if req.Shares != nil {
		prior = inputShares(req.Shares)
		explicit = shareMemberIDs(req.Shares)
	} else {
		prior = EngineShares(e.Shares)
		explicit = memberIDsOf(e.Shares)
	}

	participants, err := selectParticipants(members, e.SplitAll, e.Date, explicit)
	if err != nil {
		return nil, err
	}

	res := balance.Redistribute(e.Amount, participants, prior, method)
	e.Shares = fromEngine(res.Shares)
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return &ExpenseResponse{Expense: e, Difference: res.Difference}, nil
}

// PinShare freezes a share's current computed amount as a manual amount.
// Other shares are left untouched until the next redistribution.
func (s *Service) PinShare(ctx context.Context, expenseID, memberID int64) (*Expense, error) {
	if err := s.repo.SetShareManuallyEdited(ctx, expenseID, memberID, true); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, expenseID)
}

// UnpinShare returns a share to automatic mode. Its previous amount is
// discarded and the whole expense is redistributed.
func (s *Service) UnpinShare(ctx context.Context, expenseID, memberID int64) (*ExpenseResponse, error) {
	e, err := s.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, sh := range e.Shares {
		if sh.MemberID == memberID {
			sh.ManuallyEdited = false
			found = true
		}
	}
	if !found {
		return nil, ErrShareNotFound
	}

	return s.redistributeStored(ctx, e)
}

// DeleteExpense removes an expense.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// SyncSplitAll re-redistributes the shares of every split-all expense in a
// group against the current member set. Pinned shares are preserved. Called
// after membership changes.
func (s *Service) SyncSplitAll(ctx context.Context, groupID int64) error {
	expenses, err := s.repo.ListSplitAllByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		return nil
	}
	members, err := s.groupMembers(ctx, groupID)
	if err != nil {
		return err
	}

	for _, e := range expenses {
		participants, err := selectParticipants(members, true, e.Date, nil)
		if err != nil {
			// A split-all expense with no active members keeps its
			// stored shares; there is nobody to shift them to.
			continue
		}
		res := balance.Redistribute(e.Amount, participants, EngineShares(e.Shares), balance.SharingMethod(e.SharingMethod))
		if err := s.repo.ReplaceShares(ctx, e.ID, fromEngine(res.Shares)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) redistributeStored(ctx context.Context, e *Expense) (*ExpenseResponse, error) {
	members, err := s.groupMembers(ctx, e.GroupID)
	if err != nil {
		return nil, err
	}
	participants, err := selectParticipants(members, e.SplitAll, e.Date, memberIDsOf(e.Shares))
	if err != nil {
		return nil, err
	}
	res := balance.Redistribute(e.Amount, participants, EngineShares(e.Shares), balance.SharingMethod(e.SharingMethod))
	e.Shares = fromEngine(res.Shares)
	if err := s.repo.ReplaceShares(ctx, e.ID, e.Shares); err != nil {
		return nil, err
	}
	return &ExpenseResponse{Expense: e, Difference: res.Difference}, nil
}

func (s *Service) groupMembers(ctx context.Context, groupID int64) ([]*group.Member, error) {
	g, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return s.groupRepo.ListMembers(ctx, groupID)
}

// resolveMethod validates the sharing method against the group's weight
// types. Empty means equal.
func (s *Service) resolveMethod(ctx context.Context, groupID int64, method string) (balance.SharingMethod, error) {
	if method == "" || method == string(balance.MethodEqual) {
		return balance.MethodEqual, nil
	}
	types, err := s.groupRepo.ListWeightTypes(ctx, groupID)
	if err != nil {
		return "", err
	}
	for _, wt := range types {
		if wt.Name == method {
			return balance.SharingMethod(method), nil
		}
	}
	return "", ErrUnknownSharingMethod
}

// selectParticipants picks the effective participant set: every member
// active at the event date for split-all events, otherwise the explicitly
// listed members (which must belong to the group).
func selectParticipants(members []*group.Member, splitAll bool, date time.Time, explicit []int64) ([]balance.Participant, error) {
	byID := make(map[int64]*group.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	var participants []balance.Participant
	if splitAll {
		for _, m := range members {
			if m.ActiveAt(date) {
				participants = append(participants, balance.Participant{ID: m.ID, Weights: m.Weights})
			}
		}
	} else {
		for _, id := range explicit {
			m, ok := byID[id]
			if !ok {
				return nil, ErrUnknownMember
			}
			participants = append(participants, balance.Participant{ID: m.ID, Weights: m.Weights})
		}
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	return participants, nil
}

func isMember(members []*group.Member, id int64) bool {
	for _, m := range members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// inputShares maps share inputs to engine prior shares. Only manually
// edited inputs carry an amount; the engine ignores amounts on unpinned
// shares but honors their weight hints.
func inputShares(inputs []ShareInput) []balance.Share {
	shares := make([]balance.Share, 0, len(inputs))
	for _, in := range inputs {
		sh := balance.Share{MemberID: in.MemberID, Weight: in.Weight, ManuallyEdited: in.ManuallyEdited}
		if in.ManuallyEdited {
			if in.Amount == nil {
				sh.ManuallyEdited = false
			} else {
				sh.Amount = *in.Amount
			}
		}
		shares = append(shares, sh)
	}
	return shares
}

func shareMemberIDs(inputs []ShareInput) []int64 {
	ids := make([]int64, len(inputs))
	for i, in := range inputs {
		ids[i] = in.MemberID
	}
	return ids
}

func memberIDsOf(shares []*Share) []int64 {
	ids := make([]int64, len(shares))
	for i, s := range shares {
		ids[i] = s.MemberID
	}
	return ids
}

func fromEngine(shares []balance.Share) []*Share {
	out := make([]*Share, len(shares))
	for i, s := range shares {
		out[i] = &Share{
			MemberID:       s.MemberID,
			Amount:         s.Amount,
			Weight:         s.Weight,
			ManuallyEdited: s.ManuallyEdited,
		}
	}
	return out
}
