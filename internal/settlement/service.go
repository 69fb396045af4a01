package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phclaus/fairsplit/internal/balance"
)

// Common errors
var (
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrMemberNotFound     = errors.New("settlement member not found")
	ErrNothingToSettle    = errors.New("nothing to settle")
	ErrCenterKindMismatch = errors.New("center entity kind does not match the strategy")
)

// SnapshotProvider assembles the consistent event history the balance
// engine computes over. Implemented by the snapshot package.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, groupID int64, now time.Time) (balance.Snapshot, error)
}

// Store persists settlement batches. Implemented by Repository.
type Store interface {
	Create(ctx context.Context, s *Settlement) error
	GetByID(ctx context.Context, id int64) (*Settlement, error)
	ListByGroup(ctx context.Context, groupID int64) ([]*Settlement, error)
	UpdateMemberStatus(ctx context.Context, settlementID, memberID int64, status MemberStatus) error
}

// Notifier delivers a message to a member. Implemented by the notification
// service; may be nil when notifications are disabled.
type Notifier interface {
	Notify(ctx context.Context, groupID, memberID int64, kind, message string) error
}

// Service handles settlement business logic: computing balances on demand,
// planning new settlements and walking member transactions through their
// lifecycle.
type Service struct {
	store     Store
	snapshots SnapshotProvider
	notifier  Notifier
	now       func() time.Time
}

// NewService creates a new settlement service.
func NewService(store Store, snapshots SnapshotProvider, notifier Notifier) *Service {
	return &Service{
		store:     store,
		snapshots: snapshots,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Balances recomputes the group's net balances from its full event history,
// honoring the settlement cutoff. Balances are never cached.
func (s *Service) Balances(ctx context.Context, groupID int64) ([]BalanceEntry, error) {
	balances, err := s.aggregate(ctx, groupID)
	if err != nil {
		return nil, err
	}

	entries := make([]BalanceEntry, 0, len(balances))
	for key, amount := range balances {
		entries = append(entries, BalanceEntry{Entity: key.String(), Key: key, Balance: amount})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key.Less(entries[j].Key) })
	return entries, nil
}

// PreviewPlan computes the transaction list for a strategy without
// persisting anything. An empty list means there is nothing to settle.
func (s *Service) PreviewPlan(ctx context.Context, groupID int64, req *PlanRequest) (*PlanResponse, error) {
	txs, err := s.plan(ctx, groupID, req)
	if err != nil {
		return nil, err
	}
	return &PlanResponse{Strategy: req.Strategy, Transactions: txs}, nil
}

// CreateSettlement plans and persists a new settlement batch with every
// member transaction open. Refuses to persist when there is nothing to
// settle.
func (s *Service) CreateSettlement(ctx context.Context, groupID int64, req *PlanRequest) (*Settlement, error) {
	txs, err := s.plan(ctx, groupID, req)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, ErrNothingToSettle
	}

	now := s.now()
	settlement := &Settlement{
		GroupID:   groupID,
		Reference: uuid.New(),
		Strategy:  req.Strategy,
		CreatedAt: now,
	}
	for _, tx := range txs {
		from, to := tx.From, tx.To
		settlement.Members = append(settlement.Members, &Member{
			From:      &from,
			To:        &to,
			Amount:    tx.Amount,
			Status:    MemberStatusOpen,
			CreatedAt: now,
		})
	}

	if err := s.store.Create(ctx, settlement); err != nil {
		return nil, err
	}
	s.notifyMembers(ctx, settlement, "settlement_created",
		fmt.Sprintf("A new settlement %s was planned for your group", settlement.Reference))
	return settlement, nil
}

// GetByID retrieves a settlement batch.
func (s *Service) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	settlement, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}
	return settlement, nil
}

// ListByGroup lists a group's settlement batches.
func (s *Service) ListByGroup(ctx context.Context, groupID int64) ([]*Settlement, error) {
	return s.store.ListByGroup(ctx, groupID)
}

// CompleteMember marks one member transaction as completed. The transition
// is monotonic in the planner's model; completing an already completed
// member is a no-op.
func (s *Service) CompleteMember(ctx context.Context, settlementID, memberID int64) (*Settlement, error) {
	if err := s.store.UpdateMemberStatus(ctx, settlementID, memberID, MemberStatusCompleted); err != nil {
		return nil, err
	}
	settlement, err := s.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement.Status() == MemberStatusCompleted {
		s.notifyMembers(ctx, settlement, "settlement_completed",
			fmt.Sprintf("Settlement %s is fully completed", settlement.Reference))
	}
	return settlement, nil
}

// ReopenMember sets a member transaction back to open. This is an external
// override of the lifecycle; the cutoff resolver reacts by exposing the
// affected history again.
func (s *Service) ReopenMember(ctx context.Context, settlementID, memberID int64) (*Settlement, error) {
	if err := s.store.UpdateMemberStatus(ctx, settlementID, memberID, MemberStatusOpen); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, settlementID)
}

func (s *Service) aggregate(ctx context.Context, groupID int64) (map[balance.EntityKey]decimal.Decimal, error) {
	snap, err := s.snapshots.Snapshot(ctx, groupID, s.now())
	if err != nil {
		return nil, err
	}
	cutoff := balance.ResolveCutoff(snap.Settlements)
	return balance.Aggregate(snap, cutoff), nil
}

func (s *Service) plan(ctx context.Context, groupID int64, req *PlanRequest) ([]balance.Transaction, error) {
	balances, err := s.aggregate(ctx, groupID)
	if err != nil {
		return nil, err
	}
	center, err := resolveCenter(req)
	if err != nil {
		return nil, err
	}
	return balance.Plan(balances, balance.Strategy(req.Strategy), center)
}

// resolveCenter derives the center entity key from the request. The center
// kind follows the strategy.
func resolveCenter(req *PlanRequest) (*balance.EntityKey, error) {
	if req.CenterID == nil {
		return nil, nil
	}
	var key balance.EntityKey
	switch balance.Strategy(req.Strategy) {
	case balance.StrategyAroundMember:
		key = balance.MemberKey(*req.CenterID)
	case balance.StrategyAroundResource:
		key = balance.ResourceKey(*req.CenterID)
	default:
		return nil, ErrCenterKindMismatch
	}
	return &key, nil
}

// notifyMembers informs every member appearing in the batch. Notification
// failures are swallowed; the settlement itself already succeeded.
func (s *Service) notifyMembers(ctx context.Context, settlement *Settlement, kind, message string) {
	if s.notifier == nil {
		return
	}
	seen := make(map[int64]bool)
	for _, m := range settlement.Members {
		for _, key := range []*balance.EntityKey{m.From, m.To} {
			if key == nil || key.Kind != balance.KindMember || seen[key.ID] {
				continue
			}
			seen[key.ID] = true
			_ = s.notifier.Notify(ctx, settlement.GroupID, key.ID, kind, message)
		}
	}
}
