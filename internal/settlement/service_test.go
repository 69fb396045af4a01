package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phclaus/fairsplit/internal/balance"
)

type stubSnapshots struct {
	snap balance.Snapshot
}

func (s *stubSnapshots) Snapshot(ctx context.Context, groupID int64, now time.Time) (balance.Snapshot, error) {
	return s.snap, nil
}

type stubStore struct {
	created     *Settlement
	settlements map[int64]*Settlement
	nextID      int64
}

func newStubStore() *stubStore {
	return &stubStore{settlements: make(map[int64]*Settlement), nextID: 1}
}

func (s *stubStore) Create(ctx context.Context, settlement *Settlement) error {
	settlement.ID = s.nextID
	s.nextID++
	for i, m := range settlement.Members {
		m.ID = int64(i + 1)
		m.SettlementID = settlement.ID
	}
	s.settlements[settlement.ID] = settlement
	s.created = settlement
	return nil
}

func (s *stubStore) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	return s.settlements[id], nil
}

func (s *stubStore) ListByGroup(ctx context.Context, groupID int64) ([]*Settlement, error) {
	var out []*Settlement
	for _, settlement := range s.settlements {
		if settlement.GroupID == groupID {
			out = append(out, settlement)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateMemberStatus(ctx context.Context, settlementID, memberID int64, status MemberStatus) error {
	settlement, ok := s.settlements[settlementID]
	if !ok {
		return ErrMemberNotFound
	}
	for _, m := range settlement.Members {
		if m.ID == memberID {
			m.Status = status
			return nil
		}
	}
	return ErrMemberNotFound
}

type notification struct {
	memberID int64
	kind     string
}

type stubNotifier struct {
	sent []notification
}

func (n *stubNotifier) Notify(ctx context.Context, groupID, memberID int64, kind, message string) error {
	n.sent = append(n.sent, notification{memberID: memberID, kind: kind})
	return nil
}

func newTestService(snap balance.Snapshot) (*Service, *stubStore, *stubNotifier) {
	store := newStubStore()
	notifier := &stubNotifier{}
	svc := NewService(store, &stubSnapshots{snap: snap}, notifier)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store, notifier
}

func twoMemberSnapshot() balance.Snapshot {
	return balance.Snapshot{
		Members: []balance.Member{{ID: 1}, {ID: 2}},
		Expenses: []balance.ExpenseInstance{
			{
				PayerID: 1,
				Amount:  decimal.NewFromInt(30),
				Date:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				Shares: []balance.Share{
					{MemberID: 1, Amount: decimal.NewFromInt(15)},
					{MemberID: 2, Amount: decimal.NewFromInt(15)},
				},
			},
		},
	}
}

func TestBalancesSortedByKey(t *testing.T) {
	svc, _, _ := newTestService(twoMemberSnapshot())

	entries, err := svc.Balances(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "member_1", entries[0].Entity)
	assert.True(t, entries[0].Balance.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "member_2", entries[1].Entity)
	assert.True(t, entries[1].Balance.Equal(decimal.NewFromInt(-15)))
}

func TestPreviewPlanDoesNotPersist(t *testing.T) {
	svc, store, _ := newTestService(twoMemberSnapshot())

	plan, err := svc.PreviewPlan(context.Background(), 1, &PlanRequest{Strategy: "optimized"})
	require.NoError(t, err)
	require.Len(t, plan.Transactions, 1)

	tx := plan.Transactions[0]
	assert.Equal(t, balance.MemberKey(2), tx.From)
	assert.Equal(t, balance.MemberKey(1), tx.To)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(15)))
	assert.Nil(t, store.created)
}

func TestCreateSettlementPersistsOpenMembers(t *testing.T) {
	svc, store, notifier := newTestService(twoMemberSnapshot())

	settlement, err := svc.CreateSettlement(context.Background(), 1, &PlanRequest{Strategy: "optimized"})
	require.NoError(t, err)
	require.NotNil(t, store.created)
	require.Len(t, settlement.Members, 1)

	assert.NotEqual(t, int64(0), settlement.ID)
	assert.NotEmpty(t, settlement.Reference)
	assert.Equal(t, MemberStatusOpen, settlement.Members[0].Status)
	assert.Equal(t, MemberStatusOpen, settlement.Status())

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "settlement_created", notifier.sent[0].kind)
}

func TestCreateSettlementNothingToSettle(t *testing.T) {
	svc, store, _ := newTestService(balance.Snapshot{Members: []balance.Member{{ID: 1}}})

	_, err := svc.CreateSettlement(context.Background(), 1, &PlanRequest{Strategy: "optimized"})
	assert.ErrorIs(t, err, ErrNothingToSettle)
	assert.Nil(t, store.created)
}

func TestCreateSettlementAroundMemberRequiresCenter(t *testing.T) {
	svc, _, _ := newTestService(twoMemberSnapshot())

	_, err := svc.CreateSettlement(context.Background(), 1, &PlanRequest{Strategy: "around_member"})
	assert.ErrorIs(t, err, balance.ErrMissingCenter)
}

func TestCreateSettlementCenterWithOptimizedStrategy(t *testing.T) {
	svc, _, _ := newTestService(twoMemberSnapshot())

	centerID := int64(1)
	_, err := svc.CreateSettlement(context.Background(), 1, &PlanRequest{Strategy: "optimized", CenterID: &centerID})
	assert.ErrorIs(t, err, ErrCenterKindMismatch)
}

func TestCompleteMemberNotifiesOnBatchCompletion(t *testing.T) {
	svc, _, notifier := newTestService(twoMemberSnapshot())

	settlement, err := svc.CreateSettlement(context.Background(), 1, &PlanRequest{Strategy: "optimized"})
	require.NoError(t, err)
	notifier.sent = nil

	updated, err := svc.CompleteMember(context.Background(), settlement.ID, settlement.Members[0].ID)
	require.NoError(t, err)

	assert.Equal(t, MemberStatusCompleted, updated.Members[0].Status)
	assert.Equal(t, MemberStatusCompleted, updated.Status())
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "settlement_completed", notifier.sent[0].kind)
}

func TestReopenMemberReopensBatch(t *testing.T) {
	svc, _, _ := newTestService(twoMemberSnapshot())

	settlement, err := svc.CreateSettlement(context.Background(), 1, &PlanRequest{Strategy: "optimized"})
	require.NoError(t, err)

	_, err = svc.CompleteMember(context.Background(), settlement.ID, settlement.Members[0].ID)
	require.NoError(t, err)

	reopened, err := svc.ReopenMember(context.Background(), settlement.ID, settlement.Members[0].ID)
	require.NoError(t, err)
	assert.Equal(t, MemberStatusOpen, reopened.Members[0].Status)
	assert.Equal(t, MemberStatusOpen, reopened.Status())
}

func TestCompleteMemberUnknownMember(t *testing.T) {
	svc, _, _ := newTestService(twoMemberSnapshot())

	settlement, err := svc.CreateSettlement(context.Background(), 1, &PlanRequest{Strategy: "optimized"})
	require.NoError(t, err)

	_, err = svc.CompleteMember(context.Background(), settlement.ID, 999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _, _ := newTestService(twoMemberSnapshot())

	_, err := svc.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrSettlementNotFound)
}
