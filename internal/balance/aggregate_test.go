package balance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, time.March, n, 12, 0, 0, 0, time.UTC)
}

func equalShares(total string, memberIDs ...int64) []Share {
	res := Redistribute(dec(total), participants(memberIDs...), nil, MethodEqual)
	return res.Shares
}

func TestAggregateExpense(t *testing.T) {
	snap := Snapshot{
		Members: []Member{{ID: 1}, {ID: 2}, {ID: 3}},
		Expenses: []ExpenseInstance{
			{PayerID: 1, Amount: dec("90"), Date: day(1), Shares: equalShares("90", 1, 2, 3)},
		},
	}

	balances := Aggregate(snap, nil)

	assert.True(t, balances[MemberKey(1)].Equal(dec("60")))
	assert.True(t, balances[MemberKey(2)].Equal(dec("-30")))
	assert.True(t, balances[MemberKey(3)].Equal(dec("-30")))
}

func TestAggregateConsumptionUnitPricing(t *testing.T) {
	snap := Snapshot{
		Members:   []Member{{ID: 1}, {ID: 2}},
		Resources: []Resource{{ID: 5, UnitPrice: decPtr("0.40")}},
		Consumptions: []Consumption{
			// 100 units at 0.40 -> 40 currency, split equally.
			{ResourceID: 5, Amount: dec("100"), IsUnitAmount: true, Date: day(2), Shares: equalShares("40", 1, 2)},
			// 10 recorded directly in currency.
			{ResourceID: 5, Amount: dec("10"), Date: day(3), Shares: equalShares("10", 1, 2)},
		},
	}

	balances := Aggregate(snap, nil)

	assert.True(t, balances[ResourceKey(5)].Equal(dec("50")))
	assert.True(t, balances[MemberKey(1)].Equal(dec("-25")))
	assert.True(t, balances[MemberKey(2)].Equal(dec("-25")))
}

func TestAggregateCompletedSettlementReducesDebt(t *testing.T) {
	from := MemberKey(2)
	to := MemberKey(1)
	snap := Snapshot{
		Members: []Member{{ID: 1}, {ID: 2}},
		Expenses: []ExpenseInstance{
			{PayerID: 1, Amount: dec("40"), Date: day(1), Shares: equalShares("40", 1, 2)},
		},
		Settlements: []Settlement{
			{ID: 1, CreatedAt: day(2), Members: []SettlementMember{
				{From: &from, To: &to, Amount: dec("20"), Status: StatusCompleted, CreatedAt: day(2)},
			}},
		},
	}

	balances := Aggregate(snap, nil)

	assert.True(t, balances[MemberKey(1)].IsZero())
	assert.True(t, balances[MemberKey(2)].IsZero())
}

func TestAggregateOpenSettlementMembersIgnored(t *testing.T) {
	from := MemberKey(2)
	to := MemberKey(1)
	snap := Snapshot{
		Members: []Member{{ID: 1}, {ID: 2}},
		Settlements: []Settlement{
			{ID: 1, CreatedAt: day(2), Members: []SettlementMember{
				{From: &from, To: &to, Amount: dec("20"), Status: StatusOpen, CreatedAt: day(2)},
			}},
		},
	}

	balances := Aggregate(snap, nil)

	assert.True(t, balances[MemberKey(1)].IsZero())
	assert.True(t, balances[MemberKey(2)].IsZero())
}

func TestAggregateCutoffFiltersHistory(t *testing.T) {
	snap := Snapshot{
		Members: []Member{{ID: 1}, {ID: 2}},
		Expenses: []ExpenseInstance{
			{PayerID: 1, Amount: dec("100"), Date: day(1), Shares: equalShares("100", 1, 2)},
			{PayerID: 2, Amount: dec("30"), Date: day(10), Shares: equalShares("30", 1, 2)},
		},
	}
	cutoff := day(5)

	balances := Aggregate(snap, &cutoff)

	assert.True(t, balances[MemberKey(1)].Equal(dec("-15")))
	assert.True(t, balances[MemberKey(2)].Equal(dec("15")))
}

func TestAggregateZeroSum(t *testing.T) {
	from := MemberKey(3)
	to := MemberKey(1)
	snap := Snapshot{
		Members:   []Member{{ID: 1}, {ID: 2}, {ID: 3}},
		Resources: []Resource{{ID: 9, UnitPrice: decPtr("2")}},
		Expenses: []ExpenseInstance{
			{PayerID: 1, Amount: dec("100"), Date: day(1), Shares: equalShares("100", 1, 2, 3)},
			{PayerID: 2, Amount: dec("47.50"), Date: day(2), Shares: equalShares("47.50", 2, 3)},
		},
		Consumptions: []Consumption{
			{ResourceID: 9, Amount: dec("13"), IsUnitAmount: true, Date: day(3), Shares: equalShares("26", 1, 2, 3)},
		},
		Settlements: []Settlement{
			{ID: 1, CreatedAt: day(4), Members: []SettlementMember{
				{From: &from, To: &to, Amount: dec("33.33"), Status: StatusCompleted, CreatedAt: day(4)},
			}},
		},
	}

	balances := Aggregate(snap, nil)

	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b)
	}
	require.True(t, sum.IsZero(), "history must redistribute money conservatively, got %s", sum)
}

func TestAggregateDoesNotMutateSnapshot(t *testing.T) {
	shares := equalShares("90", 1, 2, 3)
	snap := Snapshot{
		Members:  []Member{{ID: 1}, {ID: 2}, {ID: 3}},
		Expenses: []ExpenseInstance{{PayerID: 1, Amount: dec("90"), Date: day(1), Shares: shares}},
	}

	first := Aggregate(snap, nil)
	second := Aggregate(snap, nil)

	assert.Equal(t, first, second)
	assert.True(t, shares[0].Amount.Equal(dec("30")))
}
