package balance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanOptimizedSimple(t *testing.T) {
	// A paid 90 split equally among A, B, C.
	balances := map[EntityKey]decimal.Decimal{
		MemberKey(1): dec("60"),
		MemberKey(2): dec("-30"),
		MemberKey(3): dec("-30"),
	}

	txs, err := Plan(balances, StrategyOptimized, nil)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, MemberKey(1), tx.To)
		assert.True(t, tx.Amount.Equal(dec("30")))
	}
	assert.Equal(t, MemberKey(2), txs[0].From, "tiebreak on entity key keeps the order stable")
	assert.Equal(t, MemberKey(3), txs[1].From)
}

func TestPlanOptimizedChainsPartialMatches(t *testing.T) {
	balances := map[EntityKey]decimal.Decimal{
		MemberKey(1): dec("70"),
		MemberKey(2): dec("30"),
		MemberKey(3): dec("-50"),
		MemberKey(4): dec("-50"),
	}

	txs, err := Plan(balances, StrategyOptimized, nil)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, Transaction{From: MemberKey(3), To: MemberKey(1), Amount: dec("50")}, txs[0])
	assert.Equal(t, Transaction{From: MemberKey(4), To: MemberKey(1), Amount: dec("20")}, txs[1])
	assert.Equal(t, Transaction{From: MemberKey(4), To: MemberKey(2), Amount: dec("30")}, txs[2])
}

func TestPlanOptimizedDeterministic(t *testing.T) {
	balances := map[EntityKey]decimal.Decimal{
		MemberKey(5):   dec("25"),
		MemberKey(2):   dec("25"),
		MemberKey(9):   dec("-25"),
		MemberKey(1):   dec("-25"),
		ResourceKey(3): dec("0"),
	}

	first, err := Plan(balances, StrategyOptimized, nil)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Plan(balances, StrategyOptimized, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPlanDeadbandDropsNoise(t *testing.T) {
	balances := map[EntityKey]decimal.Decimal{
		MemberKey(1): dec("0.005"),
		MemberKey(2): dec("-0.005"),
	}

	txs, err := Plan(balances, StrategyOptimized, nil)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestPlanAroundMemberCenterOwes(t *testing.T) {
	balances := map[EntityKey]decimal.Decimal{
		MemberKey(1): dec("30"),
		MemberKey(2): dec("-30"),
		MemberKey(3): dec("0"),
	}
	center := MemberKey(2)

	txs, err := Plan(balances, StrategyAroundMember, &center)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, Transaction{From: MemberKey(2), To: MemberKey(1), Amount: dec("30")}, txs[0])
}

func TestPlanAroundMemberCenterOwed(t *testing.T) {
	balances := map[EntityKey]decimal.Decimal{
		MemberKey(1): dec("60"),
		MemberKey(2): dec("-40"),
		MemberKey(3): dec("-20"),
	}
	center := MemberKey(1)

	txs, err := Plan(balances, StrategyAroundMember, &center)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, Transaction{From: MemberKey(2), To: MemberKey(1), Amount: dec("40")}, txs[0])
	assert.Equal(t, Transaction{From: MemberKey(3), To: MemberKey(1), Amount: dec("20")}, txs[1])
}

func TestPlanAroundZeroCenterIsNoop(t *testing.T) {
	balances := map[EntityKey]decimal.Decimal{
		MemberKey(1): dec("30"),
		MemberKey(2): dec("-30"),
		MemberKey(3): dec("0"),
	}
	center := MemberKey(3)

	txs, err := Plan(balances, StrategyAroundMember, &center)
	require.NoError(t, err)
	assert.Empty(t, txs, "a settled center routes nothing, even with open balances elsewhere")
}

func TestPlanAroundResource(t *testing.T) {
	balances := map[EntityKey]decimal.Decimal{
		ResourceKey(7): dec("50"),
		MemberKey(1):   dec("-20"),
		MemberKey(2):   dec("-30"),
	}
	center := ResourceKey(7)

	txs, err := Plan(balances, StrategyAroundResource, &center)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, Transaction{From: MemberKey(2), To: ResourceKey(7), Amount: dec("30")}, txs[0])
	assert.Equal(t, Transaction{From: MemberKey(1), To: ResourceKey(7), Amount: dec("20")}, txs[1])
}

func TestPlanCenterErrors(t *testing.T) {
	balances := map[EntityKey]decimal.Decimal{MemberKey(1): dec("10")}

	_, err := Plan(balances, StrategyAroundMember, nil)
	assert.ErrorIs(t, err, ErrMissingCenter)

	missing := MemberKey(99)
	_, err = Plan(balances, StrategyAroundMember, &missing)
	assert.ErrorIs(t, err, ErrUnknownCenter)

	_, err = Plan(balances, Strategy("pairwise"), nil)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestPlanNothingToSettle(t *testing.T) {
	txs, err := Plan(map[EntityKey]decimal.Decimal{}, StrategyOptimized, nil)
	require.NoError(t, err)
	assert.Empty(t, txs)
}
