package balance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func participants(ids ...int64) []Participant {
	ps := make([]Participant, len(ids))
	for i, id := range ids {
		ps[i] = Participant{ID: id}
	}
	return ps
}

func shareSum(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

func TestRedistributeEqualSplit(t *testing.T) {
	res := Redistribute(dec("90"), participants(1, 2, 3), nil, MethodEqual)

	require.Len(t, res.Shares, 3)
	for _, s := range res.Shares {
		assert.True(t, s.Amount.Equal(dec("30")), "share %d got %s", s.MemberID, s.Amount)
	}
	assert.True(t, res.Difference.IsZero())
}

func TestRedistributePreservesPins(t *testing.T) {
	// total=100, X pinned at 40, Y weight 1, Z weight 3 -> Y=15, Z=45.
	prior := []Share{
		{MemberID: 1, Amount: dec("40"), ManuallyEdited: true},
		{MemberID: 2, Weight: decPtr("1")},
		{MemberID: 3, Weight: decPtr("3")},
	}
	res := Redistribute(dec("100"), participants(1, 2, 3), prior, MethodEqual)

	require.Len(t, res.Shares, 3)
	assert.True(t, res.Shares[0].Amount.Equal(dec("40")))
	assert.True(t, res.Shares[0].ManuallyEdited)
	assert.True(t, res.Shares[1].Amount.Equal(dec("15")))
	assert.True(t, res.Shares[2].Amount.Equal(dec("45")))
	assert.True(t, shareSum(res.Shares).Equal(dec("100")))
}

func TestRedistributeAllPinnedKeepsDifference(t *testing.T) {
	prior := []Share{
		{MemberID: 1, Amount: dec("30"), ManuallyEdited: true},
		{MemberID: 2, Amount: dec("50"), ManuallyEdited: true},
	}
	res := Redistribute(dec("100"), participants(1, 2), prior, MethodEqual)

	require.Len(t, res.Shares, 2)
	assert.True(t, res.Shares[0].Amount.Equal(dec("30")))
	assert.True(t, res.Shares[1].Amount.Equal(dec("50")))
	assert.True(t, res.Difference.Equal(dec("20")), "unassigned remainder surfaced, got %s", res.Difference)
}

func TestRedistributeOvercommittedPinsGoNegative(t *testing.T) {
	prior := []Share{
		{MemberID: 1, Amount: dec("120"), ManuallyEdited: true},
	}
	res := Redistribute(dec("100"), participants(1, 2), prior, MethodEqual)

	require.Len(t, res.Shares, 2)
	assert.True(t, res.Shares[1].Amount.Equal(dec("-20")))
	assert.True(t, shareSum(res.Shares).Equal(dec("100")))
}

func TestRedistributeSingleUnpinnedTakesRemainder(t *testing.T) {
	prior := []Share{
		{MemberID: 1, Amount: dec("70"), ManuallyEdited: true},
		{MemberID: 2, Weight: decPtr("5")},
	}
	res := Redistribute(dec("100"), participants(1, 2), prior, MethodEqual)

	assert.True(t, res.Shares[1].Amount.Equal(dec("30")), "weight must not matter for a lone unpinned share")
}

func TestRedistributeZeroWeightsFallBackToEqual(t *testing.T) {
	prior := []Share{
		{MemberID: 1, Weight: decPtr("0")},
		{MemberID: 2, Weight: decPtr("0")},
	}
	res := Redistribute(dec("50"), participants(1, 2), prior, MethodEqual)

	assert.True(t, res.Shares[0].Amount.Equal(dec("25")))
	assert.True(t, res.Shares[1].Amount.Equal(dec("25")))
}

func TestRedistributeNamedWeightType(t *testing.T) {
	ps := []Participant{
		{ID: 1, Weights: map[string]decimal.Decimal{"persons": dec("2")}},
		{ID: 2, Weights: map[string]decimal.Decimal{"persons": dec("1")}},
		{ID: 3}, // no weight configured, defaults to 1
	}
	res := Redistribute(dec("80"), ps, nil, SharingMethod("persons"))

	assert.True(t, res.Shares[0].Amount.Equal(dec("40")))
	assert.True(t, res.Shares[1].Amount.Equal(dec("20")))
	assert.True(t, res.Shares[2].Amount.Equal(dec("20")))
}

func TestRedistributeRoundingResidueGoesToLastShare(t *testing.T) {
	res := Redistribute(dec("100"), participants(1, 2, 3), nil, MethodEqual)

	assert.True(t, res.Shares[0].Amount.Equal(dec("33.33")))
	assert.True(t, res.Shares[1].Amount.Equal(dec("33.33")))
	assert.True(t, res.Shares[2].Amount.Equal(dec("33.34")))
	assert.True(t, shareSum(res.Shares).Equal(dec("100")))
}

func TestRedistributeMembershipChange(t *testing.T) {
	// Member 3 joins, member 2 leaves; member 1's pin survives.
	prior := []Share{
		{MemberID: 1, Amount: dec("10"), ManuallyEdited: true},
		{MemberID: 2, Amount: dec("45")},
	}
	res := Redistribute(dec("60"), participants(1, 3), prior, MethodEqual)

	require.Len(t, res.Shares, 2)
	assert.Equal(t, int64(1), res.Shares[0].MemberID)
	assert.True(t, res.Shares[0].Amount.Equal(dec("10")))
	assert.Equal(t, int64(3), res.Shares[1].MemberID)
	assert.True(t, res.Shares[1].Amount.Equal(dec("50")))
}

func TestRedistributeUnpinnedDiscardsOldAmount(t *testing.T) {
	// Toggling manual back to automatic: the old amount is not a weight hint.
	prior := []Share{
		{MemberID: 1, Amount: dec("99")},
		{MemberID: 2, Amount: dec("1")},
	}
	res := Redistribute(dec("60"), participants(1, 2), prior, MethodEqual)

	assert.True(t, res.Shares[0].Amount.Equal(dec("30")))
	assert.True(t, res.Shares[1].Amount.Equal(dec("30")))
}
