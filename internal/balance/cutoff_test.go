package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settlementAt(id int, n int, status MemberStatus) Settlement {
	return Settlement{
		ID:        int64(id),
		CreatedAt: day(n),
		Members: []SettlementMember{
			{Amount: dec("10"), Status: status, CreatedAt: day(n)},
		},
	}
}

func TestResolveCutoffNoSettlements(t *testing.T) {
	assert.Nil(t, ResolveCutoff(nil))
}

func TestResolveCutoffLatestCompleted(t *testing.T) {
	settlements := []Settlement{
		settlementAt(1, 2, StatusCompleted),
		settlementAt(2, 8, StatusCompleted),
	}

	cutoff := ResolveCutoff(settlements)

	require.NotNil(t, cutoff)
	assert.Equal(t, day(8), *cutoff)
}

func TestResolveCutoffSuppressedByOlderOpen(t *testing.T) {
	settlements := []Settlement{
		settlementAt(1, 2, StatusOpen),
		settlementAt(2, 8, StatusCompleted),
	}

	assert.Nil(t, ResolveCutoff(settlements), "older open settlement keeps history visible")
}

func TestResolveCutoffNewerOpenDoesNotSuppress(t *testing.T) {
	settlements := []Settlement{
		settlementAt(1, 2, StatusCompleted),
		settlementAt(2, 8, StatusOpen),
	}

	cutoff := ResolveCutoff(settlements)

	require.NotNil(t, cutoff)
	assert.Equal(t, day(2), *cutoff)
}

func TestResolveCutoffPartiallyCompletedBatchIsOpen(t *testing.T) {
	mixed := Settlement{
		ID:        1,
		CreatedAt: day(1),
		Members: []SettlementMember{
			{Amount: dec("10"), Status: StatusCompleted, CreatedAt: day(1)},
			{Amount: dec("5"), Status: StatusOpen, CreatedAt: day(1)},
		},
	}
	settlements := []Settlement{mixed, settlementAt(2, 8, StatusCompleted)}

	assert.Nil(t, ResolveCutoff(settlements))
}

func TestResolveCutoffMonotonic(t *testing.T) {
	settlements := []Settlement{settlementAt(1, 2, StatusCompleted)}
	first := ResolveCutoff(settlements)
	require.NotNil(t, first)

	settlements = append(settlements, settlementAt(2, 9, StatusCompleted))
	second := ResolveCutoff(settlements)
	require.NotNil(t, second)

	assert.False(t, second.Before(*first), "cutoff only moves forward as settlements complete")
}
