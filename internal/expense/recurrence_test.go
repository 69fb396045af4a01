package expense

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phclaus/fairsplit/internal/group"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func member(id int64, from time.Time, to *time.Time) *group.Member {
	return &group.Member{ID: id, Name: "m", ActiveFrom: from, ActiveTo: to}
}

func monthly(interval int) (*RecurrenceUnit, *int) {
	unit := RecurrenceMonthly
	return &unit, &interval
}

func TestInstancesNonRecurring(t *testing.T) {
	e := &Expense{
		PayerID: 1,
		Amount:  dec("30"),
		Date:    date(2024, time.January, 15),
		Shares:  []*Share{{MemberID: 1, Amount: dec("15")}, {MemberID: 2, Amount: dec("15")}},
	}

	instances := Instances(e, nil, date(2024, time.June, 1))

	require.Len(t, instances, 1)
	assert.Equal(t, e.Date, instances[0].Date)
	require.Len(t, instances[0].Shares, 2)
	assert.True(t, instances[0].Shares[0].Amount.Equal(dec("15")))
}

func TestInstancesFutureExpenseYieldsNothing(t *testing.T) {
	e := &Expense{Amount: dec("10"), Date: date(2025, time.January, 1)}

	assert.Empty(t, Instances(e, nil, date(2024, time.June, 1)))
}

func TestInstancesMonthlyExpansion(t *testing.T) {
	unit, interval := monthly(1)
	e := &Expense{
		PayerID:            1,
		Amount:             dec("60"),
		Date:               date(2024, time.January, 10),
		SplitAll:           true,
		SharingMethod:      "equal",
		RecurrenceUnit:     unit,
		RecurrenceInterval: interval,
		Shares:             []*Share{{MemberID: 1, Amount: dec("30")}, {MemberID: 2, Amount: dec("30")}},
	}
	members := []*group.Member{
		member(1, date(2023, time.January, 1), nil),
		member(2, date(2023, time.January, 1), nil),
	}

	instances := Instances(e, members, date(2024, time.March, 31))

	require.Len(t, instances, 3, "january stored + february + march")
	assert.Equal(t, date(2024, time.February, 10), instances[1].Date)
	assert.Equal(t, date(2024, time.March, 10), instances[2].Date)
	for _, inst := range instances[1:] {
		require.Len(t, inst.Shares, 2)
		assert.True(t, inst.Shares[0].Amount.Equal(dec("30")))
	}
}

func TestInstancesUseActiveMembersPerOccurrence(t *testing.T) {
	// Member 3 joins in mid February: the march occurrence splits three ways.
	unit, interval := monthly(1)
	e := &Expense{
		PayerID:            1,
		Amount:             dec("90"),
		Date:               date(2024, time.January, 10),
		SplitAll:           true,
		SharingMethod:      "equal",
		RecurrenceUnit:     unit,
		RecurrenceInterval: interval,
		Shares:             []*Share{{MemberID: 1, Amount: dec("45")}, {MemberID: 2, Amount: dec("45")}},
	}
	members := []*group.Member{
		member(1, date(2023, time.January, 1), nil),
		member(2, date(2023, time.January, 1), nil),
		member(3, date(2024, time.February, 15), nil),
	}

	instances := Instances(e, members, date(2024, time.March, 31))

	require.Len(t, instances, 3)
	assert.Len(t, instances[1].Shares, 2, "february predates member 3")
	require.Len(t, instances[2].Shares, 3)
	assert.True(t, instances[2].Shares[0].Amount.Equal(dec("30")))
}

func TestInstancesDepartedMemberDropsOut(t *testing.T) {
	leftAt := date(2024, time.January, 31)
	unit, interval := monthly(1)
	e := &Expense{
		PayerID:            1,
		Amount:             dec("60"),
		Date:               date(2024, time.January, 10),
		SplitAll:           true,
		SharingMethod:      "equal",
		RecurrenceUnit:     unit,
		RecurrenceInterval: interval,
	}
	members := []*group.Member{
		member(1, date(2023, time.January, 1), nil),
		member(2, date(2023, time.January, 1), &leftAt),
	}

	instances := Instances(e, members, date(2024, time.February, 28))

	require.Len(t, instances, 2)
	require.Len(t, instances[1].Shares, 1)
	assert.True(t, instances[1].Shares[0].Amount.Equal(dec("60")))
}

func TestInstancesWeeklyInterval(t *testing.T) {
	unit := RecurrenceWeekly
	interval := 2
	e := &Expense{
		PayerID:            1,
		Amount:             dec("10"),
		Date:               date(2024, time.January, 1),
		SplitAll:           true,
		SharingMethod:      "equal",
		RecurrenceUnit:     &unit,
		RecurrenceInterval: &interval,
	}
	members := []*group.Member{member(1, date(2023, time.January, 1), nil)}

	instances := Instances(e, members, date(2024, time.January, 31))

	require.Len(t, instances, 3, "jan 1, 15, 29")
	assert.Equal(t, date(2024, time.January, 29), instances[2].Date)
}
