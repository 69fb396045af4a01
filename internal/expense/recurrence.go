package expense

import (
	"time"

	"github.com/phclaus/fairsplit/internal/balance"
	"github.com/phclaus/fairsplit/internal/group"
)

// Instances expands an expense into resolved occurrences up to (and
// including) the given date. A non-recurring expense yields one instance
// with its stored shares.
//
// Generated occurrences resolve their own effective member set: the members
// active at the occurrence date, drawn from the whole group for split-all
// expenses and from the stored share members otherwise. Shares for generated
// occurrences are redistributed fresh per occurrence; pins apply only to the
// stored one. The balance aggregator consumes the result as ordinary
// expenses and never expands recurrence itself.
func Instances(e *Expense, members []*group.Member, until time.Time) []balance.ExpenseInstance {
	if e.Date.After(until) {
		return nil
	}

	instances := []balance.ExpenseInstance{{
		PayerID: e.PayerID,
		Amount:  e.Amount,
		Date:    e.Date,
		Shares:  EngineShares(e.Shares),
	}}
	if !e.Recurring() {
		return instances
	}

	interval := 1
	if e.RecurrenceInterval != nil {
		interval = *e.RecurrenceInterval
	}

	sharedBy := make(map[int64]bool, len(e.Shares))
	for _, s := range e.Shares {
		sharedBy[s.MemberID] = true
	}

	for date := nextOccurrence(e.Date, *e.RecurrenceUnit, interval); !date.After(until); date = nextOccurrence(date, *e.RecurrenceUnit, interval) {
		var participants []balance.Participant
		for _, m := range members {
			if !m.ActiveAt(date) {
				continue
			}
			if !e.SplitAll && !sharedBy[m.ID] {
				continue
			}
			participants = append(participants, balance.Participant{ID: m.ID, Weights: m.Weights})
		}
		if len(participants) == 0 {
			continue
		}
		res := balance.Redistribute(e.Amount, participants, nil, balance.SharingMethod(e.SharingMethod))
		instances = append(instances, balance.ExpenseInstance{
			PayerID: e.PayerID,
			Amount:  e.Amount,
			Date:    date,
			Shares:  res.Shares,
		})
	}
	return instances
}

func nextOccurrence(date time.Time, unit RecurrenceUnit, interval int) time.Time {
	switch unit {
	case RecurrenceWeekly:
		return date.AddDate(0, 0, 7*interval)
	default:
		return date.AddDate(0, interval, 0)
	}
}
