package balance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Aggregate walks a group's event history and produces the net signed
// balance per entity. Positive means the entity is owed money, negative
// means it owes. Events dated before the cutoff are skipped; a nil cutoff
// counts all history. The input snapshot is not mutated and repeated calls
// yield identical results.
func Aggregate(snap Snapshot, cutoff *time.Time) map[EntityKey]decimal.Decimal {
	balances := make(map[EntityKey]decimal.Decimal, len(snap.Members)+len(snap.Resources))
	for _, m := range snap.Members {
		balances[MemberKey(m.ID)] = decimal.Zero
	}
	unitPrices := make(map[int64]*decimal.Decimal, len(snap.Resources))
	for _, r := range snap.Resources {
		balances[ResourceKey(r.ID)] = decimal.Zero
		unitPrices[r.ID] = r.UnitPrice
	}

	add := func(key EntityKey, amount decimal.Decimal) {
		balances[key] = balances[key].Add(amount)
	}

	for _, e := range snap.Expenses {
		if skipEvent(e.Date, cutoff) {
			continue
		}
		add(MemberKey(e.PayerID), e.Amount)
		for _, s := range e.Shares {
			add(MemberKey(s.MemberID), s.Amount.Neg())
		}
	}

	for _, c := range snap.Consumptions {
		if skipEvent(c.Date, cutoff) {
			continue
		}
		total := c.Amount
		if c.IsUnitAmount {
			if price := unitPrices[c.ResourceID]; price != nil {
				total = c.Amount.Mul(*price)
			}
		}
		add(ResourceKey(c.ResourceID), total)
		for _, s := range c.Shares {
			add(MemberKey(s.MemberID), s.Amount.Neg())
		}
	}

	for _, set := range snap.Settlements {
		for _, m := range set.Members {
			if m.Status != StatusCompleted {
				continue
			}
			if cutoff != nil && !m.CreatedAt.After(*cutoff) {
				continue
			}
			// A completed payment reduces the payer's debt and the
			// receiver's credit in the running total.
			if m.From != nil {
				add(*m.From, m.Amount)
			}
			if m.To != nil {
				add(*m.To, m.Amount.Neg())
			}
		}
	}

	return balances
}

func skipEvent(date time.Time, cutoff *time.Time) bool {
	return cutoff != nil && date.Before(*cutoff)
}
