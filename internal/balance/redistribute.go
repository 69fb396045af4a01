package balance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Share is one participant's portion of an event's amount.
type Share struct {
	MemberID       int64
	Amount         decimal.Decimal
	Weight         *decimal.Decimal
	ManuallyEdited bool
}

// Participant is a member eligible for a share, with its per-weight-type
// weights keyed by weight type.
type Participant struct {
	ID      int64
	Weights map[string]decimal.Decimal
}

// Redistribution is the result of recomputing shares for an event.
// Difference is the part of the total no share absorbs; it is non-zero only
// when every participant is pinned and the pins do not sum to the total.
// Callers surface it for display, it is not an error.
type Redistribution struct {
	Shares     []Share
	Difference decimal.Decimal
}

// Redistribute computes per-participant amounts for a total such that pinned
// (manually edited) prior shares are preserved exactly and the remainder is
// distributed proportionally to weight among the unpinned participants.
//
// Prior shares of participants no longer present are dropped; participants
// without a prior share enter unpinned with a weight resolved from the
// sharing method. A stored per-share weight takes precedence over the
// method-derived one. When the unpinned weights sum to zero the remainder is
// split equally instead. A negative remainder (pins exceeding the total)
// yields negative unpinned shares and is passed through for the caller to
// flag.
//
// Output shares are ordered by member id and amounts are rounded to two
// decimal places, with the last unpinned share absorbing the rounding
// residue so the shares always sum to the total exactly.
func Redistribute(total decimal.Decimal, participants []Participant, prior []Share, method SharingMethod) Redistribution {
	ordered := make([]Participant, len(participants))
	copy(ordered, participants)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	priorByID := make(map[int64]Share, len(prior))
	for _, s := range prior {
		priorByID[s.MemberID] = s
	}

	pinnedSum := decimal.Zero
	var unpinned []int // indexes into ordered
	shares := make([]Share, len(ordered))
	for i, p := range ordered {
		if ps, ok := priorByID[p.ID]; ok && ps.ManuallyEdited {
			shares[i] = ps
			pinnedSum = pinnedSum.Add(ps.Amount)
			continue
		}
		w := resolveWeight(priorByID, p, method)
		shares[i] = Share{MemberID: p.ID, Weight: &w}
		unpinned = append(unpinned, i)
	}

	remainder := total.Sub(pinnedSum)
	if len(unpinned) == 0 {
		// Manual edits win; the total may legitimately not reconcile.
		return Redistribution{Shares: shares, Difference: remainder}
	}

	totalWeight := decimal.Zero
	for _, i := range unpinned {
		totalWeight = totalWeight.Add(*shares[i].Weight)
	}

	assigned := decimal.Zero
	count := decimal.NewFromInt(int64(len(unpinned)))
	for n, i := range unpinned {
		if n == len(unpinned)-1 {
			// Last unpinned share absorbs the rounding residue.
			shares[i].Amount = remainder.Sub(assigned)
			break
		}
		var amt decimal.Decimal
		if totalWeight.IsZero() {
			amt = remainder.DivRound(count, 2)
		} else {
			amt = remainder.Mul(*shares[i].Weight).DivRound(totalWeight, 2)
		}
		shares[i].Amount = amt
		assigned = assigned.Add(amt)
	}

	return Redistribution{Shares: shares, Difference: decimal.Zero}
}

// resolveWeight prefers the weight stored on the prior share, falling back to
// the participant's weight for the sharing method.
func resolveWeight(priorByID map[int64]Share, p Participant, method SharingMethod) decimal.Decimal {
	if ps, ok := priorByID[p.ID]; ok && ps.Weight != nil {
		return *ps.Weight
	}
	return WeightOf(p.Weights, method)
}
