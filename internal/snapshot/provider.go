package snapshot

import (
	"context"
	"time"

	"github.com/phclaus/fairsplit/internal/balance"
	"github.com/phclaus/fairsplit/internal/consumption"
	"github.com/phclaus/fairsplit/internal/expense"
	"github.com/phclaus/fairsplit/internal/group"
	"github.com/phclaus/fairsplit/internal/settlement"
)

// Provider assembles the consistent in-memory view of a group's event
// history the balance engine computes over. It expands recurring expenses
// up to the given time; the engine itself never touches storage.
type Provider struct {
	groups       *group.Repository
	expenses     *expense.Repository
	consumptions *consumption.Repository
	settlements  *settlement.Repository
}

// NewProvider creates a new snapshot provider.
func NewProvider(
	groups *group.Repository,
	expenses *expense.Repository,
	consumptions *consumption.Repository,
	settlements *settlement.Repository,
) *Provider {
	return &Provider{
		groups:       groups,
		expenses:     expenses,
		consumptions: consumptions,
		settlements:  settlements,
	}
}

// Snapshot loads the group's members, resources, expenses, consumptions and
// settlements and converts them to the engine's representation.
func (p *Provider) Snapshot(ctx context.Context, groupID int64, now time.Time) (balance.Snapshot, error) {
	var snap balance.Snapshot

	members, err := p.groups.ListMembers(ctx, groupID)
	if err != nil {
		return snap, err
	}
	for _, m := range members {
		snap.Members = append(snap.Members, balance.Member{ID: m.ID, Weights: m.Weights})
	}

	resources, err := p.groups.ListResources(ctx, groupID)
	if err != nil {
		return snap, err
	}
	for _, r := range resources {
		snap.Resources = append(snap.Resources, balance.Resource{ID: r.ID, UnitPrice: r.UnitPrice})
	}

	expenses, err := p.expenses.ListByGroup(ctx, groupID)
	if err != nil {
		return snap, err
	}
	for _, e := range expenses {
		snap.Expenses = append(snap.Expenses, expense.Instances(e, members, now)...)
	}

	consumptions, err := p.consumptions.ListByGroup(ctx, groupID)
	if err != nil {
		return snap, err
	}
	for _, c := range consumptions {
		snap.Consumptions = append(snap.Consumptions, balance.Consumption{
			ResourceID:   c.ResourceID,
			Amount:       c.Amount,
			IsUnitAmount: c.IsUnitAmount,
			Date:         c.Date,
			Shares:       consumption.EngineShares(c.Shares),
		})
	}

	settlements, err := p.settlements.ListByGroup(ctx, groupID)
	if err != nil {
		return snap, err
	}
	snap.Settlements = settlement.EngineSettlements(settlements)

	return snap, nil
}
