package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phclaus/fairsplit/internal/balance"
)

// MemberStatus is the state of a single settlement transaction.
type MemberStatus string

const (
	MemberStatusOpen      MemberStatus = "OPEN"
	MemberStatusCompleted MemberStatus = "COMPLETED"
)

// Settlement is a batch of planned payment transactions for a group,
// produced by the settlement planner and settled member by member.
type Settlement struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	Reference uuid.UUID `json:"reference"`
	Strategy  string    `json:"strategy"`
	CreatedAt time.Time `json:"created_at"`

	Members []*Member `json:"members,omitempty"`
}

// Status derives the batch status: completed iff every member transaction
// is completed. It is never stored.
func (s *Settlement) Status() MemberStatus {
	if len(s.Members) == 0 {
		return MemberStatusOpen
	}
	for _, m := range s.Members {
		if m.Status != MemberStatusCompleted {
			return MemberStatusOpen
		}
	}
	return MemberStatusCompleted
}

// Member is one transaction inside a settlement batch. Either side may be
// absent for one-legged corrections.
type Member struct {
	ID           int64              `json:"id"`
	SettlementID int64              `json:"settlement_id"`
	From         *balance.EntityKey `json:"from,omitempty"`
	To           *balance.EntityKey `json:"to,omitempty"`
	Amount       decimal.Decimal    `json:"amount"`
	Status       MemberStatus       `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
}

// EngineSettlements converts stored settlements to the engine's snapshot
// representation.
func EngineSettlements(settlements []*Settlement) []balance.Settlement {
	out := make([]balance.Settlement, len(settlements))
	for i, s := range settlements {
		es := balance.Settlement{ID: s.ID, CreatedAt: s.CreatedAt}
		for _, m := range s.Members {
			status := balance.StatusOpen
			if m.Status == MemberStatusCompleted {
				status = balance.StatusCompleted
			}
			es.Members = append(es.Members, balance.SettlementMember{
				From:      m.From,
				To:        m.To,
				Amount:    m.Amount,
				Status:    status,
				CreatedAt: m.CreatedAt,
			})
		}
		out[i] = es
	}
	return out
}
