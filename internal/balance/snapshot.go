package balance

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberStatus is the state of a single settlement transaction.
type MemberStatus string

const (
	StatusOpen      MemberStatus = "OPEN"
	StatusCompleted MemberStatus = "COMPLETED"
)

// Member is the engine's view of a group member.
type Member struct {
	ID      int64
	Weights map[string]decimal.Decimal
}

// Resource is the engine's view of a metered resource. UnitPrice is set when
// consumptions may be recorded in raw units.
type Resource struct {
	ID        int64
	UnitPrice *decimal.Decimal
}

// ExpenseInstance is a single resolved expense occurrence: either a stored
// expense or one generated from a recurrence descriptor. Shares are already
// redistributed for the instance's effective member set; the aggregator never
// expands recurrence or recomputes shares itself.
type ExpenseInstance struct {
	PayerID int64
	Amount  decimal.Decimal
	Date    time.Time
	Shares  []Share
}

// Consumption is a metered draw against a resource. When IsUnitAmount is set
// the amount is in raw units and is priced via the resource's unit price.
type Consumption struct {
	ResourceID   int64
	Amount       decimal.Decimal
	IsUnitAmount bool
	Date         time.Time
	Shares       []Share
}

// SettlementMember is one transaction inside a settlement batch. Either side
// may be absent for one-legged corrections.
type SettlementMember struct {
	From      *EntityKey
	To        *EntityKey
	Amount    decimal.Decimal
	Status    MemberStatus
	CreatedAt time.Time
}

// Settlement is a batch of settlement transactions.
type Settlement struct {
	ID        int64
	CreatedAt time.Time
	Members   []SettlementMember
}

// Completed reports the derived batch status: completed iff every member
// transaction is completed. An empty batch is not considered completed.
func (s Settlement) Completed() bool {
	if len(s.Members) == 0 {
		return false
	}
	for _, m := range s.Members {
		if m.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// Snapshot is the consistent in-memory view of a group's event history the
// engine computes over. It is assembled by the caller per invocation; the
// engine holds no state between calls.
type Snapshot struct {
	Members      []Member
	Resources    []Resource
	Expenses     []ExpenseInstance
	Consumptions []Consumption
	Settlements  []Settlement
}
