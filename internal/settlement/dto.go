package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/phclaus/fairsplit/internal/balance"
)

// PlanRequest selects a settlement strategy. The star strategies require
// the center entity of the matching kind.
type PlanRequest struct {
	Strategy string `json:"strategy" validate:"required,oneof=optimized around_member around_resource"`
	CenterID *int64 `json:"center_id,omitempty" validate:"omitempty,min=1"`
}

// BalanceEntry is one entity's net balance for display, keyed stably as
// "member_<id>" / "resource_<id>".
type BalanceEntry struct {
	Entity  string            `json:"entity"`
	Key     balance.EntityKey `json:"key"`
	Balance decimal.Decimal   `json:"balance"`
}

// PlanResponse is a computed transaction list that has not been persisted.
// An empty list means there is nothing to settle.
type PlanResponse struct {
	Strategy     string                `json:"strategy"`
	Transactions []balance.Transaction `json:"transactions"`
}
