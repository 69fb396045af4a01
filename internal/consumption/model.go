package consumption

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/phclaus/fairsplit/internal/balance"
)

// Consumption is a metered draw against a group resource. When IsUnitAmount
// is set the amount is in the resource's raw unit and is priced via the
// resource's unit price; otherwise the amount is already in currency.
type Consumption struct {
	ID           int64           `json:"id"`
	GroupID      int64           `json:"group_id"`
	ResourceID   int64           `json:"resource_id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	IsUnitAmount bool            `json:"is_unit_amount"`
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"created_at"`

	Shares []*Share `json:"shares,omitempty"`
}

// Share is one member's portion of a consumption's cost.
type Share struct {
	ID             int64           `json:"id"`
	ConsumptionID  int64           `json:"consumption_id"`
	MemberID       int64           `json:"member_id"`
	Amount         decimal.Decimal `json:"amount"`
	ManuallyEdited bool            `json:"manually_edited"`
}

// EngineShares converts stored shares to engine shares.
func EngineShares(shares []*Share) []balance.Share {
	out := make([]balance.Share, len(shares))
	for i, s := range shares {
		out[i] = balance.Share{
			MemberID:       s.MemberID,
			Amount:         s.Amount,
			ManuallyEdited: s.ManuallyEdited,
		}
	}
	return out
}
