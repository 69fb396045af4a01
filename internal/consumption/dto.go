package consumption

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShareInput describes one participant of a consumption. A manually edited
// input pins the given amount.
type ShareInput struct {
	MemberID       int64            `json:"member_id" validate:"required,min=1"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	ManuallyEdited bool             `json:"manually_edited"`
}

// CreateConsumptionRequest represents the request to record a consumption.
// Shares may be omitted; every member active at the date then participates
// with an equal split of the cost.
type CreateConsumptionRequest struct {
	ResourceID   int64           `json:"resource_id" validate:"required,min=1"`
	Description  string          `json:"description" validate:"max=240"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	IsUnitAmount bool            `json:"is_unit_amount"`
	Date         time.Time       `json:"date" validate:"required"`
	Shares       []ShareInput    `json:"shares,omitempty" validate:"dive"`
}

// UpdateConsumptionRequest represents a revision of a consumption.
type UpdateConsumptionRequest struct {
	Description  *string          `json:"description,omitempty" validate:"omitempty,max=240"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	IsUnitAmount *bool            `json:"is_unit_amount,omitempty"`
	Date         *time.Time       `json:"date,omitempty"`
	Shares       []ShareInput     `json:"shares,omitempty" validate:"dive"`
}

// ConsumptionResponse is a consumption plus its resolved currency cost and
// the redistribution difference left when every share is pinned.
type ConsumptionResponse struct {
	*Consumption
	TotalCost  decimal.Decimal `json:"total_cost"`
	Difference decimal.Decimal `json:"difference"`
}
