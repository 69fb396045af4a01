package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShareInput describes one participant when creating or updating an
// expense. A manually edited input pins the given amount; otherwise the
// amount is computed and any given amount ignored.
type ShareInput struct {
	MemberID       int64            `json:"member_id" validate:"required,min=1"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Weight         *decimal.Decimal `json:"weight,omitempty"`
	ManuallyEdited bool             `json:"manually_edited"`
}

// CreateExpenseRequest represents the request to create an expense. Shares
// may be omitted for split-all expenses; the active member set is used.
type CreateExpenseRequest struct {
	PayerID            int64           `json:"payer_id" validate:"required,min=1"`
	Description        string          `json:"description" validate:"required,max=240"`
	Amount             decimal.Decimal `json:"amount" validate:"required"`
	Date               time.Time       `json:"date" validate:"required"`
	SplitAll           bool            `json:"split_all"`
	SharingMethod      string          `json:"sharing_method"`
	RecurrenceUnit     *RecurrenceUnit `json:"recurrence_unit,omitempty" validate:"omitempty,oneof=WEEKLY MONTHLY"`
	RecurrenceInterval *int            `json:"recurrence_interval,omitempty" validate:"omitempty,min=1"`
	Shares             []ShareInput    `json:"shares,omitempty" validate:"dive"`
}

// UpdateExpenseRequest represents a full revision of an expense. Shares
// follow the same pinning rules as creation; prior pinned amounts survive
// only if resubmitted as manually edited.
type UpdateExpenseRequest struct {
	PayerID            *int64           `json:"payer_id,omitempty" validate:"omitempty,min=1"`
	Description        *string          `json:"description,omitempty" validate:"omitempty,max=240"`
	Amount             *decimal.Decimal `json:"amount,omitempty"`
	Date               *time.Time       `json:"date,omitempty"`
	SplitAll           *bool            `json:"split_all,omitempty"`
	SharingMethod      *string          `json:"sharing_method,omitempty"`
	RecurrenceUnit     *RecurrenceUnit  `json:"recurrence_unit,omitempty" validate:"omitempty,oneof=WEEKLY MONTHLY"`
	RecurrenceInterval *int             `json:"recurrence_interval,omitempty" validate:"omitempty,min=1"`
	Shares             []ShareInput     `json:"shares,omitempty" validate:"dive"`
}

// ExpenseResponse is an expense plus the redistribution difference: the part
// of the total not covered by shares when every share is pinned. The UI
// flags a non-zero difference, it is not an error.
type ExpenseResponse struct {
	*Expense
	Difference decimal.Decimal `json:"difference"`
}
