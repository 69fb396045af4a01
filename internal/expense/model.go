package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/phclaus/fairsplit/internal/balance"
)

// RecurrenceUnit is the step unit of a recurring expense.
type RecurrenceUnit string

const (
	RecurrenceWeekly  RecurrenceUnit = "WEEKLY"
	RecurrenceMonthly RecurrenceUnit = "MONTHLY"
)

// Expense represents a group expense paid by one member and shared among
// others.
type Expense struct {
	ID          int64           `json:"id"`
	GroupID     int64           `json:"group_id"`
	PayerID     int64           `json:"payer_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`

	// SplitAll expenses are shared by every member active at the expense
	// date; their shares are re-redistributed when membership changes.
	SplitAll bool `json:"split_all"`

	// SharingMethod is "equal" or the name of a group weight type.
	SharingMethod string `json:"sharing_method"`

	RecurrenceUnit     *RecurrenceUnit `json:"recurrence_unit,omitempty"`
	RecurrenceInterval *int            `json:"recurrence_interval,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Shares []*Share `json:"shares,omitempty"`
}

// Recurring reports whether the expense repeats.
func (e *Expense) Recurring() bool {
	return e.RecurrenceUnit != nil
}

// Share is one member's portion of an expense. A manually edited share is
// pinned: redistribution never alters it.
type Share struct {
	ID             int64            `json:"id"`
	ExpenseID      int64            `json:"expense_id"`
	MemberID       int64            `json:"member_id"`
	Amount         decimal.Decimal  `json:"amount"`
	Weight         *decimal.Decimal `json:"weight,omitempty"`
	ManuallyEdited bool             `json:"manually_edited"`
}

// EngineShares converts stored shares to engine shares.
func EngineShares(shares []*Share) []balance.Share {
	out := make([]balance.Share, len(shares))
	for i, s := range shares {
		out[i] = balance.Share{
			MemberID:       s.MemberID,
			Amount:         s.Amount,
			Weight:         s.Weight,
			ManuallyEdited: s.ManuallyEdited,
		}
	}
	return out
}
