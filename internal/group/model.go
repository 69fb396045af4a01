package group

import (
	"time"

	"github.com/shopspring/decimal"
)

// Group is a circle of members sharing expenses and metered resources.
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

// WeightType is a named weighting scheme for a group (e.g. "persons",
// "rooms"). An expense's sharing method references a weight type by name.
type WeightType struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a participant of a group. Members carry one weight per weight
// type and an activity interval bounding when they take part in splits.
type Member struct {
	ID         int64      `json:"id"`
	GroupID    int64      `json:"group_id"`
	Name       string     `json:"name"`
	ActiveFrom time.Time  `json:"active_from"`
	ActiveTo   *time.Time `json:"active_to,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	// Weights maps weight type name to the member's weight, populated
	// from the member_weights join.
	Weights map[string]decimal.Decimal `json:"weights,omitempty"`
}

// ActiveAt reports whether the member takes part in splits at the given
// date.
func (m *Member) ActiveAt(t time.Time) bool {
	if t.Before(m.ActiveFrom) {
		return false
	}
	if m.ActiveTo != nil && t.After(*m.ActiveTo) {
		return false
	}
	return true
}

// Resource is a metered, balance-bearing asset of a group (a shared car, a
// utility meter). Consumptions recorded in raw units are priced via
// UnitPrice.
type Resource struct {
	ID        int64            `json:"id"`
	GroupID   int64            `json:"group_id"`
	Name      string           `json:"name"`
	Unit      *string          `json:"unit,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
