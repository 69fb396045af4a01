package group

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateGroupRequest represents the request to create a group.
type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description,omitempty"`
	Currency    string  `json:"currency" validate:"required,len=3"`
}

// UpdateGroupRequest represents a partial group update.
type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty"`
	Currency    *string `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// CreateWeightTypeRequest represents the request to add a weighting scheme.
type CreateWeightTypeRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

// CreateMemberRequest represents the request to add a member to a group.
// Weights maps weight type name to weight; omitted types default to 1.
type CreateMemberRequest struct {
	Name       string                     `json:"name" validate:"required,max=120"`
	ActiveFrom *time.Time                 `json:"active_from,omitempty"`
	ActiveTo   *time.Time                 `json:"active_to,omitempty"`
	Weights    map[string]decimal.Decimal `json:"weights,omitempty"`
}

// UpdateMemberRequest represents a partial member update.
type UpdateMemberRequest struct {
	Name       *string                    `json:"name,omitempty" validate:"omitempty,max=120"`
	ActiveFrom *time.Time                 `json:"active_from,omitempty"`
	ActiveTo   *time.Time                 `json:"active_to,omitempty"`
	Weights    map[string]decimal.Decimal `json:"weights,omitempty"`
}

// CreateResourceRequest represents the request to add a metered resource.
type CreateResourceRequest struct {
	Name      string           `json:"name" validate:"required,max=120"`
	Unit      *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// UpdateResourceRequest represents a partial resource update.
type UpdateResourceRequest struct {
	Name      *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Unit      *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}
