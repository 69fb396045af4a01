package notification

import "time"

// Notification is a message delivered to a group member about a
// settlement lifecycle event.
type Notification struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	MemberID  int64     `json:"member_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification kinds emitted by the settlement lifecycle.
const (
	KindSettlementCreated   = "settlement_created"
	KindSettlementCompleted = "settlement_completed"
)
