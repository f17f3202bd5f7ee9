package model

import "time"

// Ticket is a uniquely identified right of admission bound to one event or
// sub-event. Owner is the beneficial owner; Holder tracks custody and moves
// to the market address while the ticket sits in resale escrow.
type Ticket struct {
	ID         int64     `json:"id" db:"id"`
	EventID    int64     `json:"event_id" db:"event_id"`
	SubEventID *int64    `json:"sub_event_id,omitempty" db:"sub_event_id"`
	Owner      string    `json:"owner" db:"owner"`
	Holder     string    `json:"holder" db:"holder"`
	Used       bool      `json:"used" db:"used"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// InEscrow reports whether custody has been transferred away from the owner.
func (t *Ticket) InEscrow() bool {
	return t.Holder != t.Owner
}

type SetApprovalRequest struct {
	Operator string `json:"operator" binding:"required"`
	Approved bool   `json:"approved"`
}
