package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapOffer is a ticket-for-ticket exchange proposed by the maker. Maker
// ownership is re-validated at acceptance time, never trusted from creation.
type SwapOffer struct {
	ID              int64     `json:"id" db:"id"`
	Maker           string    `json:"maker" db:"maker"`
	MakerTicketID   int64     `json:"maker_ticket_id" db:"maker_ticket_id"`
	DesiredTicketID int64     `json:"desired_ticket_id" db:"desired_ticket_id"`
	Taker           *string   `json:"taker,omitempty" db:"taker"`
	Active          bool      `json:"active" db:"active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type CreateOfferRequest struct {
	MakerTicketID   int64 `json:"maker_ticket_id" binding:"required"`
	DesiredTicketID int64 `json:"desired_ticket_id" binding:"required"`
}

type AcceptOfferRequest struct {
	Fee decimal.Decimal `json:"fee"`
}
