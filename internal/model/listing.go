package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a resale offer keyed by ticket id; at most one active listing
// per ticket. While active the market holds the ticket in escrow.
type Listing struct {
	TicketID  int64           `json:"ticket_id" db:"ticket_id"`
	Seller    string          `json:"seller" db:"seller"`
	Price     decimal.Decimal `json:"price" db:"price"`
	EventID   int64           `json:"event_id" db:"event_id"`
	Active    bool            `json:"active" db:"active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

type ListTicketRequest struct {
	TicketID int64           `json:"ticket_id" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
}

type BuyListingRequest struct {
	Payment decimal.Decimal `json:"payment"`
}

type ResaleResult struct {
	TicketID     int64           `json:"ticket_id"`
	Seller       string          `json:"seller"`
	Buyer        string          `json:"buyer"`
	Price        decimal.Decimal `json:"price"`
	Royalty      decimal.Decimal `json:"royalty"`
	SellerAmount decimal.Decimal `json:"seller_amount"`
}
