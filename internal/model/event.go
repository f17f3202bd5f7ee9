package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a sellable occasion. Multi-day events decompose into sub-events,
// one per day; the parent's supply is the sum of the per-day supplies and its
// venue/date fields are unused.
type Event struct {
	ID           int64           `json:"id" db:"id"`
	Organiser    string          `json:"organiser" db:"organiser"`
	Name         string          `json:"name" db:"name"`
	Venue        string          `json:"venue" db:"venue"`
	Date         int64           `json:"date" db:"date"`
	TicketPrice  decimal.Decimal `json:"ticket_price" db:"ticket_price"`
	TotalTickets int             `json:"total_tickets" db:"total_tickets"`
	TicketsSold  int             `json:"tickets_sold" db:"tickets_sold"`
	Active       bool            `json:"active" db:"active"`
	IsMultiDay   bool            `json:"is_multi_day" db:"is_multi_day"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`

	SubEvents []*SubEvent `json:"sub_events,omitempty" db:"-"`
}

// Ended reports whether the event date has passed.
func (e *Event) Ended(now time.Time) bool {
	return now.Unix() >= e.Date
}

// SubEvent is one day of a multi-day event. Ids are drawn from the same
// sequence as event ids, so a ticket reference resolves unambiguously.
type SubEvent struct {
	ID           int64     `json:"id" db:"id"`
	EventID      int64     `json:"event_id" db:"event_id"`
	DayIndex     int       `json:"day_index" db:"day_index"`
	Venue        string    `json:"venue" db:"venue"`
	Date         int64     `json:"date" db:"date"`
	TotalTickets int       `json:"total_tickets" db:"total_tickets"`
	TicketsSold  int       `json:"tickets_sold" db:"tickets_sold"`
	Swappable    bool      `json:"swappable" db:"swappable"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DayInput is one day of a multi-day creation request. A structured record
// rather than parallel arrays, so per-day fields cannot disagree in length.
type DayInput struct {
	Date         int64  `json:"date" binding:"required"`
	Venue        string `json:"venue" binding:"required"`
	TotalTickets int    `json:"total_tickets" binding:"required,min=1"`
	Swappable    bool   `json:"swappable"`
}

type CreateEventRequest struct {
	Name         string          `json:"name" binding:"required"`
	Venue        string          `json:"venue" binding:"required"`
	Date         int64           `json:"date" binding:"required"`
	TicketPrice  decimal.Decimal `json:"ticket_price" binding:"required"`
	TotalTickets int             `json:"total_tickets" binding:"required,min=1"`
}

type CreateMultiDayEventRequest struct {
	Name        string          `json:"name" binding:"required"`
	TicketPrice decimal.Decimal `json:"ticket_price" binding:"required"`
	Days        []DayInput      `json:"days" binding:"required,dive"`
}

type BuyTicketsRequest struct {
	Quantity     int             `json:"quantity" binding:"required"`
	Payment      decimal.Decimal `json:"payment"`
	RedeemPoints bool            `json:"redeem_points"`
}

type BuyTicketsForRequest struct {
	Quantity     int             `json:"quantity" binding:"required"`
	Payment      decimal.Decimal `json:"payment"`
	Beneficiary  string          `json:"beneficiary" binding:"required"`
	RedeemPoints bool            `json:"redeem_points"`
}

type PurchaseResult struct {
	EventID    int64           `json:"event_id"`
	SubEventID *int64          `json:"sub_event_id,omitempty"`
	Buyer      string          `json:"buyer"`
	Quantity   int             `json:"quantity"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	Discount   decimal.Decimal `json:"discount"`
	Points     decimal.Decimal `json:"points_awarded"`
	PointsUsed decimal.Decimal `json:"points_redeemed"`
	TicketIDs  []int64         `json:"ticket_ids"`
}

type SwapTicketsRequest struct {
	Ticket1 int64  `json:"ticket_1" binding:"required"`
	Ticket2 int64  `json:"ticket_2" binding:"required"`
	Owner1  string `json:"owner_1" binding:"required"`
	Owner2  string `json:"owner_2" binding:"required"`
}
