package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// QueueEntry is one user waiting for purchase admission. Ordering is by
// staked points descending, join order breaking ties.
type QueueEntry struct {
	Address  string          `json:"address"`
	Stake    decimal.Decimal `json:"stake"`
	JoinedAt time.Time       `json:"joined_at"`
}

type JoinQueueRequest struct {
	Points decimal.Decimal `json:"points"`
}

type QueuePosition struct {
	Address     string `json:"address"`
	Position    int    `json:"position"`
	CanPurchase bool   `json:"can_purchase"`
}

type QueueStats struct {
	Waiting int `json:"waiting"`
	Active  int `json:"active"`
	Window  int `json:"window"`
}

// PurchaseOrder is an admitted purchase carried on the oracle stream and
// fulfilled by the worker via buy-on-behalf.
type PurchaseOrder struct {
	RequestID    string          `json:"request_id"`
	EventID      int64           `json:"event_id"`
	Beneficiary  string          `json:"beneficiary"`
	Quantity     int             `json:"quantity"`
	Payment      decimal.Decimal `json:"payment"`
	RedeemPoints bool            `json:"redeem_points"`
}
