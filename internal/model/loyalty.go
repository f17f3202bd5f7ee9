package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoyaltyAccount is one user's fungible point balance plus the allowance the
// user has granted the loyalty system to burn on their behalf.
type LoyaltyAccount struct {
	Address   string          `json:"address" db:"address"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	Allowance decimal.Decimal `json:"allowance" db:"allowance"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

type AwardPointsRequest struct {
	User     string          `json:"user" binding:"required"`
	WeiSpent decimal.Decimal `json:"wei_spent" binding:"required"`
}

type ApprovePointsRequest struct {
	Points decimal.Decimal `json:"points" binding:"required"`
}

type RedeemTicketRequest struct {
	User      string          `json:"user" binding:"required"`
	TicketWei decimal.Decimal `json:"ticket_wei" binding:"required"`
}

type RedeemQueueRequest struct {
	User   string          `json:"user" binding:"required"`
	Points decimal.Decimal `json:"points" binding:"required"`
}

type SetRateRequest struct {
	PointsPerEther decimal.Decimal `json:"points_per_ether" binding:"required"`
}

type SetSpenderRequest struct {
	Spender string `json:"spender" binding:"required"`
	Enabled bool   `json:"enabled"`
}

type RedemptionPreview struct {
	Address     string          `json:"address"`
	TicketWei   decimal.Decimal `json:"ticket_wei"`
	Points      decimal.Decimal `json:"points_applicable"`
	WeiDiscount decimal.Decimal `json:"wei_discount"`
	WeiDue      decimal.Decimal `json:"wei_due"`
}
