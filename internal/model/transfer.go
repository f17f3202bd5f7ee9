package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferKind string

const (
	TransferSaleProceeds  TransferKind = "sale_proceeds"
	TransferRoyalty       TransferKind = "royalty"
	TransferSwapFee       TransferKind = "swap_fee"
	TransferFeeWithdrawal TransferKind = "fee_withdrawal"
)

// Transfer is one row of the monetary ledger. Rows are written in the same
// transaction as the state change they settle; the actual money movement is
// the payment provider's concern.
type Transfer struct {
	ID        int64           `json:"id" db:"id"`
	Kind      TransferKind    `json:"kind" db:"kind"`
	FromAddr  string          `json:"from" db:"from_addr"`
	ToAddr    string          `json:"to" db:"to_addr"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Reference string          `json:"reference" db:"reference"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
