package repository

import "github.com/shopspring/decimal"

// NUMERIC columns are selected with ::text casts and parsed here, keeping
// wei-scale integers exact end to end.
func parseNumeric(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
