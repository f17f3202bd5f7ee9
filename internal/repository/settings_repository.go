package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Well-known settings keys.
const (
	SettingResaleCapBps   = "resale_cap_bps"
	SettingRoyaltyBps     = "royalty_bps"
	SettingPointsPerEther = "points_per_ether"
	SettingSwapFeeBalance = "swap_fee_balance"
)

type SettingsRepository interface {
	GetDecimal(ctx context.Context, key string) (decimal.Decimal, error)
	Set(ctx context.Context, key, value string) error
	SetDefault(ctx context.Context, key, value string) error

	// Transaction methods
	AddToBalance(ctx context.Context, tx pgx.Tx, key string, amount decimal.Decimal) error
	TakeBalance(ctx context.Context, tx pgx.Tx, key string) (decimal.Decimal, error)
}

type SettingsRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &SettingsRepositoryImpl{
		pool: pool,
	}
}

func (r *SettingsRepositoryImpl) GetDecimal(ctx context.Context, key string) (decimal.Decimal, error) {
	query := `
		SELECT value
		FROM platform_settings
		WHERE key = $1
	`

	var value string
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return parseNumeric(value)
}

func (r *SettingsRepositoryImpl) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO platform_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = $2, updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query, key, value)
	return err
}

// SetDefault seeds a key only if absent, used at startup to install the
// configured economics without clobbering admin changes.
func (r *SettingsRepositoryImpl) SetDefault(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO platform_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, key, value)
	return err
}

func (r *SettingsRepositoryImpl) AddToBalance(ctx context.Context, tx pgx.Tx, key string, amount decimal.Decimal) error {
	query := `
		INSERT INTO platform_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = (platform_settings.value::numeric + $2::numeric)::text, updated_at = now()
	`

	_, err := tx.Exec(ctx, query, key, amount.String())
	return err
}

func (r *SettingsRepositoryImpl) TakeBalance(ctx context.Context, tx pgx.Tx, key string) (decimal.Decimal, error) {
	query := `
		SELECT value
		FROM platform_settings
		WHERE key = $1
		FOR UPDATE
	`

	var value string
	err := tx.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	zero := `
		UPDATE platform_settings
		SET value = '0', updated_at = now()
		WHERE key = $1
	`
	if _, err := tx.Exec(ctx, zero, key); err != nil {
		return decimal.Zero, err
	}

	return parseNumeric(value)
}
