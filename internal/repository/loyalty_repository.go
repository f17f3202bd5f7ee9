package repository

import (
	"context"
	"ticketchain/internal/model"
	apperrors "ticketchain/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type LoyaltyRepository interface {
	GetAccount(ctx context.Context, address string) (*model.LoyaltyAccount, error)
	SetAllowance(ctx context.Context, address string, points decimal.Decimal) error
	IsSpender(ctx context.Context, address string) (bool, error)
	SetSpender(ctx context.Context, address string, enabled bool) error

	// Transaction methods
	GetAccountWithLock(ctx context.Context, tx pgx.Tx, address string) (*model.LoyaltyAccount, error)
	Credit(ctx context.Context, tx pgx.Tx, address string, points decimal.Decimal) error
	Debit(ctx context.Context, tx pgx.Tx, address string, points decimal.Decimal) error
	ConsumeAllowance(ctx context.Context, tx pgx.Tx, address string, points decimal.Decimal) error
}

type LoyaltyRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewLoyaltyRepository(pool *pgxpool.Pool) LoyaltyRepository {
	return &LoyaltyRepositoryImpl{
		pool: pool,
	}
}

const loyaltyColumns = `
	address, balance::text, allowance::text, created_at, updated_at
`

func scanLoyaltyAccount(row pgx.Row) (*model.LoyaltyAccount, error) {
	var account model.LoyaltyAccount
	var balance, allowance string
	err := row.Scan(
		&account.Address,
		&balance,
		&allowance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if account.Balance, err = parseNumeric(balance); err != nil {
		return nil, err
	}
	if account.Allowance, err = parseNumeric(allowance); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccount returns a zero-balance account for unseen addresses; every
// address implicitly has a loyalty account.
func (r *LoyaltyRepositoryImpl) GetAccount(ctx context.Context, address string) (*model.LoyaltyAccount, error) {
	query := `
		SELECT ` + loyaltyColumns + `
		FROM loyalty_accounts
		WHERE address = $1
	`

	account, err := scanLoyaltyAccount(r.pool.QueryRow(ctx, query, address))
	if err != nil {
		if err == pgx.ErrNoRows {
			return &model.LoyaltyAccount{
				Address:   address,
				Balance:   decimal.Zero,
				Allowance: decimal.Zero,
			}, nil
		}
		return nil, err
	}
	return account, nil
}

func (r *LoyaltyRepositoryImpl) GetAccountWithLock(ctx context.Context, tx pgx.Tx, address string) (*model.LoyaltyAccount, error) {
	// Upsert first so there is always a row to lock.
	ensure := `
		INSERT INTO loyalty_accounts (address)
		VALUES ($1)
		ON CONFLICT (address) DO NOTHING
	`
	if _, err := tx.Exec(ctx, ensure, address); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + loyaltyColumns + `
		FROM loyalty_accounts
		WHERE address = $1
		FOR UPDATE
	`
	return scanLoyaltyAccount(tx.QueryRow(ctx, query, address))
}

func (r *LoyaltyRepositoryImpl) Credit(ctx context.Context, tx pgx.Tx, address string, points decimal.Decimal) error {
	query := `
		INSERT INTO loyalty_accounts (address, balance)
		VALUES ($1, $2::numeric)
		ON CONFLICT (address)
		DO UPDATE SET balance = loyalty_accounts.balance + $2::numeric, updated_at = now()
	`

	_, err := tx.Exec(ctx, query, address, points.String())
	return err
}

func (r *LoyaltyRepositoryImpl) Debit(ctx context.Context, tx pgx.Tx, address string, points decimal.Decimal) error {
	query := `
		UPDATE loyalty_accounts
		SET balance = balance - $1::numeric, updated_at = now()
		WHERE address = $2 AND balance >= $1::numeric
	`

	result, err := tx.Exec(ctx, query, points.String(), address)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInsufficientBalance
	}

	return nil
}

func (r *LoyaltyRepositoryImpl) SetAllowance(ctx context.Context, address string, points decimal.Decimal) error {
	query := `
		INSERT INTO loyalty_accounts (address, allowance)
		VALUES ($1, $2::numeric)
		ON CONFLICT (address)
		DO UPDATE SET allowance = $2::numeric, updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query, address, points.String())
	return err
}

func (r *LoyaltyRepositoryImpl) ConsumeAllowance(ctx context.Context, tx pgx.Tx, address string, points decimal.Decimal) error {
	query := `
		UPDATE loyalty_accounts
		SET allowance = allowance - $1::numeric, updated_at = now()
		WHERE address = $2 AND allowance >= $1::numeric
	`

	result, err := tx.Exec(ctx, query, points.String(), address)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInsufficientAllowance
	}

	return nil
}

func (r *LoyaltyRepositoryImpl) IsSpender(ctx context.Context, address string) (bool, error) {
	query := `
		SELECT enabled
		FROM loyalty_spenders
		WHERE address = $1
	`

	var enabled bool
	err := r.pool.QueryRow(ctx, query, address).Scan(&enabled)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return enabled, nil
}

func (r *LoyaltyRepositoryImpl) SetSpender(ctx context.Context, address string, enabled bool) error {
	query := `
		INSERT INTO loyalty_spenders (address, enabled)
		VALUES ($1, $2)
		ON CONFLICT (address)
		DO UPDATE SET enabled = $2, updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query, address, enabled)
	return err
}
