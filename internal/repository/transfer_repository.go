package repository

import (
	"context"
	"ticketchain/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransferRepository interface {
	ListByAddress(ctx context.Context, address string) ([]*model.Transfer, error)

	// Transaction methods
	Record(ctx context.Context, tx pgx.Tx, transfer *model.Transfer) error
}

type TransferRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTransferRepository(pool *pgxpool.Pool) TransferRepository {
	return &TransferRepositoryImpl{
		pool: pool,
	}
}

func (r *TransferRepositoryImpl) Record(ctx context.Context, tx pgx.Tx, transfer *model.Transfer) error {
	query := `
		INSERT INTO transfers (kind, from_addr, to_addr, amount, reference)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING id, created_at
	`

	return tx.QueryRow(ctx, query,
		transfer.Kind, transfer.FromAddr, transfer.ToAddr,
		transfer.Amount.String(), transfer.Reference,
	).Scan(&transfer.ID, &transfer.CreatedAt)
}

func (r *TransferRepositoryImpl) ListByAddress(ctx context.Context, address string) ([]*model.Transfer, error) {
	query := `
		SELECT id, kind, from_addr, to_addr, amount::text, reference, created_at
		FROM transfers
		WHERE from_addr = $1 OR to_addr = $1
		ORDER BY id DESC
	`

	rows, err := r.pool.Query(ctx, query, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers := make([]*model.Transfer, 0)
	for rows.Next() {
		var transfer model.Transfer
		var amount string
		err := rows.Scan(
			&transfer.ID,
			&transfer.Kind,
			&transfer.FromAddr,
			&transfer.ToAddr,
			&amount,
			&transfer.Reference,
			&transfer.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if transfer.Amount, err = parseNumeric(amount); err != nil {
			return nil, err
		}
		transfers = append(transfers, &transfer)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transfers, nil
}
