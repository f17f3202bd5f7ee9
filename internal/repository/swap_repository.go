package repository

import (
	"context"
	"ticketchain/internal/model"
	apperrors "ticketchain/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SwapOfferRepository interface {
	FindByID(ctx context.Context, id int64) (*model.SwapOffer, error)
	ListActive(ctx context.Context) ([]*model.SwapOffer, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, offer *model.SwapOffer) (*model.SwapOffer, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.SwapOffer, error)
	Complete(ctx context.Context, tx pgx.Tx, id int64, taker string) error
	Cancel(ctx context.Context, tx pgx.Tx, id int64) error
}

type SwapOfferRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSwapOfferRepository(pool *pgxpool.Pool) SwapOfferRepository {
	return &SwapOfferRepositoryImpl{
		pool: pool,
	}
}

const offerColumns = `
	id, maker, maker_ticket_id, desired_ticket_id, taker, active, created_at, updated_at
`

func scanOffer(row pgx.Row) (*model.SwapOffer, error) {
	var offer model.SwapOffer
	err := row.Scan(
		&offer.ID,
		&offer.Maker,
		&offer.MakerTicketID,
		&offer.DesiredTicketID,
		&offer.Taker,
		&offer.Active,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *SwapOfferRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, offer *model.SwapOffer) (*model.SwapOffer, error) {
	query := `
		INSERT INTO swap_offers (maker, maker_ticket_id, desired_ticket_id)
		VALUES ($1, $2, $3)
		RETURNING ` + offerColumns

	return scanOffer(tx.QueryRow(ctx, query, offer.Maker, offer.MakerTicketID, offer.DesiredTicketID))
}

func (r *SwapOfferRepositoryImpl) FindByID(ctx context.Context, id int64) (*model.SwapOffer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM swap_offers
		WHERE id = $1
	`
	return scanOffer(r.pool.QueryRow(ctx, query, id))
}

func (r *SwapOfferRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.SwapOffer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM swap_offers
		WHERE id = $1
		FOR UPDATE
	`
	return scanOffer(tx.QueryRow(ctx, query, id))
}

func (r *SwapOfferRepositoryImpl) ListActive(ctx context.Context) ([]*model.SwapOffer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM swap_offers
		WHERE active
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]*model.SwapOffer, 0)
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return offers, nil
}

func (r *SwapOfferRepositoryImpl) Complete(ctx context.Context, tx pgx.Tx, id int64, taker string) error {
	query := `
		UPDATE swap_offers
		SET active = FALSE, taker = $1, updated_at = $2
		WHERE id = $3 AND active
	`

	result, err := tx.Exec(ctx, query, taker, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrOfferNotActive
	}

	return nil
}

func (r *SwapOfferRepositoryImpl) Cancel(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `
		UPDATE swap_offers
		SET active = FALSE, updated_at = $1
		WHERE id = $2 AND active
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrOfferNotActive
	}

	return nil
}
