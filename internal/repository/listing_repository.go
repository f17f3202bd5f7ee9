package repository

import (
	"context"
	"ticketchain/internal/model"
	apperrors "ticketchain/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingRepository interface {
	FindByTicketID(ctx context.Context, ticketID int64) (*model.Listing, error)
	ListActive(ctx context.Context) ([]*model.Listing, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, listing *model.Listing) (*model.Listing, error)
	FindActiveByTicketIDWithLock(ctx context.Context, tx pgx.Tx, ticketID int64) (*model.Listing, error)
	Deactivate(ctx context.Context, tx pgx.Tx, ticketID int64) error
}

type ListingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &ListingRepositoryImpl{
		pool: pool,
	}
}

const listingColumns = `
	ticket_id, seller, price::text, event_id, active, created_at, updated_at
`

func scanListing(row pgx.Row) (*model.Listing, error) {
	var listing model.Listing
	var price string
	err := row.Scan(
		&listing.TicketID,
		&listing.Seller,
		&price,
		&listing.EventID,
		&listing.Active,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrListingNotActive
		}
		return nil, err
	}
	if listing.Price, err = parseNumeric(price); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Create upserts on ticket id: a ticket delisted or sold earlier may be
// listed again as a fresh logical record under the same key.
func (r *ListingRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, listing *model.Listing) (*model.Listing, error) {
	query := `
		INSERT INTO listings (ticket_id, seller, price, event_id, active)
		VALUES ($1, $2, $3::numeric, $4, TRUE)
		ON CONFLICT (ticket_id)
		DO UPDATE SET seller = $2, price = $3::numeric, event_id = $4, active = TRUE, updated_at = now()
		RETURNING ` + listingColumns

	return scanListing(tx.QueryRow(ctx, query,
		listing.TicketID, listing.Seller, listing.Price.String(), listing.EventID,
	))
}

func (r *ListingRepositoryImpl) FindByTicketID(ctx context.Context, ticketID int64) (*model.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE ticket_id = $1
	`
	return scanListing(r.pool.QueryRow(ctx, query, ticketID))
}

func (r *ListingRepositoryImpl) FindActiveByTicketIDWithLock(ctx context.Context, tx pgx.Tx, ticketID int64) (*model.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE ticket_id = $1 AND active
		FOR UPDATE
	`
	return scanListing(tx.QueryRow(ctx, query, ticketID))
}

func (r *ListingRepositoryImpl) ListActive(ctx context.Context) ([]*model.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE active
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]*model.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return listings, nil
}

func (r *ListingRepositoryImpl) Deactivate(ctx context.Context, tx pgx.Tx, ticketID int64) error {
	query := `
		UPDATE listings
		SET active = FALSE, updated_at = $1
		WHERE ticket_id = $2 AND active
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), ticketID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrListingNotActive
	}

	return nil
}
