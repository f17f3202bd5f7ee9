package repository

import (
	"context"
	"ticketchain/internal/model"
	apperrors "ticketchain/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Ticket, error)
	ListByOwner(ctx context.Context, owner string) ([]*model.Ticket, error)
	SetApprovalForAll(ctx context.Context, owner, operator string, approved bool) error
	IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error)

	// Transaction methods
	Mint(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.Ticket, error)
	SetOwner(ctx context.Context, tx pgx.Tx, id int64, owner, holder string) error
	SetHolder(ctx context.Context, tx pgx.Tx, id int64, holder string) error
	MarkUsed(ctx context.Context, tx pgx.Tx, id int64) error
	IsApprovedForAllTx(ctx context.Context, tx pgx.Tx, owner, operator string) (bool, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `
	id, event_id, sub_event_id, owner, holder, used, created_at, updated_at
`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.SubEventID,
		&ticket.Owner,
		&ticket.Holder,
		&ticket.Used,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepositoryImpl) Mint(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (event_id, sub_event_id, owner, holder)
		VALUES ($1, $2, $3, $3)
		RETURNING ` + ticketColumns

	return scanTicket(tx.QueryRow(ctx, query, ticket.EventID, ticket.SubEventID, ticket.Owner))
}

func (r *TicketRepositoryImpl) FindByID(ctx context.Context, id int64) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE id = $1
	`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *TicketRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE id = $1
		FOR UPDATE
	`
	return scanTicket(tx.QueryRow(ctx, query, id))
}

func (r *TicketRepositoryImpl) ListByOwner(ctx context.Context, owner string) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE owner = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *TicketRepositoryImpl) SetOwner(ctx context.Context, tx pgx.Tx, id int64, owner, holder string) error {
	query := `
		UPDATE tickets
		SET owner = $1, holder = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := tx.Exec(ctx, query, owner, holder, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}

	return nil
}

func (r *TicketRepositoryImpl) SetHolder(ctx context.Context, tx pgx.Tx, id int64, holder string) error {
	query := `
		UPDATE tickets
		SET holder = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := tx.Exec(ctx, query, holder, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}

	return nil
}

func (r *TicketRepositoryImpl) MarkUsed(ctx context.Context, tx pgx.Tx, id int64) error {
	// The used flag is terminal, never cleared.
	query := `
		UPDATE tickets
		SET used = TRUE, updated_at = $1
		WHERE id = $2 AND used = FALSE
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketUsed
	}

	return nil
}

func (r *TicketRepositoryImpl) SetApprovalForAll(ctx context.Context, owner, operator string, approved bool) error {
	query := `
		INSERT INTO operator_approvals (owner, operator, approved)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner, operator)
		DO UPDATE SET approved = $3, updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query, owner, operator, approved)
	return err
}

func (r *TicketRepositoryImpl) IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error) {
	return isApproved(ctx, r.pool, owner, operator)
}

func (r *TicketRepositoryImpl) IsApprovedForAllTx(ctx context.Context, tx pgx.Tx, owner, operator string) (bool, error) {
	return isApproved(ctx, tx, owner, operator)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isApproved(ctx context.Context, q querier, owner, operator string) (bool, error) {
	query := `
		SELECT approved
		FROM operator_approvals
		WHERE owner = $1 AND operator = $2
	`

	var approved bool
	err := q.QueryRow(ctx, query, owner, operator).Scan(&approved)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}
