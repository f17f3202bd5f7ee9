package service

import (
	"context"
	"ticketchain/config"
	"ticketchain/internal/model"
	"ticketchain/internal/notify"
	"ticketchain/internal/repository"
	apperrors "ticketchain/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistryService is the authoritative ticket ledger: ownership queries,
// owner-or-operator transfers, operator approvals and the one-way used flag.
// Minting happens only inside the purchase engine's transaction.
type RegistryService interface {
	GetTicket(ctx context.Context, id int64) (*model.Ticket, error)
	TicketsOf(ctx context.Context, owner string) ([]*model.Ticket, error)
	Transfer(ctx context.Context, caller string, ticketID int64, to string) error
	SetApprovalForAll(ctx context.Context, caller, operator string, approved bool) error
	IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error)
	MarkTicketUsed(ctx context.Context, caller string, ticketID int64) error
}

type RegistryServiceImpl struct {
	pool       *pgxpool.Pool
	repository repository.TicketRepository
	notifier   notify.Publisher
	platform   config.PlatformConfig
}

func NewRegistryService(
	pool *pgxpool.Pool,
	ticketRepository repository.TicketRepository,
	notifier notify.Publisher,
	platform config.PlatformConfig,
) RegistryService {
	return &RegistryServiceImpl{
		pool:       pool,
		repository: ticketRepository,
		notifier:   notifier,
		platform:   platform,
	}
}

func (s *RegistryServiceImpl) GetTicket(ctx context.Context, id int64) (*model.Ticket, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *RegistryServiceImpl) TicketsOf(ctx context.Context, owner string) ([]*model.Ticket, error) {
	return s.repository.ListByOwner(ctx, owner)
}

func (s *RegistryServiceImpl) Transfer(ctx context.Context, caller string, ticketID int64, to string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ticket, err := s.repository.FindByIDWithLock(ctx, tx, ticketID)
	if err != nil {
		return err
	}

	if ticket.InEscrow() {
		return apperrors.ErrTicketInEscrow
	}

	if caller != ticket.Owner {
		approved, err := s.repository.IsApprovedForAllTx(ctx, tx, ticket.Owner, caller)
		if err != nil {
			return err
		}
		if !approved {
			return apperrors.ErrNotApproved
		}
	}

	if err := s.repository.SetOwner(ctx, tx, ticketID, to, to); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.TicketTransferred, map[string]any{
		"ticket_id": ticketID,
		"from":      ticket.Owner,
		"to":        to,
	})
	return nil
}

func (s *RegistryServiceImpl) SetApprovalForAll(ctx context.Context, caller, operator string, approved bool) error {
	if operator == caller {
		return apperrors.ErrInvalidInput
	}
	if err := s.repository.SetApprovalForAll(ctx, caller, operator, approved); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.ApprovalForAll, map[string]any{
		"owner":    caller,
		"operator": operator,
		"approved": approved,
	})
	return nil
}

func (s *RegistryServiceImpl) IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error) {
	return s.repository.IsApprovedForAll(ctx, owner, operator)
}

func (s *RegistryServiceImpl) MarkTicketUsed(ctx context.Context, caller string, ticketID int64) error {
	if caller != s.platform.OracleAddress {
		return apperrors.ErrNotOracle
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Existence first, so a missing id is reported as not found rather than
	// already used.
	if _, err := s.repository.FindByIDWithLock(ctx, tx, ticketID); err != nil {
		return err
	}

	if err := s.repository.MarkUsed(ctx, tx, ticketID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.TicketUsed, map[string]any{
		"ticket_id": ticketID,
	})
	return nil
}
