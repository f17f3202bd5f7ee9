package service

import (
	"context"
	"fmt"
	"ticketchain/config"
	"ticketchain/internal/model"
	"ticketchain/internal/notify"
	"ticketchain/internal/repository"
	apperrors "ticketchain/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SwapService runs the peer swap market: makers post ticket-for-ticket
// offers, takers accept for a flat platform fee. Maker ownership is
// re-validated at acceptance; an offer created long ago proves nothing about
// the present.
type SwapService interface {
	GetOffer(ctx context.Context, id int64) (*model.SwapOffer, error)
	ListOffers(ctx context.Context) ([]*model.SwapOffer, error)
	CreateOffer(ctx context.Context, maker string, req model.CreateOfferRequest) (*model.SwapOffer, error)
	AcceptOffer(ctx context.Context, taker string, offerID int64, fee decimal.Decimal) error
	CancelOffer(ctx context.Context, caller string, offerID int64) error
	WithdrawFees(ctx context.Context, caller string) (decimal.Decimal, error)
}

type SwapServiceImpl struct {
	pool         *pgxpool.Pool
	repository   repository.SwapOfferRepository
	ticketRepo   repository.TicketRepository
	settingsRepo repository.SettingsRepository
	transferRepo repository.TransferRepository
	notifier     notify.Publisher
	platform     config.PlatformConfig
}

func NewSwapService(
	pool *pgxpool.Pool,
	swapOfferRepository repository.SwapOfferRepository,
	ticketRepository repository.TicketRepository,
	settingsRepository repository.SettingsRepository,
	transferRepository repository.TransferRepository,
	notifier notify.Publisher,
	platform config.PlatformConfig,
) SwapService {
	return &SwapServiceImpl{
		pool:         pool,
		repository:   swapOfferRepository,
		ticketRepo:   ticketRepository,
		settingsRepo: settingsRepository,
		transferRepo: transferRepository,
		notifier:     notifier,
		platform:     platform,
	}
}

func (s *SwapServiceImpl) GetOffer(ctx context.Context, id int64) (*model.SwapOffer, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *SwapServiceImpl) ListOffers(ctx context.Context) ([]*model.SwapOffer, error) {
	return s.repository.ListActive(ctx)
}

func (s *SwapServiceImpl) CreateOffer(ctx context.Context, maker string, req model.CreateOfferRequest) (*model.SwapOffer, error) {
	if req.MakerTicketID == req.DesiredTicketID {
		return nil, apperrors.ErrInvalidInput
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	makerTicket, err := s.ticketRepo.FindByIDWithLock(ctx, tx, req.MakerTicketID)
	if err != nil {
		return nil, err
	}
	if makerTicket.Owner != maker {
		return nil, apperrors.ErrNotOwner
	}
	if makerTicket.Used {
		return nil, apperrors.ErrTicketUsed
	}
	if makerTicket.InEscrow() {
		return nil, apperrors.ErrTicketInEscrow
	}

	// Desired ticket must exist, nothing more; its owner consents by accepting.
	if _, err := s.ticketRepo.FindByID(ctx, req.DesiredTicketID); err != nil {
		return nil, err
	}

	approved, err := s.ticketRepo.IsApprovedForAllTx(ctx, tx, maker, s.platform.SwapAddress)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, apperrors.ErrNotApproved
	}

	offer, err := s.repository.Create(ctx, tx, &model.SwapOffer{
		Maker:           maker,
		MakerTicketID:   req.MakerTicketID,
		DesiredTicketID: req.DesiredTicketID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.OfferCreated, offer)
	return offer, nil
}

func (s *SwapServiceImpl) AcceptOffer(ctx context.Context, taker string, offerID int64, fee decimal.Decimal) error {
	if !fee.Equal(s.platform.SwapPlatformFee) {
		return apperrors.ErrIncorrectFee
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	offer, err := s.repository.FindByIDWithLock(ctx, tx, offerID)
	if err != nil {
		return err
	}
	if !offer.Active {
		return apperrors.ErrOfferNotActive
	}
	if offer.Maker == taker {
		return apperrors.ErrSelfAccept
	}

	makerTicket, desiredTicket, err := s.lockOfferTickets(ctx, tx, offer)
	if err != nil {
		return err
	}

	// The maker may have sold or swapped away their ticket since creating the
	// offer; never complete on stale ownership.
	if makerTicket.Owner != offer.Maker {
		return apperrors.ErrMakerNoLongerOwns
	}
	if desiredTicket.Owner != taker {
		return apperrors.ErrNotDesiredOwner
	}
	if makerTicket.Used || desiredTicket.Used {
		return apperrors.ErrTicketUsed
	}
	if makerTicket.InEscrow() || desiredTicket.InEscrow() {
		return apperrors.ErrTicketInEscrow
	}

	for _, owner := range []string{offer.Maker, taker} {
		approved, err := s.ticketRepo.IsApprovedForAllTx(ctx, tx, owner, s.platform.SwapAddress)
		if err != nil {
			return err
		}
		if !approved {
			return apperrors.ErrNotApproved
		}
	}

	if err := s.ticketRepo.SetOwner(ctx, tx, makerTicket.ID, taker, taker); err != nil {
		return err
	}
	if err := s.ticketRepo.SetOwner(ctx, tx, desiredTicket.ID, offer.Maker, offer.Maker); err != nil {
		return err
	}
	if err := s.repository.Complete(ctx, tx, offerID, taker); err != nil {
		return err
	}

	if err := s.settingsRepo.AddToBalance(ctx, tx, repository.SettingSwapFeeBalance, fee); err != nil {
		return err
	}
	if err := s.transferRepo.Record(ctx, tx, &model.Transfer{
		Kind:      model.TransferSwapFee,
		FromAddr:  taker,
		ToAddr:    s.platform.SwapAddress,
		Amount:    fee,
		Reference: fmt.Sprintf("offer:%d", offerID),
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.OfferAccepted, map[string]any{
		"offer_id": offerID,
		"maker":    offer.Maker,
		"taker":    taker,
		"fee":      fee.String(),
	})
	return nil
}

func (s *SwapServiceImpl) CancelOffer(ctx context.Context, caller string, offerID int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	offer, err := s.repository.FindByIDWithLock(ctx, tx, offerID)
	if err != nil {
		return err
	}
	if offer.Maker != caller {
		return apperrors.ErrUnauthorizedSwap
	}

	if err := s.repository.Cancel(ctx, tx, offerID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.OfferCancelled, map[string]any{
		"offer_id": offerID,
		"maker":    offer.Maker,
	})
	return nil
}

func (s *SwapServiceImpl) WithdrawFees(ctx context.Context, caller string) (decimal.Decimal, error) {
	if caller != s.platform.OwnerAddress {
		return decimal.Zero, apperrors.ErrNotPlatformOwner
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	amount, err := s.settingsRepo.TakeBalance(ctx, tx, repository.SettingSwapFeeBalance)
	if err != nil {
		return decimal.Zero, err
	}

	if amount.Sign() > 0 {
		if err := s.transferRepo.Record(ctx, tx, &model.Transfer{
			Kind:      model.TransferFeeWithdrawal,
			FromAddr:  s.platform.SwapAddress,
			ToAddr:    caller,
			Amount:    amount,
			Reference: "swap_fees",
		}); err != nil {
			return decimal.Zero, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}

	s.notifier.Publish(ctx, notify.FeesWithdrawn, map[string]any{
		"owner":  caller,
		"amount": amount.String(),
	})
	return amount, nil
}

func (s *SwapServiceImpl) lockOfferTickets(ctx context.Context, tx pgx.Tx, offer *model.SwapOffer) (*model.Ticket, *model.Ticket, error) {
	first, second := offer.MakerTicketID, offer.DesiredTicketID
	if second < first {
		first, second = second, first
	}

	a, err := s.ticketRepo.FindByIDWithLock(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.ticketRepo.FindByIDWithLock(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}

	if a.ID == offer.MakerTicketID {
		return a, b, nil
	}
	return b, a, nil
}
