package service

import (
	"context"
	"fmt"
	"ticketchain/config"
	"ticketchain/internal/model"
	"ticketchain/internal/notify"
	"ticketchain/internal/repository"
	apperrors "ticketchain/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// MarketService runs the escrowed resale market. Listing moves custody of the
// ticket to the market address; sale or delisting releases it. Prices are
// bounded by the resale cap and sales split into seller proceeds plus an
// organiser royalty, both recorded on the transfers ledger.
type MarketService interface {
	GetListings(ctx context.Context) ([]*model.Listing, error)
	ListTicket(ctx context.Context, seller string, req model.ListTicketRequest) (*model.Listing, error)
	DelistTicket(ctx context.Context, caller string, ticketID int64) error
	BuyListing(ctx context.Context, buyer string, ticketID int64, payment decimal.Decimal) (*model.ResaleResult, error)
	SetResaleCapBps(ctx context.Context, caller string, bps int64) error
	SetRoyaltyBps(ctx context.Context, caller string, bps int64) error
}

type MarketServiceImpl struct {
	pool         *pgxpool.Pool
	repository   repository.ListingRepository
	ticketRepo   repository.TicketRepository
	eventRepo    repository.EventRepository
	settingsRepo repository.SettingsRepository
	transferRepo repository.TransferRepository
	notifier     notify.Publisher
	platform     config.PlatformConfig
}

func NewMarketService(
	pool *pgxpool.Pool,
	listingRepository repository.ListingRepository,
	ticketRepository repository.TicketRepository,
	eventRepository repository.EventRepository,
	settingsRepository repository.SettingsRepository,
	transferRepository repository.TransferRepository,
	notifier notify.Publisher,
	platform config.PlatformConfig,
) MarketService {
	return &MarketServiceImpl{
		pool:         pool,
		repository:   listingRepository,
		ticketRepo:   ticketRepository,
		eventRepo:    eventRepository,
		settingsRepo: settingsRepository,
		transferRepo: transferRepository,
		notifier:     notifier,
		platform:     platform,
	}
}

func (s *MarketServiceImpl) GetListings(ctx context.Context) ([]*model.Listing, error) {
	return s.repository.ListActive(ctx)
}

func (s *MarketServiceImpl) ListTicket(ctx context.Context, seller string, req model.ListTicketRequest) (*model.Listing, error) {
	if req.Price.Sign() <= 0 {
		return nil, apperrors.ErrInvalidPrice
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ticket, err := s.ticketRepo.FindByIDWithLock(ctx, tx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.Owner != seller {
		return nil, apperrors.ErrNotOwner
	}
	if ticket.Used {
		return nil, apperrors.ErrTicketUsed
	}
	if ticket.InEscrow() {
		return nil, apperrors.ErrTicketInEscrow
	}

	event, err := s.eventRepo.FindByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	if !event.Active {
		return nil, apperrors.ErrEventNotActive
	}

	// Cap of zero disables the bound entirely.
	capBps, err := s.settingsRepo.GetDecimal(ctx, repository.SettingResaleCapBps)
	if err != nil {
		return nil, err
	}
	if capBps.Sign() > 0 {
		maxPrice, _ := event.TicketPrice.Mul(capBps).QuoRem(decimal.NewFromInt(bpsDenominator), 0)
		if req.Price.GreaterThan(maxPrice) {
			return nil, apperrors.ErrPriceExceedsCap
		}
	}

	approved, err := s.ticketRepo.IsApprovedForAllTx(ctx, tx, seller, s.platform.MarketAddress)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, apperrors.ErrNotApproved
	}

	// Escrow: the market takes custody for the lifetime of the listing.
	if err := s.ticketRepo.SetHolder(ctx, tx, ticket.ID, s.platform.MarketAddress); err != nil {
		return nil, err
	}

	listing, err := s.repository.Create(ctx, tx, &model.Listing{
		TicketID: ticket.ID,
		Seller:   seller,
		Price:    req.Price,
		EventID:  ticket.EventID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.Listed, listing)
	return listing, nil
}

func (s *MarketServiceImpl) DelistTicket(ctx context.Context, caller string, ticketID int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	listing, err := s.repository.FindActiveByTicketIDWithLock(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	if listing.Seller != caller {
		return apperrors.ErrNotSeller
	}

	if err := s.repository.Deactivate(ctx, tx, ticketID); err != nil {
		return err
	}
	if err := s.ticketRepo.SetHolder(ctx, tx, ticketID, listing.Seller); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.Delisted, map[string]any{
		"ticket_id": ticketID,
		"seller":    listing.Seller,
	})
	return nil
}

func (s *MarketServiceImpl) BuyListing(ctx context.Context, buyer string, ticketID int64, payment decimal.Decimal) (*model.ResaleResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	listing, err := s.repository.FindActiveByTicketIDWithLock(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}
	if listing.Seller == buyer {
		return nil, apperrors.ErrSelfPurchase
	}
	if !payment.Equal(listing.Price) {
		return nil, apperrors.ErrIncorrectPrice
	}

	ticket, err := s.ticketRepo.FindByIDWithLock(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Used {
		return nil, apperrors.ErrTicketUsed
	}

	// A closed (sold-out) event is the resale market's main case; only the
	// event's end time expires a listing.
	event, err := s.eventRepo.FindByID(ctx, listing.EventID)
	if err != nil {
		return nil, err
	}
	if event.Ended(time.Now().UTC()) {
		return nil, apperrors.ErrEventEnded
	}

	royaltyBps, err := s.settingsRepo.GetDecimal(ctx, repository.SettingRoyaltyBps)
	if err != nil {
		return nil, err
	}
	royalty, _ := listing.Price.Mul(royaltyBps).QuoRem(decimal.NewFromInt(bpsDenominator), 0)
	sellerAmount := listing.Price.Sub(royalty)

	if err := s.repository.Deactivate(ctx, tx, ticketID); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.SetOwner(ctx, tx, ticketID, buyer, buyer); err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("listing:%d", ticketID)
	if err := s.transferRepo.Record(ctx, tx, &model.Transfer{
		Kind:      model.TransferSaleProceeds,
		FromAddr:  buyer,
		ToAddr:    listing.Seller,
		Amount:    sellerAmount,
		Reference: reference,
	}); err != nil {
		return nil, err
	}
	if royalty.Sign() > 0 {
		if err := s.transferRepo.Record(ctx, tx, &model.Transfer{
			Kind:      model.TransferRoyalty,
			FromAddr:  buyer,
			ToAddr:    event.Organiser,
			Amount:    royalty,
			Reference: reference,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result := &model.ResaleResult{
		TicketID:     ticketID,
		Seller:       listing.Seller,
		Buyer:        buyer,
		Price:        listing.Price,
		Royalty:      royalty,
		SellerAmount: sellerAmount,
	}
	s.notifier.Publish(ctx, notify.Purchased, result)
	return result, nil
}

func (s *MarketServiceImpl) SetResaleCapBps(ctx context.Context, caller string, bps int64) error {
	if caller != s.platform.OwnerAddress {
		return apperrors.ErrNotPlatformOwner
	}
	if bps < 0 {
		return apperrors.ErrInvalidAmount
	}
	return s.settingsRepo.Set(ctx, repository.SettingResaleCapBps, decimal.NewFromInt(bps).String())
}

func (s *MarketServiceImpl) SetRoyaltyBps(ctx context.Context, caller string, bps int64) error {
	if caller != s.platform.OwnerAddress {
		return apperrors.ErrNotPlatformOwner
	}
	if bps < 0 || bps > bpsDenominator {
		return apperrors.ErrInvalidAmount
	}
	return s.settingsRepo.Set(ctx, repository.SettingRoyaltyBps, decimal.NewFromInt(bps).String())
}
