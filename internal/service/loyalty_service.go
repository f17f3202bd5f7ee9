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
	"github.com/shopspring/decimal"
)

// redeemCapBps bounds how much of a ticket's price points may cover.
const redeemCapBps = 3000

const bpsDenominator = 10000

var oneEther = decimal.New(1, 18)

type LoyaltyService interface {
	BalanceOf(ctx context.Context, address string) (*model.LoyaltyAccount, error)
	Approve(ctx context.Context, caller string, points decimal.Decimal) error
	SetRate(ctx context.Context, caller string, pointsPerEther decimal.Decimal) error
	SetSpender(ctx context.Context, caller, spender string, enabled bool) error
	AwardPoints(ctx context.Context, caller, user string, weiSpent decimal.Decimal) (decimal.Decimal, error)
	RedeemPointsTicket(ctx context.Context, caller, user string, ticketWei decimal.Decimal) (*model.RedemptionPreview, error)
	RedeemPointsQueue(ctx context.Context, caller, user string, points decimal.Decimal) error
	PreviewRedemption(ctx context.Context, address string, ticketWei decimal.Decimal) (*model.RedemptionPreview, error)
	StakeForQueue(ctx context.Context, user string, points decimal.Decimal) error

	// In-transaction hooks for the purchase engine.
	AwardInTx(ctx context.Context, tx pgx.Tx, user string, weiSpent decimal.Decimal) (decimal.Decimal, error)
	RedeemInTx(ctx context.Context, tx pgx.Tx, user string, ticketWei decimal.Decimal) (decimal.Decimal, decimal.Decimal, error)
}

type LoyaltyServiceImpl struct {
	pool         *pgxpool.Pool
	repository   repository.LoyaltyRepository
	settingsRepo repository.SettingsRepository
	notifier     notify.Publisher
	platform     config.PlatformConfig
}

func NewLoyaltyService(
	pool *pgxpool.Pool,
	loyaltyRepository repository.LoyaltyRepository,
	settingsRepository repository.SettingsRepository,
	notifier notify.Publisher,
	platform config.PlatformConfig,
) LoyaltyService {
	return &LoyaltyServiceImpl{
		pool:         pool,
		repository:   loyaltyRepository,
		settingsRepo: settingsRepository,
		notifier:     notifier,
		platform:     platform,
	}
}

// quotePoints converts spent wei into whole points, flooring.
func quotePoints(wei, rate decimal.Decimal) decimal.Decimal {
	if rate.Sign() <= 0 || wei.Sign() <= 0 {
		return decimal.Zero
	}
	q, _ := wei.Mul(rate).QuoRem(oneEther, 0)
	return q
}

// quoteWei converts points back into wei at the current rate, flooring.
func quoteWei(points, rate decimal.Decimal) decimal.Decimal {
	if rate.Sign() <= 0 || points.Sign() <= 0 {
		return decimal.Zero
	}
	q, _ := points.Mul(oneEther).QuoRem(rate, 0)
	return q
}

// redeemablePoints is the capped amount an account may burn against one
// ticket: at most redeemCapBps of the ticket value, at most the balance.
func redeemablePoints(balance, ticketWei, rate decimal.Decimal) decimal.Decimal {
	capWei, _ := ticketWei.Mul(decimal.NewFromInt(redeemCapBps)).QuoRem(decimal.NewFromInt(bpsDenominator), 0)
	points := quotePoints(capWei, rate)
	if balance.LessThan(points) {
		return balance
	}
	return points
}

func (s *LoyaltyServiceImpl) rate(ctx context.Context) (decimal.Decimal, error) {
	return s.settingsRepo.GetDecimal(ctx, repository.SettingPointsPerEther)
}

func (s *LoyaltyServiceImpl) requireSpender(ctx context.Context, caller string) error {
	enabled, err := s.repository.IsSpender(ctx, caller)
	if err != nil {
		return err
	}
	if !enabled {
		return apperrors.ErrNotAuthorizedSpender
	}
	return nil
}

func (s *LoyaltyServiceImpl) BalanceOf(ctx context.Context, address string) (*model.LoyaltyAccount, error) {
	return s.repository.GetAccount(ctx, address)
}

func (s *LoyaltyServiceImpl) Approve(ctx context.Context, caller string, points decimal.Decimal) error {
	if points.Sign() < 0 {
		return apperrors.ErrInvalidAmount
	}
	if err := s.repository.SetAllowance(ctx, caller, points); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.PointsApproved, map[string]any{
		"owner":  caller,
		"points": points.String(),
	})
	return nil
}

func (s *LoyaltyServiceImpl) SetRate(ctx context.Context, caller string, pointsPerEther decimal.Decimal) error {
	if caller != s.platform.OwnerAddress {
		return apperrors.ErrNotPlatformOwner
	}
	if pointsPerEther.Sign() <= 0 {
		return apperrors.ErrInvalidAmount
	}
	if err := s.settingsRepo.Set(ctx, repository.SettingPointsPerEther, pointsPerEther.String()); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.RateUpdated, map[string]any{
		"points_per_ether": pointsPerEther.String(),
	})
	return nil
}

func (s *LoyaltyServiceImpl) SetSpender(ctx context.Context, caller, spender string, enabled bool) error {
	if caller != s.platform.OwnerAddress {
		return apperrors.ErrNotPlatformOwner
	}
	if err := s.repository.SetSpender(ctx, spender, enabled); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.SpenderSet, map[string]any{
		"spender": spender,
		"enabled": enabled,
	})
	return nil
}

func (s *LoyaltyServiceImpl) AwardPoints(ctx context.Context, caller, user string, weiSpent decimal.Decimal) (decimal.Decimal, error) {
	if err := s.requireSpender(ctx, caller); err != nil {
		return decimal.Zero, err
	}
	if weiSpent.Sign() < 0 {
		return decimal.Zero, apperrors.ErrInvalidAmount
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	points, err := s.AwardInTx(ctx, tx, user, weiSpent)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}

	if points.Sign() > 0 {
		s.notifier.Publish(ctx, notify.PointsAwarded, map[string]any{
			"user":      user,
			"wei_spent": weiSpent.String(),
			"points":    points.String(),
		})
	}
	return points, nil
}

// AwardInTx mints points inside the caller's transaction. The caller owns the
// commit and any post-commit notification.
func (s *LoyaltyServiceImpl) AwardInTx(ctx context.Context, tx pgx.Tx, user string, weiSpent decimal.Decimal) (decimal.Decimal, error) {
	rate, err := s.rate(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	points := quotePoints(weiSpent, rate)
	if points.Sign() == 0 {
		return decimal.Zero, nil
	}

	if err := s.repository.Credit(ctx, tx, user, points); err != nil {
		return decimal.Zero, err
	}
	return points, nil
}

func (s *LoyaltyServiceImpl) PreviewRedemption(ctx context.Context, address string, ticketWei decimal.Decimal) (*model.RedemptionPreview, error) {
	if ticketWei.Sign() < 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	account, err := s.repository.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	rate, err := s.rate(ctx)
	if err != nil {
		return nil, err
	}

	points := redeemablePoints(account.Balance, ticketWei, rate)
	discount := quoteWei(points, rate)
	return &model.RedemptionPreview{
		Address:     address,
		TicketWei:   ticketWei,
		Points:      points,
		WeiDiscount: discount,
		WeiDue:      ticketWei.Sub(discount),
	}, nil
}

func (s *LoyaltyServiceImpl) RedeemPointsTicket(ctx context.Context, caller, user string, ticketWei decimal.Decimal) (*model.RedemptionPreview, error) {
	if err := s.requireSpender(ctx, caller); err != nil {
		return nil, err
	}
	if ticketWei.Sign() <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	discount, points, err := s.RedeemInTx(ctx, tx, user, ticketWei)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if points.Sign() > 0 {
		s.notifier.Publish(ctx, notify.PointsRedeemedTicket, map[string]any{
			"user":     user,
			"points":   points.String(),
			"discount": discount.String(),
		})
	}

	return &model.RedemptionPreview{
		Address:     user,
		TicketWei:   ticketWei,
		Points:      points,
		WeiDiscount: discount,
		WeiDue:      ticketWei.Sub(discount),
	}, nil
}

// RedeemInTx burns the capped redeemable points against a ticket purchase and
// returns the wei discount. Burns draw on the allowance the user granted the
// platform; a zero redeemable amount is not an error. The caller owns the
// commit and any post-commit notification.
func (s *LoyaltyServiceImpl) RedeemInTx(ctx context.Context, tx pgx.Tx, user string, ticketWei decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	rate, err := s.rate(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	account, err := s.repository.GetAccountWithLock(ctx, tx, user)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	points := redeemablePoints(account.Balance, ticketWei, rate)
	if points.Sign() == 0 {
		return decimal.Zero, decimal.Zero, nil
	}

	if err := s.repository.ConsumeAllowance(ctx, tx, user, points); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := s.repository.Debit(ctx, tx, user, points); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return quoteWei(points, rate), points, nil
}

func (s *LoyaltyServiceImpl) RedeemPointsQueue(ctx context.Context, caller, user string, points decimal.Decimal) error {
	if err := s.requireSpender(ctx, caller); err != nil {
		return err
	}
	if points.Sign() <= 0 {
		return apperrors.ErrInvalidAmount
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.repository.ConsumeAllowance(ctx, tx, user, points); err != nil {
		return err
	}
	if err := s.repository.Debit(ctx, tx, user, points); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.PointsRedeemedQueue, map[string]any{
		"user":   user,
		"points": points.String(),
	})
	return nil
}

// StakeForQueue burns a user's own points as queue priority stake. Unlike the
// spender paths this is self-initiated, so no allowance is consumed.
func (s *LoyaltyServiceImpl) StakeForQueue(ctx context.Context, user string, points decimal.Decimal) error {
	if points.Sign() <= 0 {
		return apperrors.ErrInvalidAmount
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.repository.Debit(ctx, tx, user, points); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.PointsRedeemedQueue, map[string]any{
		"user":   user,
		"points": points.String(),
		"reason": "queue_stake",
	})
	return nil
}
