package service

import (
	"context"
	"ticketchain/config"
	"ticketchain/internal/model"
	"ticketchain/internal/queue"
	apperrors "ticketchain/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QueueService fronts the purchase admission queue. Joining may burn loyalty
// points as priority stake; admitted users submit purchase orders that the
// fulfilment worker executes through the oracle.
type QueueService interface {
	Join(ctx context.Context, caller string, points decimal.Decimal) (*model.QueuePosition, error)
	Leave(ctx context.Context, caller string) error
	Position(ctx context.Context, caller string) (*model.QueuePosition, error)
	Complete(ctx context.Context, caller, address string) error
	Stats(ctx context.Context) model.QueueStats
	SubmitPurchase(ctx context.Context, caller string, eventID int64, req model.BuyTicketsRequest) (*model.PurchaseOrder, error)
}

type QueueServiceImpl struct {
	admission     queue.AdmissionQueue
	purchaseQueue queue.PurchaseQueue
	loyalty       LoyaltyService
	platform      config.PlatformConfig
}

func NewQueueService(
	admission queue.AdmissionQueue,
	purchaseQueue queue.PurchaseQueue,
	loyaltyService LoyaltyService,
	platform config.PlatformConfig,
) QueueService {
	return &QueueServiceImpl{
		admission:     admission,
		purchaseQueue: purchaseQueue,
		loyalty:       loyaltyService,
		platform:      platform,
	}
}

func (s *QueueServiceImpl) Join(ctx context.Context, caller string, points decimal.Decimal) (*model.QueuePosition, error) {
	if points.Sign() < 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	// The slot is the duplicate gate: take it first, burn second, release on
	// a failed burn. Of two racing joins only the slot holder reaches the
	// burn, so stake can never be debited twice.
	position, err := s.admission.Join(caller, points)
	if err != nil {
		return nil, err
	}

	if points.Sign() > 0 {
		if err := s.loyalty.StakeForQueue(ctx, caller, points); err != nil {
			_ = s.admission.Leave(caller)
			return nil, err
		}
	}

	return position, nil
}

func (s *QueueServiceImpl) Leave(ctx context.Context, caller string) error {
	return s.admission.Leave(caller)
}

func (s *QueueServiceImpl) Position(ctx context.Context, caller string) (*model.QueuePosition, error) {
	return s.admission.Position(caller)
}

// Complete is the oracle's acknowledgement that a purchase finished; the HTTP
// surface exposes it for out-of-band fulfilment, the worker calls the
// admission queue directly.
func (s *QueueServiceImpl) Complete(ctx context.Context, caller, address string) error {
	if caller != s.platform.OracleAddress {
		return apperrors.ErrNotOracle
	}
	return s.admission.Complete(address)
}

func (s *QueueServiceImpl) Stats(ctx context.Context) model.QueueStats {
	return s.admission.Stats()
}

func (s *QueueServiceImpl) SubmitPurchase(ctx context.Context, caller string, eventID int64, req model.BuyTicketsRequest) (*model.PurchaseOrder, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	position, err := s.admission.Position(caller)
	if err != nil {
		return nil, err
	}
	if !position.CanPurchase {
		return nil, apperrors.ErrNotAdmitted
	}

	order := &model.PurchaseOrder{
		RequestID:    uuid.New().String(),
		EventID:      eventID,
		Beneficiary:  caller,
		Quantity:     req.Quantity,
		Payment:      req.Payment,
		RedeemPoints: req.RedeemPoints,
	}
	if err := s.purchaseQueue.PublishPurchase(ctx, order); err != nil {
		return nil, apperrors.ErrInternalServerError
	}

	return order, nil
}
