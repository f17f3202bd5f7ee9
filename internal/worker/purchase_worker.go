package worker

import (
	"context"
	"errors"
	"ticketchain/internal/model"
	"ticketchain/internal/queue"
	"ticketchain/internal/service"
	apperrors "ticketchain/pkg/app_errors"
	"ticketchain/pkg/logger"

	"go.uber.org/zap"
)

// PurchaseWorker drains the admitted-purchase stream and fulfils each order
// through the oracle's buy-on-behalf path, then releases the buyer's queue
// slot.
type PurchaseWorker interface {
	Start(ctx context.Context) error
}

type PurchaseWorkerImpl struct {
	events    service.EventService
	admission queue.AdmissionQueue
	queue     queue.PurchaseQueue
	oracle    string
}

func NewPurchaseWorker(
	eventService service.EventService,
	admission queue.AdmissionQueue,
	purchaseQueue queue.PurchaseQueue,
	oracleAddress string,
) PurchaseWorker {
	return &PurchaseWorkerImpl{
		events:    eventService,
		admission: admission,
		queue:     purchaseQueue,
		oracle:    oracleAddress,
	}
}

func (w *PurchaseWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribePurchases(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			w.fulfil(ctx, msg)
		}
	}()
	return nil
}

func (w *PurchaseWorkerImpl) fulfil(ctx context.Context, msg queue.Delivery) {
	log := logger.WithComponent("purchase_worker").With(
		zap.String("request_id", msg.Data.RequestID),
		zap.Int64("event_id", msg.Data.EventID),
		zap.String("beneficiary", msg.Data.Beneficiary),
	)

	_, err := w.events.BuyTicketsFor(ctx, w.oracle, msg.Data.EventID, model.BuyTicketsForRequest{
		Quantity:     msg.Data.Quantity,
		Payment:      msg.Data.Payment,
		Beneficiary:  msg.Data.Beneficiary,
		RedeemPoints: msg.Data.RedeemPoints,
	})
	if err != nil {
		if isPermanent(err) {
			// A domain rejection will reject again on redelivery; discard and
			// free the queue slot.
			log.Warn("purchase order rejected", zap.Error(err))
			w.release(msg.Data.Beneficiary)
			msg.Nack(false)
			return
		}
		log.Error("purchase order fulfilment failed, will retry", zap.Error(err))
		msg.Nack(true)
		return
	}

	w.release(msg.Data.Beneficiary)
	msg.Ack()
	log.Info("purchase order fulfilled")
}

func (w *PurchaseWorkerImpl) release(address string) {
	if err := w.admission.Complete(address); err != nil && !errors.Is(err, apperrors.ErrNotQueued) {
		logger.WithComponent("purchase_worker").Warn("release queue slot failed",
			zap.String("address", address), zap.Error(err))
	}
}

func isPermanent(err error) bool {
	for _, sentinel := range []error{
		apperrors.ErrEventNotFound,
		apperrors.ErrEventNotActive,
		apperrors.ErrEventEnded,
		apperrors.ErrBuyViaSubEvent,
		apperrors.ErrInvalidQuantity,
		apperrors.ErrIncorrectPayment,
		apperrors.ErrInsufficientSupply,
		apperrors.ErrInsufficientAllowance,
		apperrors.ErrInsufficientBalance,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
