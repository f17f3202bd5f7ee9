package queue

import (
	"context"
	"ticketchain/internal/model"
)

// Delivery wraps an admitted purchase order with its acknowledgement hooks.
type Delivery struct {
	Data *model.PurchaseOrder
	Ack  func()
	Nack func(requeue bool)
}

// PurchaseQueue carries queue-admitted purchase orders to the fulfilment
// worker, which executes them via the oracle's buy-on-behalf path.
type PurchaseQueue interface {
	PublishPurchase(ctx context.Context, order *model.PurchaseOrder) error
	SubscribePurchases(ctx context.Context) (<-chan Delivery, error)
}

// MemoryPurchaseQueue is a channel-backed queue for tests and single-process
// deployments.
type MemoryPurchaseQueue struct {
	ch chan *model.PurchaseOrder
}

func NewMemoryPurchaseQueue(bufferSize int) PurchaseQueue {
	return &MemoryPurchaseQueue{
		ch: make(chan *model.PurchaseOrder, bufferSize),
	}
}

func (q *MemoryPurchaseQueue) PublishPurchase(ctx context.Context, order *model.PurchaseOrder) error {
	q.ch <- order
	return nil
}

func (q *MemoryPurchaseQueue) SubscribePurchases(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case order, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: order,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- order
						}
					},
				}
			}
		}
	}()

	return out, nil
}
