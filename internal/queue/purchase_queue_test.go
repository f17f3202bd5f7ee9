package queue

import (
	"context"
	"testing"
	"ticketchain/internal/model"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveDelivery(t *testing.T, msgs <-chan Delivery) Delivery {
	t.Helper()
	select {
	case msg := <-msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return Delivery{}
	}
}

func TestMemoryPurchaseQueue_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryPurchaseQueue(4)
	msgs, err := q.SubscribePurchases(ctx)
	require.NoError(t, err)

	order := &model.PurchaseOrder{
		RequestID:   "req-1",
		EventID:     7,
		Beneficiary: "alice",
		Quantity:    2,
		Payment:     decimal.NewFromInt(200),
	}
	require.NoError(t, q.PublishPurchase(ctx, order))

	msg := receiveDelivery(t, msgs)
	assert.Equal(t, "req-1", msg.Data.RequestID)
	assert.Equal(t, int64(7), msg.Data.EventID)
	msg.Ack()
}

func TestMemoryPurchaseQueue_NackRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryPurchaseQueue(4)
	msgs, err := q.SubscribePurchases(ctx)
	require.NoError(t, err)

	require.NoError(t, q.PublishPurchase(ctx, &model.PurchaseOrder{RequestID: "req-1"}))

	msg := receiveDelivery(t, msgs)
	msg.Nack(true)

	redelivered := receiveDelivery(t, msgs)
	assert.Equal(t, "req-1", redelivered.Data.RequestID)
	redelivered.Ack()
}

func TestMemoryPurchaseQueue_NackDiscard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryPurchaseQueue(4)
	msgs, err := q.SubscribePurchases(ctx)
	require.NoError(t, err)

	require.NoError(t, q.PublishPurchase(ctx, &model.PurchaseOrder{RequestID: "req-1"}))
	receiveDelivery(t, msgs).Nack(false)

	select {
	case msg := <-msgs:
		t.Fatalf("unexpected redelivery: %v", msg.Data)
	case <-time.After(100 * time.Millisecond):
	}
}
