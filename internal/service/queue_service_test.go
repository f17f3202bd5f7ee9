package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ticketchain/internal/model"
	"ticketchain/internal/queue"
	apperrors "ticketchain/pkg/app_errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueJoin_BurnsStake(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creditPoints(t, env, "0xuser", 1000)

	position, err := env.queues.Join(ctx, "0xuser", decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.Equal(t, 1, position.Position)
	assert.True(t, position.CanPurchase)

	account, err := env.loyalty.BalanceOf(ctx, "0xuser")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(700)), "got %s", account.Balance)
}

func TestQueueJoin_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creditPoints(t, env, "0xuser", 100)

	_, err := env.queues.Join(ctx, "0xuser", decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	// A failed burn leaves the queue untouched.
	_, err = env.queues.Join(ctx, "0xuser", decimal.NewFromInt(500))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	_, err = env.queues.Position(ctx, "0xuser")
	assert.ErrorIs(t, err, apperrors.ErrNotQueued)

	// Zero stake is a plain join.
	_, err = env.queues.Join(ctx, "0xuser", decimal.Zero)
	require.NoError(t, err)

	_, err = env.queues.Join(ctx, "0xuser", decimal.Zero)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyQueued)

	account, err := env.loyalty.BalanceOf(ctx, "0xuser")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(100)), "failed join must not burn")
}

func TestQueueComplete_OracleOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.queues.Join(ctx, "0xuser", decimal.Zero)
	require.NoError(t, err)

	assert.ErrorIs(t, env.queues.Complete(ctx, "0xuser", "0xuser"), apperrors.ErrNotOracle)
	require.NoError(t, env.queues.Complete(ctx, testPlatform.OracleAddress, "0xuser"))

	_, err = env.queues.Position(ctx, "0xuser")
	assert.ErrorIs(t, err, apperrors.ErrNotQueued)
}

func TestSubmitPurchase_AdmittedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	event := createTestEvent(t, env, wei("100"), 10)

	// Window is 2: the third joiner waits.
	for _, addr := range []string{"0xfirst", "0xsecond", "0xthird"} {
		_, err := env.queues.Join(ctx, addr, decimal.Zero)
		require.NoError(t, err)
	}

	_, err := env.queues.SubmitPurchase(ctx, "0xthird", event.ID, model.BuyTicketsRequest{
		Quantity: 1,
		Payment:  wei("100"),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotAdmitted)

	_, err = env.queues.SubmitPurchase(ctx, "0xstranger", event.ID, model.BuyTicketsRequest{
		Quantity: 1,
		Payment:  wei("100"),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotQueued)

	_, err = env.queues.SubmitPurchase(ctx, "0xfirst", event.ID, model.BuyTicketsRequest{
		Quantity: 0,
		Payment:  wei("0"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)

	order, err := env.queues.SubmitPurchase(ctx, "0xfirst", event.ID, model.BuyTicketsRequest{
		Quantity: 2,
		Payment:  wei("200"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.RequestID)

	// The order is on the stream for the fulfilment worker.
	msgs, err := env.purchases.SubscribePurchases(ctx)
	require.NoError(t, err)
	select {
	case msg := <-msgs:
		assert.Equal(t, order.RequestID, msg.Data.RequestID)
		assert.Equal(t, "0xfirst", msg.Data.Beneficiary)
		assert.Equal(t, 2, msg.Data.Quantity)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for purchase order")
	}
}

// stakeCountingLoyalty counts burns so races around join can be observed
// without the database.
type stakeCountingLoyalty struct {
	LoyaltyService
	burns atomic.Int32
}

func (s *stakeCountingLoyalty) StakeForQueue(ctx context.Context, user string, points decimal.Decimal) error {
	s.burns.Add(1)
	return nil
}

func TestQueueJoin_ConcurrentDuplicateBurnsOnce(t *testing.T) {
	loyalty := &stakeCountingLoyalty{}
	queues := NewQueueService(
		queue.NewAdmissionQueue(testPlatform.QueueWindow),
		queue.NewMemoryPurchaseQueue(4),
		loyalty,
		testPlatform,
	)

	// Two racing joins by the same caller: the slot is the duplicate gate, so
	// the loser must be rejected before any stake is burned.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := queues.Join(context.Background(), "0xracer", decimal.NewFromInt(100))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failures []error
	for err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], apperrors.ErrAlreadyQueued)
	assert.Equal(t, int32(1), loyalty.burns.Load(), "duplicate join must not burn twice")
}
