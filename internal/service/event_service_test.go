package service

import (
	"context"
	"sync"
	"testing"
	"ticketchain/internal/model"
	"ticketchain/internal/notify"
	"ticketchain/internal/repository"
	apperrors "ticketchain/pkg/app_errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyTickets_ExactPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("100"), 5)

	result, err := env.events.BuyTickets(ctx, "0xalice", event.ID, model.BuyTicketsRequest{
		Quantity: 2,
		Payment:  wei("200"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Quantity)
	assert.Len(t, result.TicketIDs, 2)
	assert.True(t, result.TotalPaid.Equal(wei("200")))

	for _, id := range result.TicketIDs {
		ticket, err := env.ticketRepo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "0xalice", ticket.Owner)
		assert.Equal(t, "0xalice", ticket.Holder)
	}

	_, err = env.events.BuyTickets(ctx, "0xbob", event.ID, model.BuyTicketsRequest{
		Quantity: 1,
		Payment:  wei("99"),
	})
	assert.ErrorIs(t, err, apperrors.ErrIncorrectPayment)

	_, err = env.events.BuyTickets(ctx, "0xbob", event.ID, model.BuyTicketsRequest{
		Quantity: 0,
		Payment:  wei("0"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
}

func TestBuyTickets_SupplyBound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("100"), 3)

	buyTickets(t, env, "0xalice", event.ID, wei("100"), 2)

	_, err := env.events.BuyTickets(ctx, "0xbob", event.ID, model.BuyTicketsRequest{
		Quantity: 2,
		Payment:  wei("200"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientSupply)

	// Failed attempt rolled back everything, the last ticket is still there.
	buyTickets(t, env, "0xbob", event.ID, wei("100"), 1)

	tickets, err := env.ticketRepo.ListByOwner(ctx, "0xbob")
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestBuyTickets_NoOversellUnderConcurrency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("100"), 5)

	const buyers = 10
	results := make(chan error, buyers)
	var wg sync.WaitGroup
	wg.Add(buyers)
	for i := 0; i < buyers; i++ {
		go func(n int) {
			defer wg.Done()
			_, err := env.events.BuyTickets(ctx, "0xbuyer", event.ID, model.BuyTicketsRequest{
				Quantity: 1,
				Payment:  wei("100"),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded, soldOut := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, apperrors.ErrInsufficientSupply):
			soldOut++
		}
	}
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, soldOut)

	final, err := env.events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, final.TicketsSold)
}

func TestBuyTickets_AwardsPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	// 1 ether per ticket at 3000 points per ether.
	event := createTestEvent(t, env, wei("1000000000000000000"), 5)

	buyTickets(t, env, "0xalice", event.ID, event.TicketPrice, 1)

	account, err := env.loyalty.BalanceOf(ctx, "0xalice")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(wei("3000")), "got %s", account.Balance)
}

func TestBuyTickets_RedeemPointsDiscount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("1000000000000000000"), 5)

	creditPoints(t, env, "0xalice", 1500)
	require.NoError(t, env.loyalty.Approve(ctx, "0xalice", wei("1500")))

	// Cap is 30% of the ticket value: 0.3 ether = 900 points at rate 3000.
	result, err := env.events.BuyTickets(ctx, "0xalice", event.ID, model.BuyTicketsRequest{
		Quantity:     1,
		Payment:      wei("700000000000000000"),
		RedeemPoints: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Discount.Equal(wei("300000000000000000")), "got %s", result.Discount)
	assert.True(t, result.TotalPaid.Equal(wei("700000000000000000")))

	// 1500 - 900 burned + 2100 awarded on the 0.7 ether actually paid.
	account, err := env.loyalty.BalanceOf(ctx, "0xalice")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(wei("2700")), "got %s", account.Balance)
}

func TestBuyTickets_RedeemWithoutAllowance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("1000000000000000000"), 5)

	creditPoints(t, env, "0xalice", 1500)

	_, err := env.events.BuyTickets(ctx, "0xalice", event.ID, model.BuyTicketsRequest{
		Quantity:     1,
		Payment:      wei("700000000000000000"),
		RedeemPoints: true,
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientAllowance)
}

func TestBuyTicketsFor_OracleOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("100"), 5)

	_, err := env.events.BuyTicketsFor(ctx, "0xmallory", event.ID, model.BuyTicketsForRequest{
		Quantity:    1,
		Payment:     wei("100"),
		Beneficiary: "0xalice",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotOracle)

	result, err := env.events.BuyTicketsFor(ctx, testPlatform.OracleAddress, event.ID, model.BuyTicketsForRequest{
		Quantity:    1,
		Payment:     wei("100"),
		Beneficiary: "0xalice",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xalice", result.Buyer)

	ticket, err := env.ticketRepo.FindByID(ctx, result.TicketIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "0xalice", ticket.Owner)
}

func TestCreateMultiDayEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.events.CreateMultiDayEvent(ctx, "0xorganiser", model.CreateMultiDayEventRequest{
		Name:        "One Day Only",
		TicketPrice: wei("100"),
		Days: []model.DayInput{
			{Date: futureDate(), Venue: "Hall A", TotalTickets: 10},
		},
	})
	assert.ErrorIs(t, err, apperrors.ErrMinimumDaysNotMet)

	event, err := env.events.CreateMultiDayEvent(ctx, "0xorganiser", model.CreateMultiDayEventRequest{
		Name:        "Festival",
		TicketPrice: wei("100"),
		Days: []model.DayInput{
			{Date: futureDate(), Venue: "Hall A", TotalTickets: 10, Swappable: true},
			{Date: futureDate() + 86400, Venue: "Hall B", TotalTickets: 20, Swappable: true},
			{Date: futureDate() + 172800, Venue: "Hall C", TotalTickets: 30},
		},
	})
	require.NoError(t, err)
	assert.True(t, event.IsMultiDay)
	assert.Equal(t, 60, event.TotalTickets)
	require.Len(t, event.SubEvents, 3)

	for i, subEvent := range event.SubEvents {
		assert.Equal(t, i+1, subEvent.DayIndex)
		assert.NotEqual(t, event.ID, subEvent.ID, "sub-event ids never collide with event ids")
	}

	// Parents sell only through their days.
	_, err = env.events.BuyTickets(ctx, "0xalice", event.ID, model.BuyTicketsRequest{
		Quantity: 1,
		Payment:  wei("100"),
	})
	assert.ErrorIs(t, err, apperrors.ErrBuyViaSubEvent)
}

func TestBuySubEventTickets_MovesBothCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	event, err := env.events.CreateMultiDayEvent(ctx, "0xorganiser", model.CreateMultiDayEventRequest{
		Name:        "Festival",
		TicketPrice: wei("100"),
		Days: []model.DayInput{
			{Date: futureDate(), Venue: "Hall A", TotalTickets: 2},
			{Date: futureDate() + 86400, Venue: "Hall B", TotalTickets: 5},
		},
	})
	require.NoError(t, err)
	day1 := event.SubEvents[0]

	result, err := env.events.BuySubEventTickets(ctx, "0xalice", day1.ID, model.BuyTicketsRequest{
		Quantity: 2,
		Payment:  wei("200"),
	})
	require.NoError(t, err)
	require.NotNil(t, result.SubEventID)
	assert.Equal(t, day1.ID, *result.SubEventID)

	refreshed, err := env.events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed.TicketsSold)
	assert.Equal(t, 2, refreshed.SubEvents[0].TicketsSold)

	// Day one is sold out even though the run still has supply.
	_, err = env.events.BuySubEventTickets(ctx, "0xbob", day1.ID, model.BuyTicketsRequest{
		Quantity: 1,
		Payment:  wei("100"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientSupply)
}

func TestCloseEvent_OracleOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("100"), 5)

	assert.ErrorIs(t, env.events.CloseEvent(ctx, "0xorganiser", event.ID), apperrors.ErrNotOracle)
	require.NoError(t, env.events.CloseEvent(ctx, testPlatform.OracleAddress, event.ID))

	_, err := env.events.BuyTickets(ctx, "0xalice", event.ID, model.BuyTicketsRequest{
		Quantity: 1,
		Payment:  wei("100"),
	})
	assert.ErrorIs(t, err, apperrors.ErrEventNotActive)
}

func TestSwapTickets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	event, err := env.events.CreateMultiDayEvent(ctx, "0xorganiser", model.CreateMultiDayEventRequest{
		Name:        "Festival",
		TicketPrice: wei("100"),
		Days: []model.DayInput{
			{Date: futureDate(), Venue: "Hall A", TotalTickets: 5, Swappable: true},
			{Date: futureDate() + 86400, Venue: "Hall B", TotalTickets: 5, Swappable: true},
			{Date: futureDate() + 172800, Venue: "Hall C", TotalTickets: 5},
		},
	})
	require.NoError(t, err)

	aliceBuy, err := env.events.BuySubEventTickets(ctx, "0xalice", event.SubEvents[0].ID, model.BuyTicketsRequest{Quantity: 1, Payment: wei("100")})
	require.NoError(t, err)
	bobBuy, err := env.events.BuySubEventTickets(ctx, "0xbob", event.SubEvents[1].ID, model.BuyTicketsRequest{Quantity: 1, Payment: wei("100")})
	require.NoError(t, err)
	carolBuy, err := env.events.BuySubEventTickets(ctx, "0xcarol", event.SubEvents[2].ID, model.BuyTicketsRequest{Quantity: 1, Payment: wei("100")})
	require.NoError(t, err)

	ticketA, ticketB, ticketC := aliceBuy.TicketIDs[0], bobBuy.TicketIDs[0], carolBuy.TicketIDs[0]

	canSwap, err := env.events.CanSwapTickets(ctx, ticketA, ticketB)
	require.NoError(t, err)
	assert.True(t, canSwap)

	canSwap, err = env.events.CanSwapTickets(ctx, ticketA, ticketC)
	require.NoError(t, err)
	assert.False(t, canSwap, "non-swappable day refuses")

	swapReq := model.SwapTicketsRequest{
		Ticket1: ticketA, Ticket2: ticketB,
		Owner1: "0xalice", Owner2: "0xbob",
	}

	assert.ErrorIs(t, env.events.SwapTickets(ctx, "0xmallory", swapReq), apperrors.ErrUnauthorizedSwap)

	// Both sides must have approved the swap engine.
	assert.ErrorIs(t, env.events.SwapTickets(ctx, "0xalice", swapReq), apperrors.ErrNotApproved)
	require.NoError(t, env.registry.SetApprovalForAll(ctx, "0xalice", testPlatform.SwapAddress, true))
	require.NoError(t, env.registry.SetApprovalForAll(ctx, "0xbob", testPlatform.SwapAddress, true))

	require.NoError(t, env.events.SwapTickets(ctx, "0xalice", swapReq))

	swapped, err := env.ticketRepo.FindByID(ctx, ticketA)
	require.NoError(t, err)
	assert.Equal(t, "0xbob", swapped.Owner)

	swapped, err = env.ticketRepo.FindByID(ctx, ticketB)
	require.NoError(t, err)
	assert.Equal(t, "0xalice", swapped.Owner)

	// Stale ownership assertion after the swap.
	assert.ErrorIs(t, env.events.SwapTickets(ctx, "0xalice", swapReq), apperrors.ErrWrongOwner)
}

// recordingPublisher captures event types in publication order.
type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

func TestBuyTickets_SoldOutReportedBeforePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("100"), 2)
	buyTickets(t, env, "0xalice", event.ID, wei("100"), 2)

	// Sold out wins over a wrong payment.
	_, err := env.events.BuyTickets(ctx, "0xbob", event.ID, model.BuyTicketsRequest{
		Quantity: 1,
		Payment:  wei("1"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientSupply)
}

func TestBuyTickets_PublishesOnlyAfterCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := &recordingPublisher{}
	events := NewEventService(
		testDB,
		repository.NewEventRepository(testDB),
		repository.NewTicketRepository(testDB),
		env.loyalty,
		rec,
		testPlatform,
	)

	event := createTestEvent(t, env, wei("1000000000000000000"), 5)
	creditPoints(t, env, "0xalice", 1500)
	require.NoError(t, env.loyalty.Approve(ctx, "0xalice", decimal.NewFromInt(10000)))

	// The redemption burn happens mid-transaction; the wrong payment rolls
	// everything back, so nothing may reach the sink and the balance survives.
	_, err := events.BuyTickets(ctx, "0xalice", event.ID, model.BuyTicketsRequest{
		Quantity:     1,
		Payment:      wei("1"),
		RedeemPoints: true,
	})
	assert.ErrorIs(t, err, apperrors.ErrIncorrectPayment)
	assert.Empty(t, rec.published())

	account, err := env.loyalty.BalanceOf(ctx, "0xalice")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1500)), "got %s", account.Balance)

	// Cap is 900 points on a 1 ether ticket: 0.7 ether due.
	result, err := events.BuyTickets(ctx, "0xalice", event.ID, model.BuyTicketsRequest{
		Quantity:     1,
		Payment:      wei("700000000000000000"),
		RedeemPoints: true,
	})
	require.NoError(t, err)
	assert.True(t, result.PointsUsed.Equal(decimal.NewFromInt(900)))
	assert.True(t, result.Points.Equal(decimal.NewFromInt(2100)), "got %s", result.Points)

	assert.Equal(t,
		[]string{notify.TicketsPurchased, notify.PointsRedeemedTicket, notify.PointsAwarded},
		rec.published())
}
