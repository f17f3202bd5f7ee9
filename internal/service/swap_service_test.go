package service

import (
	"context"
	"testing"
	"ticketchain/internal/model"
	"ticketchain/internal/repository"
	apperrors "ticketchain/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// swapPair mints one ticket each for alice and bob on the same event and
// approves the swap operator for both.
func swapPair(t *testing.T, env *testEnv) (aliceTicket, bobTicket int64) {
	t.Helper()
	ctx := context.Background()
	event := createTestEvent(t, env, wei("100"), 10)
	a := buyTickets(t, env, "0xalice", event.ID, wei("100"), 1)
	b := buyTickets(t, env, "0xbob", event.ID, wei("100"), 1)
	require.NoError(t, env.registry.SetApprovalForAll(ctx, "0xalice", testPlatform.SwapAddress, true))
	require.NoError(t, env.registry.SetApprovalForAll(ctx, "0xbob", testPlatform.SwapAddress, true))
	return a.TicketIDs[0], b.TicketIDs[0]
}

func TestCreateOffer_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	aliceTicket, bobTicket := swapPair(t, env)

	_, err := env.swaps.CreateOffer(ctx, "0xalice", model.CreateOfferRequest{
		MakerTicketID:   aliceTicket,
		DesiredTicketID: aliceTicket,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = env.swaps.CreateOffer(ctx, "0xmallory", model.CreateOfferRequest{
		MakerTicketID:   aliceTicket,
		DesiredTicketID: bobTicket,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	offer, err := env.swaps.CreateOffer(ctx, "0xalice", model.CreateOfferRequest{
		MakerTicketID:   aliceTicket,
		DesiredTicketID: bobTicket,
	})
	require.NoError(t, err)
	assert.True(t, offer.Active)
	assert.Equal(t, "0xalice", offer.Maker)
}

func TestAcceptOffer_ExchangesAndCollectsFee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	aliceTicket, bobTicket := swapPair(t, env)

	offer, err := env.swaps.CreateOffer(ctx, "0xalice", model.CreateOfferRequest{
		MakerTicketID:   aliceTicket,
		DesiredTicketID: bobTicket,
	})
	require.NoError(t, err)

	fee := testPlatform.SwapPlatformFee

	assert.ErrorIs(t, env.swaps.AcceptOffer(ctx, "0xbob", offer.ID, fee.Sub(wei("1"))), apperrors.ErrIncorrectFee)
	assert.ErrorIs(t, env.swaps.AcceptOffer(ctx, "0xalice", offer.ID, fee), apperrors.ErrSelfAccept)
	assert.ErrorIs(t, env.swaps.AcceptOffer(ctx, "0xmallory", offer.ID, fee), apperrors.ErrNotDesiredOwner)

	require.NoError(t, env.swaps.AcceptOffer(ctx, "0xbob", offer.ID, fee))

	ticketA, err := env.ticketRepo.FindByID(ctx, aliceTicket)
	require.NoError(t, err)
	ticketB, err := env.ticketRepo.FindByID(ctx, bobTicket)
	require.NoError(t, err)
	assert.Equal(t, "0xbob", ticketA.Owner)
	assert.Equal(t, "0xalice", ticketB.Owner)

	balance, err := env.settingsRepo.GetDecimal(ctx, repository.SettingSwapFeeBalance)
	require.NoError(t, err)
	assert.True(t, balance.Equal(fee), "got %s", balance)

	assert.ErrorIs(t, env.swaps.AcceptOffer(ctx, "0xbob", offer.ID, fee), apperrors.ErrOfferNotActive)
}

func TestAcceptOffer_MakerNoLongerOwns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	aliceTicket, bobTicket := swapPair(t, env)

	offer, err := env.swaps.CreateOffer(ctx, "0xalice", model.CreateOfferRequest{
		MakerTicketID:   aliceTicket,
		DesiredTicketID: bobTicket,
	})
	require.NoError(t, err)

	// Maker gives the ticket away after posting the offer.
	require.NoError(t, env.registry.Transfer(ctx, "0xalice", aliceTicket, "0xcarol"))

	err = env.swaps.AcceptOffer(ctx, "0xbob", offer.ID, testPlatform.SwapPlatformFee)
	assert.ErrorIs(t, err, apperrors.ErrMakerNoLongerOwns)
}

func TestCancelOffer_MakerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	aliceTicket, bobTicket := swapPair(t, env)

	offer, err := env.swaps.CreateOffer(ctx, "0xalice", model.CreateOfferRequest{
		MakerTicketID:   aliceTicket,
		DesiredTicketID: bobTicket,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, env.swaps.CancelOffer(ctx, "0xbob", offer.ID), apperrors.ErrUnauthorizedSwap)
	require.NoError(t, env.swaps.CancelOffer(ctx, "0xalice", offer.ID))

	err = env.swaps.AcceptOffer(ctx, "0xbob", offer.ID, testPlatform.SwapPlatformFee)
	assert.ErrorIs(t, err, apperrors.ErrOfferNotActive)
}

func TestWithdrawFees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	aliceTicket, bobTicket := swapPair(t, env)

	offer, err := env.swaps.CreateOffer(ctx, "0xalice", model.CreateOfferRequest{
		MakerTicketID:   aliceTicket,
		DesiredTicketID: bobTicket,
	})
	require.NoError(t, err)
	require.NoError(t, env.swaps.AcceptOffer(ctx, "0xbob", offer.ID, testPlatform.SwapPlatformFee))

	_, err = env.swaps.WithdrawFees(ctx, "0xmallory")
	assert.ErrorIs(t, err, apperrors.ErrNotPlatformOwner)

	amount, err := env.swaps.WithdrawFees(ctx, testPlatform.OwnerAddress)
	require.NoError(t, err)
	assert.True(t, amount.Equal(testPlatform.SwapPlatformFee), "got %s", amount)

	balance, err := env.settingsRepo.GetDecimal(ctx, repository.SettingSwapFeeBalance)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	rows, err := env.transferRepo.ListByAddress(ctx, testPlatform.OwnerAddress)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.TransferFeeWithdrawal, rows[0].Kind)

	// A second withdrawal finds nothing and records nothing.
	amount, err = env.swaps.WithdrawFees(ctx, testPlatform.OwnerAddress)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	rows, err = env.transferRepo.ListByAddress(ctx, testPlatform.OwnerAddress)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
