package service

import (
	"context"
	"testing"

	apperrors "ticketchain/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer_OwnerAndOperator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("100"), 10)
	ticketID := buyTickets(t, env, "0xalice", event.ID, wei("100"), 1).TicketIDs[0]

	assert.ErrorIs(t, env.registry.Transfer(ctx, "0xmallory", ticketID, "0xmallory"), apperrors.ErrNotApproved)

	require.NoError(t, env.registry.Transfer(ctx, "0xalice", ticketID, "0xbob"))

	ticket, err := env.registry.GetTicket(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, "0xbob", ticket.Owner)
	assert.Equal(t, "0xbob", ticket.Holder)

	// An approved operator may move the ticket on the owner's behalf.
	require.NoError(t, env.registry.SetApprovalForAll(ctx, "0xbob", "0xoperator", true))
	require.NoError(t, env.registry.Transfer(ctx, "0xoperator", ticketID, "0xcarol"))

	ticket, err = env.registry.GetTicket(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, "0xcarol", ticket.Owner)

	// Revoked approval no longer moves anything.
	require.NoError(t, env.registry.SetApprovalForAll(ctx, "0xcarol", "0xoperator", true))
	require.NoError(t, env.registry.SetApprovalForAll(ctx, "0xcarol", "0xoperator", false))
	assert.ErrorIs(t, env.registry.Transfer(ctx, "0xoperator", ticketID, "0xdave"), apperrors.ErrNotApproved)
}

func TestSetApprovalForAll_RejectsSelf(t *testing.T) {
	env := newTestEnv(t)
	err := env.registry.SetApprovalForAll(context.Background(), "0xalice", "0xalice", true)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestMarkTicketUsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := createTestEvent(t, env, wei("100"), 10)
	ticketID := buyTickets(t, env, "0xalice", event.ID, wei("100"), 1).TicketIDs[0]

	assert.ErrorIs(t, env.registry.MarkTicketUsed(ctx, "0xalice", ticketID), apperrors.ErrNotOracle)
	assert.ErrorIs(t, env.registry.MarkTicketUsed(ctx, testPlatform.OracleAddress, ticketID+999), apperrors.ErrTicketNotFound)

	require.NoError(t, env.registry.MarkTicketUsed(ctx, testPlatform.OracleAddress, ticketID))
	assert.ErrorIs(t, env.registry.MarkTicketUsed(ctx, testPlatform.OracleAddress, ticketID), apperrors.ErrTicketUsed)

	ticket, err := env.registry.GetTicket(ctx, ticketID)
	require.NoError(t, err)
	assert.True(t, ticket.Used)

	// Used tickets stay transferable for collectors but cannot be re-used.
	require.NoError(t, env.registry.Transfer(ctx, "0xalice", ticketID, "0xbob"))
}
