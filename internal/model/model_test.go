package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventEnded(t *testing.T) {
	now := time.Now().UTC()
	event := &Event{Date: now.Unix()}

	assert.True(t, event.Ended(now), "event ends exactly at its date")
	assert.True(t, event.Ended(now.Add(time.Hour)))
	assert.False(t, event.Ended(now.Add(-time.Hour)))
}

func TestTicketInEscrow(t *testing.T) {
	ticket := &Ticket{Owner: "alice", Holder: "alice"}
	assert.False(t, ticket.InEscrow())

	ticket.Holder = "0xmarket"
	assert.True(t, ticket.InEscrow())
}
