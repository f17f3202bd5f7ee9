package notify

import (
	"context"
	"encoding/json"
	"ticketchain/pkg/logger"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Domain event types consumed by downstream sinks (UI refresh, audit log).
const (
	EventCreated          = "EventCreated"
	EventClosed           = "EventClosed"
	SubEventSwappableSet  = "SubEventSwappableSet"
	TicketsPurchased      = "TicketsPurchased"
	TicketsSwapped        = "TicketsSwapped"
	TicketTransferred     = "TicketTransferred"
	TicketUsed            = "TicketUsed"
	Listed                = "Listed"
	Delisted              = "Delisted"
	Purchased             = "Purchased"
	OfferCreated          = "OfferCreated"
	OfferAccepted         = "OfferAccepted"
	OfferCancelled        = "OfferCancelled"
	FeesWithdrawn         = "FeesWithdrawn"
	PointsApproved        = "PointsApproved"
	PointsAwarded         = "PointsAwarded"
	PointsRedeemedTicket  = "PointsRedeemedTicket"
	PointsRedeemedQueue   = "PointsRedeemedQueue"
	RateUpdated           = "RateUpdated"
	SpenderSet            = "SpenderSet"
	ApprovalForAll        = "ApprovalForAll"
)

const StreamKey = "ticketchain:events"

// Publisher fans domain events out to the notification sink. Publishing is
// fire-and-forget: a sink failure is logged, never surfaced to the caller.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.WithComponent("notify").Error("marshal payload failed", zap.String("type", eventType), zap.Error(err))
		return
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		ID:     "*",
		Values: map[string]interface{}{
			"type":    eventType,
			"payload": string(body),
			"ts":      time.Now().UTC().Unix(),
		},
	}).Err()
	if err != nil {
		logger.WithComponent("notify").Error("XAdd failed", zap.String("type", eventType), zap.Error(err))
	}
}

// NopPublisher discards events, used in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType string, payload any) {}
