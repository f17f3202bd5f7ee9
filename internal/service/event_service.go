package service

import (
	"context"
	"ticketchain/config"
	"ticketchain/internal/model"
	"ticketchain/internal/notify"
	"ticketchain/internal/repository"
	apperrors "ticketchain/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// EventService is the catalog and primary purchase engine. Every mutating
// operation runs in one transaction with the decision rows locked, so supply
// can never oversell under concurrent buyers.
type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	ListSubEvents(ctx context.Context, eventID int64) ([]*model.SubEvent, error)
	CreateEvent(ctx context.Context, organiser string, req model.CreateEventRequest) (*model.Event, error)
	CreateMultiDayEvent(ctx context.Context, organiser string, req model.CreateMultiDayEventRequest) (*model.Event, error)
	BuyTickets(ctx context.Context, buyer string, eventID int64, req model.BuyTicketsRequest) (*model.PurchaseResult, error)
	BuyTicketsFor(ctx context.Context, caller string, eventID int64, req model.BuyTicketsForRequest) (*model.PurchaseResult, error)
	BuySubEventTickets(ctx context.Context, buyer string, subEventID int64, req model.BuyTicketsRequest) (*model.PurchaseResult, error)
	CloseEvent(ctx context.Context, caller string, eventID int64) error
	SetSubEventSwappable(ctx context.Context, caller string, subEventID int64, swappable bool) error
	CanSwapTickets(ctx context.Context, ticket1, ticket2 int64) (bool, error)
	SwapTickets(ctx context.Context, caller string, req model.SwapTicketsRequest) error
}

type EventServiceImpl struct {
	pool       *pgxpool.Pool
	repository repository.EventRepository
	ticketRepo repository.TicketRepository
	loyalty    LoyaltyService
	notifier   notify.Publisher
	platform   config.PlatformConfig
}

func NewEventService(
	pool *pgxpool.Pool,
	eventRepository repository.EventRepository,
	ticketRepository repository.TicketRepository,
	loyaltyService LoyaltyService,
	notifier notify.Publisher,
	platform config.PlatformConfig,
) EventService {
	return &EventServiceImpl{
		pool:       pool,
		repository: eventRepository,
		ticketRepo: ticketRepository,
		loyalty:    loyaltyService,
		notifier:   notifier,
		platform:   platform,
	}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repository.List(ctx)
}

func (s *EventServiceImpl) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	event, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.IsMultiDay {
		if event.SubEvents, err = s.repository.ListSubEvents(ctx, id); err != nil {
			return nil, err
		}
	}
	return event, nil
}

func (s *EventServiceImpl) ListSubEvents(ctx context.Context, eventID int64) ([]*model.SubEvent, error) {
	if _, err := s.repository.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repository.ListSubEvents(ctx, eventID)
}

func (s *EventServiceImpl) CreateEvent(ctx context.Context, organiser string, req model.CreateEventRequest) (*model.Event, error) {
	if req.TicketPrice.Sign() <= 0 {
		return nil, apperrors.ErrInvalidPrice
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	event, err := s.repository.Create(ctx, tx, &model.Event{
		Organiser:    organiser,
		Name:         req.Name,
		Venue:        req.Venue,
		Date:         req.Date,
		TicketPrice:  req.TicketPrice,
		TotalTickets: req.TotalTickets,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.EventCreated, event)
	return event, nil
}

func (s *EventServiceImpl) CreateMultiDayEvent(ctx context.Context, organiser string, req model.CreateMultiDayEventRequest) (*model.Event, error) {
	if len(req.Days) < 2 {
		return nil, apperrors.ErrMinimumDaysNotMet
	}
	if req.TicketPrice.Sign() <= 0 {
		return nil, apperrors.ErrInvalidPrice
	}

	total := 0
	lastDate := int64(0)
	for _, day := range req.Days {
		total += day.TotalTickets
		if day.Date > lastDate {
			lastDate = day.Date
		}
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Parent supply is the sum of the per-day supplies; the parent date is the
	// final day so Ended covers the whole run.
	event, err := s.repository.Create(ctx, tx, &model.Event{
		Organiser:    organiser,
		Name:         req.Name,
		Date:         lastDate,
		TicketPrice:  req.TicketPrice,
		TotalTickets: total,
		IsMultiDay:   true,
	})
	if err != nil {
		return nil, err
	}

	for i, day := range req.Days {
		subEvent, err := s.repository.CreateSubEvent(ctx, tx, &model.SubEvent{
			EventID:      event.ID,
			DayIndex:     i + 1,
			Venue:        day.Venue,
			Date:         day.Date,
			TotalTickets: day.TotalTickets,
			Swappable:    day.Swappable,
		})
		if err != nil {
			return nil, err
		}
		event.SubEvents = append(event.SubEvents, subEvent)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.EventCreated, event)
	return event, nil
}

func (s *EventServiceImpl) BuyTickets(ctx context.Context, buyer string, eventID int64, req model.BuyTicketsRequest) (*model.PurchaseResult, error) {
	return s.buy(ctx, buyer, eventID, req.Quantity, req.Payment, req.RedeemPoints)
}

// BuyTicketsFor is the oracle's buy-on-behalf path used by the fulfilment
// worker for queue-admitted orders.
func (s *EventServiceImpl) BuyTicketsFor(ctx context.Context, caller string, eventID int64, req model.BuyTicketsForRequest) (*model.PurchaseResult, error) {
	if caller != s.platform.OracleAddress {
		return nil, apperrors.ErrNotOracle
	}
	return s.buy(ctx, req.Beneficiary, eventID, req.Quantity, req.Payment, req.RedeemPoints)
}

func (s *EventServiceImpl) buy(ctx context.Context, buyer string, eventID int64, quantity int, payment decimal.Decimal, redeemPoints bool) (*model.PurchaseResult, error) {
	if quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	event, err := s.repository.FindByIDWithLock(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsMultiDay {
		return nil, apperrors.ErrBuyViaSubEvent
	}

	result, err := s.settle(ctx, tx, event, nil, buyer, quantity, payment, redeemPoints)
	if err != nil {
		return nil, err
	}

	if err := s.repository.IncrementSold(ctx, tx, event.ID, quantity); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publishPurchase(ctx, result)
	return result, nil
}

func (s *EventServiceImpl) BuySubEventTickets(ctx context.Context, buyer string, subEventID int64, req model.BuyTicketsRequest) (*model.PurchaseResult, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	subEvent, err := s.repository.FindSubEventByID(ctx, subEventID)
	if err != nil {
		return nil, err
	}

	// Lock parent before sub-event; all sub-event purchases of one run take
	// these locks in the same order.
	event, err := s.repository.FindByIDWithLock(ctx, tx, subEvent.EventID)
	if err != nil {
		return nil, err
	}
	subEvent, err = s.repository.FindSubEventByIDWithLock(ctx, tx, subEventID)
	if err != nil {
		return nil, err
	}

	result, err := s.settleSubEvent(ctx, tx, event, subEvent, buyer, req)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publishPurchase(ctx, result)
	return result, nil
}

func (s *EventServiceImpl) settleSubEvent(ctx context.Context, tx pgx.Tx, event *model.Event, subEvent *model.SubEvent, buyer string, req model.BuyTicketsRequest) (*model.PurchaseResult, error) {
	result, err := s.settle(ctx, tx, event, subEvent, buyer, req.Quantity, req.Payment, req.RedeemPoints)
	if err != nil {
		return nil, err
	}

	// Both counters move: the day's own supply and the parent aggregate.
	if err := s.repository.IncrementSubEventSold(ctx, tx, subEvent.ID, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.repository.IncrementSold(ctx, tx, event.ID, req.Quantity); err != nil {
		return nil, err
	}
	return result, nil
}

// settle performs the shared purchase checks, optional point redemption,
// exact-payment verification, minting and point award. Supply counters are
// the caller's responsibility.
func (s *EventServiceImpl) settle(ctx context.Context, tx pgx.Tx, event *model.Event, subEvent *model.SubEvent, buyer string, quantity int, payment decimal.Decimal, redeemPoints bool) (*model.PurchaseResult, error) {
	if !event.Active {
		return nil, apperrors.ErrEventNotActive
	}

	date := event.Date
	if subEvent != nil {
		date = subEvent.Date
	}
	if time.Now().UTC().Unix() >= date {
		return nil, apperrors.ErrEventEnded
	}

	// Supply before payment: a sold-out run is reported as such even when the
	// attached payment is also wrong. The guarded counter update re-checks
	// under the same lock.
	remaining := event.TotalTickets - event.TicketsSold
	if subEvent != nil {
		remaining = subEvent.TotalTickets - subEvent.TicketsSold
	}
	if quantity > remaining {
		return nil, apperrors.ErrInsufficientSupply
	}

	total := event.TicketPrice.Mul(decimal.NewFromInt(int64(quantity)))

	discount := decimal.Zero
	redeemed := decimal.Zero
	if redeemPoints {
		var err error
		if discount, redeemed, err = s.loyalty.RedeemInTx(ctx, tx, buyer, total); err != nil {
			return nil, err
		}
	}

	due := total.Sub(discount)
	if !payment.Equal(due) {
		return nil, apperrors.ErrIncorrectPayment
	}

	var subEventID *int64
	if subEvent != nil {
		subEventID = &subEvent.ID
	}

	ticketIDs := make([]int64, 0, quantity)
	for i := 0; i < quantity; i++ {
		ticket, err := s.ticketRepo.Mint(ctx, tx, &model.Ticket{
			EventID:    event.ID,
			SubEventID: subEventID,
			Owner:      buyer,
		})
		if err != nil {
			return nil, err
		}
		ticketIDs = append(ticketIDs, ticket.ID)
	}

	// Points accrue on wei actually paid, not on the discounted part.
	awarded := decimal.Zero
	if due.Sign() > 0 {
		var err error
		if awarded, err = s.loyalty.AwardInTx(ctx, tx, buyer, due); err != nil {
			return nil, err
		}
	}

	return &model.PurchaseResult{
		EventID:    event.ID,
		SubEventID: subEventID,
		Buyer:      buyer,
		Quantity:   quantity,
		TotalPaid:  due,
		Discount:   discount,
		Points:     awarded,
		PointsUsed: redeemed,
		TicketIDs:  ticketIDs,
	}, nil
}

// publishPurchase emits the purchase and its loyalty side effects once the
// transaction has committed.
func (s *EventServiceImpl) publishPurchase(ctx context.Context, result *model.PurchaseResult) {
	s.notifier.Publish(ctx, notify.TicketsPurchased, result)
	if result.PointsUsed.Sign() > 0 {
		s.notifier.Publish(ctx, notify.PointsRedeemedTicket, map[string]any{
			"user":     result.Buyer,
			"points":   result.PointsUsed.String(),
			"discount": result.Discount.String(),
		})
	}
	if result.Points.Sign() > 0 {
		s.notifier.Publish(ctx, notify.PointsAwarded, map[string]any{
			"user":      result.Buyer,
			"wei_spent": result.TotalPaid.String(),
			"points":    result.Points.String(),
		})
	}
}

func (s *EventServiceImpl) CloseEvent(ctx context.Context, caller string, eventID int64) error {
	if caller != s.platform.OracleAddress {
		return apperrors.ErrNotOracle
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.repository.Close(ctx, tx, eventID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.EventClosed, map[string]any{
		"event_id": eventID,
	})
	return nil
}

func (s *EventServiceImpl) SetSubEventSwappable(ctx context.Context, caller string, subEventID int64, swappable bool) error {
	if caller != s.platform.OracleAddress {
		return apperrors.ErrNotOracle
	}

	if err := s.repository.SetSubEventSwappable(ctx, subEventID, swappable); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.SubEventSwappableSet, map[string]any{
		"sub_event_id": subEventID,
		"swappable":    swappable,
	})
	return nil
}

func (s *EventServiceImpl) CanSwapTickets(ctx context.Context, ticket1, ticket2 int64) (bool, error) {
	if ticket1 == ticket2 {
		return false, nil
	}

	t1, err := s.ticketRepo.FindByID(ctx, ticket1)
	if err != nil {
		return false, err
	}
	t2, err := s.ticketRepo.FindByID(ctx, ticket2)
	if err != nil {
		return false, err
	}

	return s.swappable(ctx, t1, t2)
}

// swappable: used tickets never swap; single-day tickets swap within their
// own event; multi-day tickets swap across days of the same run when both
// days are flagged swappable. Cross-event swaps are always refused.
func (s *EventServiceImpl) swappable(ctx context.Context, t1, t2 *model.Ticket) (bool, error) {
	if t1.Used || t2.Used {
		return false, nil
	}
	if t1.EventID != t2.EventID {
		return false, nil
	}

	if t1.SubEventID == nil && t2.SubEventID == nil {
		return true, nil
	}
	if t1.SubEventID == nil || t2.SubEventID == nil {
		return false, nil
	}

	s1, err := s.repository.FindSubEventByID(ctx, *t1.SubEventID)
	if err != nil {
		return false, err
	}
	s2, err := s.repository.FindSubEventByID(ctx, *t2.SubEventID)
	if err != nil {
		return false, err
	}
	return s1.Swappable && s2.Swappable, nil
}

func (s *EventServiceImpl) SwapTickets(ctx context.Context, caller string, req model.SwapTicketsRequest) error {
	if caller != req.Owner1 && caller != req.Owner2 {
		return apperrors.ErrUnauthorizedSwap
	}
	if req.Ticket1 == req.Ticket2 {
		return apperrors.ErrSwapNotAllowed
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	t1, t2, err := s.lockTicketPair(ctx, tx, req.Ticket1, req.Ticket2)
	if err != nil {
		return err
	}

	if t1.Owner != req.Owner1 || t2.Owner != req.Owner2 {
		return apperrors.ErrWrongOwner
	}
	if t1.InEscrow() || t2.InEscrow() {
		return apperrors.ErrTicketInEscrow
	}

	ok, err := s.swappable(ctx, t1, t2)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrSwapNotAllowed
	}

	for _, owner := range []string{t1.Owner, t2.Owner} {
		approved, err := s.ticketRepo.IsApprovedForAllTx(ctx, tx, owner, s.platform.SwapAddress)
		if err != nil {
			return err
		}
		if !approved {
			return apperrors.ErrNotApproved
		}
	}

	if err := s.ticketRepo.SetOwner(ctx, tx, t1.ID, req.Owner2, req.Owner2); err != nil {
		return err
	}
	if err := s.ticketRepo.SetOwner(ctx, tx, t2.ID, req.Owner1, req.Owner1); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notifier.Publish(ctx, notify.TicketsSwapped, map[string]any{
		"ticket_1": t1.ID,
		"ticket_2": t2.ID,
		"owner_1":  req.Owner1,
		"owner_2":  req.Owner2,
	})
	return nil
}

// lockTicketPair locks two tickets in ascending id order to keep concurrent
// swaps deadlock-free.
func (s *EventServiceImpl) lockTicketPair(ctx context.Context, tx pgx.Tx, id1, id2 int64) (*model.Ticket, *model.Ticket, error) {
	first, second := id1, id2
	if second < first {
		first, second = second, first
	}

	a, err := s.ticketRepo.FindByIDWithLock(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.ticketRepo.FindByIDWithLock(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}

	if a.ID == id1 {
		return a, b, nil
	}
	return b, a, nil
}
