package repository

import (
	"context"
	"ticketchain/internal/model"
	apperrors "ticketchain/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	List(ctx context.Context) ([]*model.Event, error)
	FindByID(ctx context.Context, id int64) (*model.Event, error)
	FindSubEventByID(ctx context.Context, id int64) (*model.SubEvent, error)
	ListSubEvents(ctx context.Context, eventID int64) ([]*model.SubEvent, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, event *model.Event) (*model.Event, error)
	CreateSubEvent(ctx context.Context, tx pgx.Tx, subEvent *model.SubEvent) (*model.SubEvent, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.Event, error)
	FindSubEventByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.SubEvent, error)
	IncrementSold(ctx context.Context, tx pgx.Tx, id int64, quantity int) error
	IncrementSubEventSold(ctx context.Context, tx pgx.Tx, id int64, quantity int) error
	Close(ctx context.Context, tx pgx.Tx, id int64) error
	SetSubEventSwappable(ctx context.Context, id int64, swappable bool) error
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `
	id, organiser, name, venue, date, ticket_price::text,
	total_tickets, tickets_sold, active, is_multi_day,
	created_at, updated_at
`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	var price string
	err := row.Scan(
		&event.ID,
		&event.Organiser,
		&event.Name,
		&event.Venue,
		&event.Date,
		&price,
		&event.TotalTickets,
		&event.TicketsSold,
		&event.Active,
		&event.IsMultiDay,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	if event.TicketPrice, err = parseNumeric(price); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, event *model.Event) (*model.Event, error) {
	query := `
		INSERT INTO events (organiser, name, venue, date, ticket_price, total_tickets, is_multi_day)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
		RETURNING ` + eventColumns

	return scanEvent(tx.QueryRow(ctx, query,
		event.Organiser, event.Name, event.Venue, event.Date,
		event.TicketPrice.String(), event.TotalTickets, event.IsMultiDay,
	))
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	return scanEvent(r.pool.QueryRow(ctx, query, id))
}

func (r *EventRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
		FOR UPDATE
	`
	return scanEvent(tx.QueryRow(ctx, query, id))
}

func (r *EventRepositoryImpl) IncrementSold(ctx context.Context, tx pgx.Tx, id int64, quantity int) error {
	query := `
		UPDATE events
		SET tickets_sold = tickets_sold + $1, updated_at = $2
		WHERE id = $3 AND tickets_sold + $1 <= total_tickets
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInsufficientSupply
	}

	return nil
}

func (r *EventRepositoryImpl) Close(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `
		UPDATE events
		SET active = FALSE, updated_at = $1
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}

const subEventColumns = `
	id, event_id, day_index, venue, date,
	total_tickets, tickets_sold, swappable, created_at, updated_at
`

func scanSubEvent(row pgx.Row) (*model.SubEvent, error) {
	var subEvent model.SubEvent
	err := row.Scan(
		&subEvent.ID,
		&subEvent.EventID,
		&subEvent.DayIndex,
		&subEvent.Venue,
		&subEvent.Date,
		&subEvent.TotalTickets,
		&subEvent.TicketsSold,
		&subEvent.Swappable,
		&subEvent.CreatedAt,
		&subEvent.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrSubEventNotFound
		}
		return nil, err
	}
	return &subEvent, nil
}

func (r *EventRepositoryImpl) CreateSubEvent(ctx context.Context, tx pgx.Tx, subEvent *model.SubEvent) (*model.SubEvent, error) {
	query := `
		INSERT INTO sub_events (event_id, day_index, venue, date, total_tickets, swappable)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + subEventColumns

	return scanSubEvent(tx.QueryRow(ctx, query,
		subEvent.EventID, subEvent.DayIndex, subEvent.Venue,
		subEvent.Date, subEvent.TotalTickets, subEvent.Swappable,
	))
}

func (r *EventRepositoryImpl) FindSubEventByID(ctx context.Context, id int64) (*model.SubEvent, error) {
	query := `
		SELECT ` + subEventColumns + `
		FROM sub_events
		WHERE id = $1
	`
	return scanSubEvent(r.pool.QueryRow(ctx, query, id))
}

func (r *EventRepositoryImpl) FindSubEventByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.SubEvent, error) {
	query := `
		SELECT ` + subEventColumns + `
		FROM sub_events
		WHERE id = $1
		FOR UPDATE
	`
	return scanSubEvent(tx.QueryRow(ctx, query, id))
}

func (r *EventRepositoryImpl) ListSubEvents(ctx context.Context, eventID int64) ([]*model.SubEvent, error) {
	query := `
		SELECT ` + subEventColumns + `
		FROM sub_events
		WHERE event_id = $1
		ORDER BY day_index
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subEvents := make([]*model.SubEvent, 0)
	for rows.Next() {
		subEvent, err := scanSubEvent(rows)
		if err != nil {
			return nil, err
		}
		subEvents = append(subEvents, subEvent)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subEvents, nil
}

func (r *EventRepositoryImpl) IncrementSubEventSold(ctx context.Context, tx pgx.Tx, id int64, quantity int) error {
	query := `
		UPDATE sub_events
		SET tickets_sold = tickets_sold + $1, updated_at = $2
		WHERE id = $3 AND tickets_sold + $1 <= total_tickets
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInsufficientSupply
	}

	return nil
}

func (r *EventRepositoryImpl) SetSubEventSwappable(ctx context.Context, id int64, swappable bool) error {
	query := `
		UPDATE sub_events
		SET swappable = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, swappable, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrSubEventNotFound
	}

	return nil
}
