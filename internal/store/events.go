package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/saif-byte/event-website/internal/model"
)

const eventColumns = `
	id, name, description, start_date, end_date, location,
	male_seats, female_seats, price, created_by, reminder_sent_at,
	created_at, updated_at`

// bucket occupancy subselects shared by the listing queries
const bucketCountSelects = `
	(SELECT COUNT(*) FROM registrations r
	 WHERE r.event_id = e.id AND r.gender IN ('MALE', 'OTHER')) AS male_taken,
	(SELECT COUNT(*) FROM registrations r
	 WHERE r.event_id = e.id AND r.gender = 'FEMALE') AS female_taken`

const createEvent = `
INSERT INTO events (name, description, start_date, end_date, location,
                    male_seats, female_seats, price, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING` + eventColumns

// CreateEventParams holds the fields needed to create an event.
type CreateEventParams struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Location    string
	MaleSeats   int64
	FemaleSeats int64
	Price       float64
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateEvent inserts a new event and returns the stored record.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.Name,
		arg.Description,
		arg.StartDate,
		arg.EndDate,
		arg.Location,
		arg.MaleSeats,
		arg.FemaleSeats,
		arg.Price,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanEvent(row)
}

const getEvent = `SELECT` + eventColumns + ` FROM events WHERE id = ?`

// GetEvent fetches an event by ID. Returns sql.ErrNoRows when absent.
func (q *Queries) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, getEvent, id))
}

const updateEvent = `
UPDATE events
SET name = ?, description = ?, start_date = ?, end_date = ?, location = ?,
    male_seats = ?, female_seats = ?, price = ?, updated_at = ?
WHERE id = ?
RETURNING` + eventColumns

// UpdateEventParams holds the full field set for an event update. Partial
// update semantics (presence checks) are resolved by the caller before the
// row is written, so zero is always a legal value here.
type UpdateEventParams struct {
	ID          int64
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Location    string
	MaleSeats   int64
	FemaleSeats int64
	Price       float64
	UpdatedAt   time.Time
}

// UpdateEvent rewrites an event's mutable fields and returns the stored record.
func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (model.Event, error) {
	row := q.db.QueryRowContext(ctx, updateEvent,
		arg.Name,
		arg.Description,
		arg.StartDate,
		arg.EndDate,
		arg.Location,
		arg.MaleSeats,
		arg.FemaleSeats,
		arg.Price,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanEvent(row)
}

const deleteEvent = `DELETE FROM events WHERE id = ?`

// DeleteEvent removes an event. Registrations cascade. Returns the number
// of rows deleted so callers can distinguish a missing event.
func (q *Queries) DeleteEvent(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEvent, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countEvents = `SELECT COUNT(*) FROM events WHERE name LIKE ?`

// CountEvents returns the number of events matching the search term.
func (q *Queries) CountEvents(ctx context.Context, search string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countEvents, likePattern(search)).Scan(&count)
	return count, err
}

// EventWithCounts is an event row annotated with per-bucket occupancy.
type EventWithCounts struct {
	model.Event
	MaleTaken   int64
	FemaleTaken int64
}

// TakenForBucket returns the current occupancy of the given bucket.
func (e *EventWithCounts) TakenForBucket(b model.Bucket) int64 {
	if b == model.BucketFemale {
		return e.FemaleTaken
	}
	return e.MaleTaken
}

const listEvents = `
SELECT e.id, e.name, e.description, e.start_date, e.end_date, e.location,
       e.male_seats, e.female_seats, e.price, e.created_by, e.reminder_sent_at,
       e.created_at, e.updated_at,` + bucketCountSelects + `
FROM events e
WHERE e.name LIKE ?
ORDER BY e.created_at DESC
LIMIT ? OFFSET ?
`

// ListEventsParams holds paging and filtering for event listings.
type ListEventsParams struct {
	Search string
	Limit  int64
	Offset int64
}

// ListEvents returns a page of events with bucket occupancy, newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]EventWithCounts, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, likePattern(arg.Search), arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EventWithCounts
	for rows.Next() {
		var e EventWithCounts
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Location,
			&e.MaleSeats, &e.FemaleSeats, &e.Price, &e.CreatedBy, &e.ReminderSentAt,
			&e.CreatedAt, &e.UpdatedAt, &e.MaleTaken, &e.FemaleTaken,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// EventForViewer is an event row annotated with bucket occupancy and the
// viewing user's own registration state.
type EventForViewer struct {
	EventWithCounts
	Registered     bool
	PaymentPending sql.NullBool
}

const listEventsForUser = `
SELECT e.id, e.name, e.description, e.start_date, e.end_date, e.location,
       e.male_seats, e.female_seats, e.price, e.created_by, e.reminder_sent_at,
       e.created_at, e.updated_at,` + bucketCountSelects + `,
       mine.id IS NOT NULL AS registered,
       mine.payment_pending
FROM events e
LEFT JOIN registrations mine ON mine.event_id = e.id AND mine.user_id = ?
WHERE e.name LIKE ?
ORDER BY e.created_at DESC
LIMIT ? OFFSET ?
`

// ListEventsForUserParams holds paging, filtering and the viewer identity.
type ListEventsForUserParams struct {
	UserID int64
	Search string
	Limit  int64
	Offset int64
}

// ListEventsForUser returns a page of events annotated for one viewer.
func (q *Queries) ListEventsForUser(ctx context.Context, arg ListEventsForUserParams) ([]EventForViewer, error) {
	rows, err := q.db.QueryContext(ctx, listEventsForUser,
		arg.UserID, likePattern(arg.Search), arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EventForViewer
	for rows.Next() {
		var e EventForViewer
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Location,
			&e.MaleSeats, &e.FemaleSeats, &e.Price, &e.CreatedBy, &e.ReminderSentAt,
			&e.CreatedAt, &e.UpdatedAt, &e.MaleTaken, &e.FemaleTaken,
			&e.Registered, &e.PaymentPending,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const listEventsNeedingReminder = `
SELECT` + eventColumns + `
FROM events
WHERE start_date > ? AND start_date <= ? AND reminder_sent_at IS NULL
ORDER BY start_date
`

// ListEventsNeedingReminder returns events starting inside (from, to] whose
// reminder has not been sent yet.
func (q *Queries) ListEventsNeedingReminder(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEventsNeedingReminder, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Location,
			&e.MaleSeats, &e.FemaleSeats, &e.Price, &e.CreatedBy, &e.ReminderSentAt,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const markReminderSent = `UPDATE events SET reminder_sent_at = ? WHERE id = ?`

// MarkReminderSent records that the reminder for an event went out.
func (q *Queries) MarkReminderSent(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, markReminderSent, at, id)
	return err
}

func scanEvent(row *sql.Row) (model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Location,
		&e.MaleSeats, &e.FemaleSeats, &e.Price, &e.CreatedBy, &e.ReminderSentAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// likePattern wraps a search term for a substring LIKE match. An empty
// term matches everything.
func likePattern(search string) string {
	return "%" + search + "%"
}
