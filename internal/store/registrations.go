package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/saif-byte/event-website/internal/model"
)

// insertRegistrationIfCapacity appends a registration only if the viewer's
// capacity bucket still has a free seat. The occupancy check and the insert
// run as one statement, so under SQLite's single-writer semantics two
// concurrent registrations cannot both take the last seat.
const insertRegistrationIfCapacity = `
INSERT INTO registrations (event_id, user_id, gender, payment_pending, created_at)
SELECT ?1, ?2, ?3, ?4, ?5
WHERE (SELECT COUNT(*) FROM registrations r
       WHERE r.event_id = ?1
         AND CASE WHEN ?3 = 'FEMALE'
             THEN r.gender = 'FEMALE'
             ELSE r.gender IN ('MALE', 'OTHER') END) < ?6
`

// InsertRegistrationIfCapacityParams holds the fields for a conditional
// registration insert.
type InsertRegistrationIfCapacityParams struct {
	EventID        int64
	UserID         int64
	Gender         string
	PaymentPending bool
	CreatedAt      time.Time
	Capacity       int64
}

// InsertRegistrationIfCapacity inserts a registration unless the bucket is
// full. Returns the number of rows inserted: zero means no seat was
// available. A unique-constraint error means the user was already
// registered.
func (q *Queries) InsertRegistrationIfCapacity(ctx context.Context, arg InsertRegistrationIfCapacityParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertRegistrationIfCapacity,
		arg.EventID,
		arg.UserID,
		arg.Gender,
		arg.PaymentPending,
		arg.CreatedAt,
		arg.Capacity,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getRegistration = `
SELECT id, event_id, user_id, gender, payment_pending, created_at
FROM registrations WHERE event_id = ? AND user_id = ?
`

// GetRegistration fetches one (event, user) registration. Returns
// sql.ErrNoRows when absent.
func (q *Queries) GetRegistration(ctx context.Context, eventID, userID int64) (model.Registration, error) {
	var r model.Registration
	err := q.db.QueryRowContext(ctx, getRegistration, eventID, userID).Scan(
		&r.ID, &r.EventID, &r.UserID, &r.Gender, &r.PaymentPending, &r.CreatedAt,
	)
	return r, err
}

const deleteRegistration = `DELETE FROM registrations WHERE event_id = ? AND user_id = ?`

// DeleteRegistration removes one (event, user) registration and returns the
// number of rows deleted.
func (q *Queries) DeleteRegistration(ctx context.Context, eventID, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRegistration, eventID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const setPaymentComplete = `
UPDATE registrations SET payment_pending = 0 WHERE event_id = ? AND user_id = ?
`

// SetPaymentComplete clears the payment-pending flag for one registration.
func (q *Queries) SetPaymentComplete(ctx context.Context, eventID, userID int64) error {
	_, err := q.db.ExecContext(ctx, setPaymentComplete, eventID, userID)
	return err
}

const countBucketMale = `
SELECT COUNT(*) FROM registrations WHERE event_id = ? AND gender IN ('MALE', 'OTHER')
`

const countBucketFemale = `
SELECT COUNT(*) FROM registrations WHERE event_id = ? AND gender = 'FEMALE'
`

// CountBucket returns the current occupancy of one capacity bucket.
func (q *Queries) CountBucket(ctx context.Context, eventID int64, bucket model.Bucket) (int64, error) {
	query := countBucketMale
	if bucket == model.BucketFemale {
		query = countBucketFemale
	}
	var count int64
	err := q.db.QueryRowContext(ctx, query, eventID).Scan(&count)
	return count, err
}

// RegistrationWithUser is a registration joined with the registrant's
// account details for the admin view. The password hash is never selected.
type RegistrationWithUser struct {
	model.Registration
	UserName        string
	UserEmail       string
	UserGender      string
	InstagramHandle sql.NullString
}

const listRegistrationsWithUsers = `
SELECT r.id, r.event_id, r.user_id, r.gender, r.payment_pending, r.created_at,
       u.name, u.email, u.gender, u.instagram_handle
FROM registrations r
JOIN users u ON u.id = r.user_id
WHERE r.event_id = ?
ORDER BY r.created_at
`

// ListRegistrationsWithUsers returns all registrations for an event joined
// with user detail, oldest first.
func (q *Queries) ListRegistrationsWithUsers(ctx context.Context, eventID int64) ([]RegistrationWithUser, error) {
	rows, err := q.db.QueryContext(ctx, listRegistrationsWithUsers, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RegistrationWithUser
	for rows.Next() {
		var r RegistrationWithUser
		if err := rows.Scan(
			&r.ID, &r.EventID, &r.UserID, &r.Gender, &r.PaymentPending, &r.CreatedAt,
			&r.UserName, &r.UserEmail, &r.UserGender, &r.InstagramHandle,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
