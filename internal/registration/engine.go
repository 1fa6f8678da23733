// Package registration implements the seat-allocation and
// registration-state rules for events: gender-bucketed capacity checks,
// one registration per user per event, and payment tracking.
package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/saif-byte/event-website/internal/model"
	"github.com/saif-byte/event-website/internal/store"
)

// Typed failures returned by the engine. The handler layer maps these to
// HTTP statuses.
var (
	ErrEventNotFound       = errors.New("event not found")
	ErrRegistrationClosed  = errors.New("event registration closed")
	ErrAlreadyRegistered   = errors.New("user already registered for this event")
	ErrSeatsUnavailable    = errors.New("no more seats available")
	ErrNotRegistered       = errors.New("user not registered for this event")
	ErrRegistrationMissing = errors.New("registration not found")
)

// Notifier receives best-effort registration notices. Implementations must
// never block; failures are the implementation's problem, not the engine's.
type Notifier interface {
	EnqueueRegistrationNotice(user model.User, event model.Event, paid bool)
}

// Engine enforces the registration rules against the store.
type Engine struct {
	queries  *store.Queries
	notifier Notifier
	now      func() time.Time
}

// New creates an Engine. notifier may be nil, in which case no notices are
// sent.
func New(db *sql.DB, notifier Notifier) *Engine {
	return &Engine{
		queries:  store.New(db),
		notifier: notifier,
		now:      time.Now,
	}
}

// Register registers user for the event, enforcing the end-date cutoff,
// the one-registration-per-user rule and the gender-bucket seat limit.
// The capacity check and the registration append run as a single
// conditional insert at the storage layer, so concurrent registrations
// cannot overbook a bucket.
func (e *Engine) Register(ctx context.Context, eventID int64, user model.User) (model.Event, model.Registration, error) {
	event, err := e.queries.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, model.Registration{}, ErrEventNotFound
		}
		return model.Event{}, model.Registration{}, fmt.Errorf("loading event: %w", err)
	}

	if event.RegistrationClosed(e.now()) {
		return model.Event{}, model.Registration{}, ErrRegistrationClosed
	}

	if _, err := e.queries.GetRegistration(ctx, eventID, user.ID); err == nil {
		return model.Event{}, model.Registration{}, ErrAlreadyRegistered
	} else if !errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, model.Registration{}, fmt.Errorf("checking registration: %w", err)
	}

	bucket := model.BucketForGender(user.Gender)
	inserted, err := e.queries.InsertRegistrationIfCapacity(ctx, store.InsertRegistrationIfCapacityParams{
		EventID:        eventID,
		UserID:         user.ID,
		Gender:         user.Gender,
		PaymentPending: event.IsPaid(),
		CreatedAt:      e.now(),
		Capacity:       event.SeatsForBucket(bucket),
	})
	if err != nil {
		// Lost a race with a concurrent registration by the same user.
		if store.IsUniqueViolation(err) {
			return model.Event{}, model.Registration{}, ErrAlreadyRegistered
		}
		return model.Event{}, model.Registration{}, fmt.Errorf("inserting registration: %w", err)
	}
	if inserted == 0 {
		return model.Event{}, model.Registration{}, ErrSeatsUnavailable
	}

	reg, err := e.queries.GetRegistration(ctx, eventID, user.ID)
	if err != nil {
		return model.Event{}, model.Registration{}, fmt.Errorf("loading registration: %w", err)
	}

	if e.notifier != nil {
		e.notifier.EnqueueRegistrationNotice(user, event, event.IsPaid())
	}

	return event, reg, nil
}

// Unregister removes the user's registration from the event. No capacity
// check is needed on removal and no notification is sent.
func (e *Engine) Unregister(ctx context.Context, eventID, userID int64) (model.Event, error) {
	event, err := e.queries.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("loading event: %w", err)
	}

	deleted, err := e.queries.DeleteRegistration(ctx, eventID, userID)
	if err != nil {
		return model.Event{}, fmt.Errorf("deleting registration: %w", err)
	}
	if deleted == 0 {
		return model.Event{}, ErrNotRegistered
	}

	return event, nil
}

// MarkPaymentComplete clears a registration's payment-pending flag. It is
// idempotent: already=true is returned without mutation when the payment
// was previously marked complete. There is no path back to pending.
func (e *Engine) MarkPaymentComplete(ctx context.Context, eventID, userID int64) (already bool, err error) {
	if _, err := e.queries.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrEventNotFound
		}
		return false, fmt.Errorf("loading event: %w", err)
	}

	reg, err := e.queries.GetRegistration(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrRegistrationMissing
		}
		return false, fmt.Errorf("loading registration: %w", err)
	}

	if !reg.PaymentPending {
		return true, nil
	}

	if err := e.queries.SetPaymentComplete(ctx, eventID, userID); err != nil {
		return false, fmt.Errorf("marking payment complete: %w", err)
	}
	return false, nil
}

// RemainingSeats resolves the viewer's gender to its capacity bucket and
// returns the remaining and total seats of that bucket, clamped at zero.
func RemainingSeats(event *store.EventWithCounts, viewerGender string) (remaining, total int64) {
	bucket := model.BucketForGender(viewerGender)
	total = event.SeatsForBucket(bucket)
	remaining = total - event.TakenForBucket(bucket)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, total
}
