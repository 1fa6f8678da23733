package scheduler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saif-byte/event-website/internal/model"
	"github.com/saif-byte/event-website/internal/notify"
	"github.com/saif-byte/event-website/internal/store"
	"github.com/saif-byte/event-website/internal/testutil"
)

// testScheduler wires a scheduler to a test database and a mail API stub
// that counts deliveries.
func testScheduler(t *testing.T) (*Scheduler, *sql.DB, *atomic.Int64) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	var delivered atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	mailer := notify.NewMailer(notify.Config{
		APIURL:  srv.URL,
		APIKey:  "test-key",
		Sender:  "events@example.com",
		Workers: 1,
	}, testutil.TestLogger())
	mailer.Start(context.Background())
	t.Cleanup(mailer.Stop)

	return New(db, mailer, testutil.TestLogger()), db, &delivered
}

func insertUser(t *testing.T, db *sql.DB, email string) model.User {
	t.Helper()
	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Name:         "Registrant",
		Email:        email,
		PasswordHash: "x",
		Gender:       model.GenderFemale,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

func insertEvent(t *testing.T, db *sql.DB, start time.Time) model.Event {
	t.Helper()
	now := time.Now()
	event, err := store.New(db).CreateEvent(context.Background(), store.CreateEventParams{
		Name:        "Reminder Event",
		Description: "d",
		StartDate:   start,
		EndDate:     start.Add(3 * time.Hour),
		Location:    "Hall",
		MaleSeats:   10,
		FemaleSeats: 10,
		Price:       0,
		CreatedBy:   1,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("creating event: %v", err)
	}
	return event
}

func register(t *testing.T, db *sql.DB, event model.Event, user model.User) {
	t.Helper()
	n, err := store.New(db).InsertRegistrationIfCapacity(context.Background(), store.InsertRegistrationIfCapacityParams{
		EventID:   event.ID,
		UserID:    user.ID,
		Gender:    user.Gender,
		CreatedAt: time.Now(),
		Capacity:  10,
	})
	if err != nil || n != 1 {
		t.Fatalf("registering user: n=%d err=%v", n, err)
	}
}

func waitDelivered(t *testing.T, delivered *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if delivered.Load() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("delivered = %d, want %d", delivered.Load(), want)
}

func TestRunRemindersSendsWithinWindow(t *testing.T) {
	s, db, delivered := testScheduler(t)
	ctx := context.Background()

	event := insertEvent(t, db, time.Now().Add(6*time.Hour))
	register(t, db, event, insertUser(t, db, "a@example.com"))
	register(t, db, event, insertUser(t, db, "b@example.com"))

	s.RunReminders(ctx)
	waitDelivered(t, delivered, 2)

	got, err := store.New(db).GetEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("fetching event: %v", err)
	}
	if !got.ReminderSentAt.Valid {
		t.Error("reminder_sent_at should be set after the sweep")
	}
}

func TestRunRemindersSendsAtMostOnce(t *testing.T) {
	s, db, delivered := testScheduler(t)
	ctx := context.Background()

	event := insertEvent(t, db, time.Now().Add(6*time.Hour))
	register(t, db, event, insertUser(t, db, "once@example.com"))

	s.RunReminders(ctx)
	waitDelivered(t, delivered, 1)

	// A second sweep must skip the already-marked event.
	s.RunReminders(ctx)
	time.Sleep(50 * time.Millisecond)
	if got := delivered.Load(); got != 1 {
		t.Errorf("delivered = %d after second sweep, want 1", got)
	}
}

func TestRunRemindersIgnoresEventsOutsideWindow(t *testing.T) {
	s, db, delivered := testScheduler(t)
	ctx := context.Background()

	farOut := insertEvent(t, db, time.Now().Add(72*time.Hour))
	register(t, db, farOut, insertUser(t, db, "far@example.com"))

	past := insertEvent(t, db, time.Now().Add(-2*time.Hour))
	register(t, db, past, insertUser(t, db, "past@example.com"))

	s.RunReminders(ctx)
	time.Sleep(50 * time.Millisecond)
	if got := delivered.Load(); got != 0 {
		t.Errorf("delivered = %d, want 0 for events outside the window", got)
	}

	queries := store.New(db)
	for _, event := range []model.Event{farOut, past} {
		got, err := queries.GetEvent(ctx, event.ID)
		if err != nil {
			t.Fatalf("fetching event: %v", err)
		}
		if got.ReminderSentAt.Valid {
			t.Errorf("event %d outside window must stay unmarked", event.ID)
		}
	}
}

func TestRunRemindersEventWithoutRegistrants(t *testing.T) {
	s, db, _ := testScheduler(t)
	ctx := context.Background()

	event := insertEvent(t, db, time.Now().Add(6*time.Hour))
	s.RunReminders(ctx)

	got, err := store.New(db).GetEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("fetching event: %v", err)
	}
	if !got.ReminderSentAt.Valid {
		t.Error("empty events are still marked so they are not rescanned")
	}
}

func TestStartStop(t *testing.T) {
	s, _, _ := testScheduler(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
