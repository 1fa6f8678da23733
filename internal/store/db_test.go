package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/saif-byte/event-website/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "rsvp-store-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	_ = f.Close()

	db, err := NewDB(f.Name())
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(f.Name())
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func seedRegistration(t *testing.T, db *sql.DB) (model.Event, model.User) {
	t.Helper()
	ctx := context.Background()
	queries := New(db)
	now := time.Now()

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Name:         "Registrant",
		Email:        "registrant@example.com",
		PasswordHash: "x",
		Gender:       model.GenderMale,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	event, err := queries.CreateEvent(ctx, CreateEventParams{
		Name:        "Cascade Event",
		Description: "d",
		StartDate:   now.Add(24 * time.Hour),
		EndDate:     now.Add(48 * time.Hour),
		Location:    "Hall",
		MaleSeats:   5,
		FemaleSeats: 5,
		CreatedBy:   user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("creating event: %v", err)
	}

	n, err := queries.InsertRegistrationIfCapacity(ctx, InsertRegistrationIfCapacityParams{
		EventID:   event.ID,
		UserID:    user.ID,
		Gender:    user.Gender,
		CreatedAt: now,
		Capacity:  5,
	})
	if err != nil || n != 1 {
		t.Fatalf("registering: n=%d err=%v", n, err)
	}
	return event, user
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Hold the first connection open so the second call gets a fresh one.
	conn1, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("first connection: %v", err)
	}
	defer conn1.Close()

	conn2, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("second connection: %v", err)
	}
	defer conn2.Close()

	for i, conn := range []*sql.Conn{conn1, conn2} {
		var on int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatalf("reading foreign_keys on connection %d: %v", i+1, err)
		}
		if on != 1 {
			t.Errorf("foreign_keys = %d on connection %d, want 1", on, i+1)
		}
	}
}

func TestDeleteEventCascadesOnEveryConnection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	event, _ := seedRegistration(t, db)

	// Pin one connection so the delete below must run on another.
	pinned, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("pinning connection: %v", err)
	}
	defer pinned.Close()

	other, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("second connection: %v", err)
	}
	defer other.Close()

	if _, err := other.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, event.ID); err != nil {
		t.Fatalf("deleting event: %v", err)
	}

	var orphans int64
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = ?`, event.ID).Scan(&orphans)
	if err != nil {
		t.Fatalf("counting registrations: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphaned registrations after delete = %d, want 0", orphans)
	}
}
