package model

import (
	"database/sql"
	"time"
)

// Event represents an event open for registration.
type Event struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	StartDate      time.Time    `json:"start_date"`
	EndDate        time.Time    `json:"end_date"`
	Location       string       `json:"location"`
	MaleSeats      int64        `json:"male_seats"`
	FemaleSeats    int64        `json:"female_seats"`
	Price          float64      `json:"price"`
	CreatedBy      int64        `json:"created_by"`
	ReminderSentAt sql.NullTime `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsPaid returns true if registering for the event requires a payment.
func (e *Event) IsPaid() bool {
	return e.Price > 0
}

// RegistrationClosed reports whether registration has closed as of now.
func (e *Event) RegistrationClosed(now time.Time) bool {
	return now.After(e.EndDate)
}

// Bucket identifies one of the two seat-capacity pools.
type Bucket int

// Seat-capacity buckets. Genders MALE and OTHER count against the male
// pool, FEMALE against the female pool.
const (
	BucketMale Bucket = iota
	BucketFemale
)

// BucketForGender resolves a gender value to its capacity bucket.
func BucketForGender(gender string) Bucket {
	if gender == GenderFemale {
		return BucketFemale
	}
	return BucketMale
}

// SeatsForBucket returns the configured capacity of the given bucket.
func (e *Event) SeatsForBucket(b Bucket) int64 {
	if b == BucketFemale {
		return e.FemaleSeats
	}
	return e.MaleSeats
}
