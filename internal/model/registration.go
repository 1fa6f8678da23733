package model

import "time"

// Registration links one user to one event and carries payment status.
// The gender is snapshotted at registration time so seat accounting is
// stable even if the account record changes later.
type Registration struct {
	ID             int64     `json:"id"`
	EventID        int64     `json:"event_id"`
	UserID         int64     `json:"user_id"`
	Gender         string    `json:"gender"`
	PaymentPending bool      `json:"payment_pending"`
	CreatedAt      time.Time `json:"created_at"`
}
