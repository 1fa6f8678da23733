package model

import "time"

// Contact represents a contact-form submission in the admin inbox.
type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	IsSeen    bool      `json:"is_seen"`
	CreatedAt time.Time `json:"created_at"`
}
