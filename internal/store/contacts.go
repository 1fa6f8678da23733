package store

import (
	"context"
	"time"

	"github.com/saif-byte/event-website/internal/model"
)

const createContact = `
INSERT INTO contacts (name, last_name, phone, email, message, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, name, last_name, phone, email, message, is_seen, created_at
`

// CreateContactParams holds the fields of a contact-form submission.
type CreateContactParams struct {
	Name      string
	LastName  string
	Phone     string
	Email     string
	Message   string
	CreatedAt time.Time
}

// CreateContact stores a contact-form submission and returns the record.
func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (model.Contact, error) {
	var c model.Contact
	err := q.db.QueryRowContext(ctx, createContact,
		arg.Name,
		arg.LastName,
		arg.Phone,
		arg.Email,
		arg.Message,
		arg.CreatedAt,
	).Scan(&c.ID, &c.Name, &c.LastName, &c.Phone, &c.Email, &c.Message, &c.IsSeen, &c.CreatedAt)
	return c, err
}

const listContacts = `
SELECT id, name, last_name, phone, email, message, is_seen, created_at
FROM contacts
ORDER BY created_at DESC
`

// ListContacts returns all contact submissions, newest first.
func (q *Queries) ListContacts(ctx context.Context) ([]model.Contact, error) {
	rows, err := q.db.QueryContext(ctx, listContacts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(
			&c.ID, &c.Name, &c.LastName, &c.Phone, &c.Email, &c.Message, &c.IsSeen, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const markContactSeen = `UPDATE contacts SET is_seen = 1 WHERE id = ?`

// MarkContactSeen flags one submission as seen and returns the number of
// rows updated.
func (q *Queries) MarkContactSeen(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markContactSeen, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
