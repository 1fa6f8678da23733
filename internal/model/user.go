// Package model defines domain models and types used throughout the
// application including User, Event, Registration and Contact structures.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleUser      = "USER"
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
)

// User genders.
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// User represents a registered account.
type User struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	PasswordHash    string         `json:"-"` // Never expose in JSON
	InstagramHandle sql.NullString `json:"instagram_handle,omitempty"`
	Gender          string         `json:"gender"`
	Role            string         `json:"role"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidGender reports whether g is one of the accepted gender values.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// ValidRole reports whether r is one of the accepted role values.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin || r == RoleModerator
}
