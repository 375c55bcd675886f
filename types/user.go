package types

import "time"

// User represents an account in the system.
// It contains identity, permission flags, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's email address and login identifier. It is
	// unique across the system; the domain part is stored lower-cased.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// IsStaff marks accounts with access to administrative tooling.
	IsStaff bool `json:"is_staff" db:"is_staff"`

	// IsSuperuser marks accounts with unrestricted permissions.
	IsSuperuser bool `json:"is_superuser" db:"is_superuser"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
