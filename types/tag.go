package types

// Tag is a free-form label owned by a single user. The (user, name) pair is
// unique; recipe writes resolve tag names against existing rows before
// creating new ones.
type Tag struct {
	// ID is the unique identifier of the tag.
	ID int `json:"id" db:"id"`

	// UserID is the identifier of the owning user.
	UserID int `json:"-" db:"user_id"`

	// Name is the tag label, unique per owner.
	Name string `json:"name" db:"name"`
}
