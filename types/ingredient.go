package types

// Ingredient is a named ingredient owned by a single user. Like tags, the
// (user, name) pair is unique and rows are shared across recipes.
type Ingredient struct {
	// ID is the unique identifier of the ingredient.
	ID int `json:"id" db:"id"`

	// UserID is the identifier of the owning user.
	UserID int `json:"-" db:"user_id"`

	// Name is the ingredient name, unique per owner.
	Name string `json:"name" db:"name"`
}
