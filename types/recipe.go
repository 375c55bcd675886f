package types

import "time"

// Recipe represents a recipe owned by a single user.
//
// Tags and Ingredients are many-to-many relations; the rows themselves are
// shared across the owner's recipes and survive recipe deletion.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID int `json:"id" db:"id"`

	// UserID is the identifier of the owning user. It is assigned at
	// creation from the authenticated requester and never changes.
	UserID int `json:"user_id" db:"user_id"`

	// Title is the human-readable name of the recipe.
	Title string `json:"title" db:"title"`

	// TimeMinutes is the preparation time in minutes.
	TimeMinutes int `json:"time_minutes" db:"time_minutes"`

	// Price is the fixed-point decimal cost of the recipe, carried as a
	// string with two fraction digits (e.g. "5.00"). The database column
	// is NUMERIC(10,2).
	Price string `json:"price" db:"price"`

	// Link is an optional URL pointing at the recipe's source.
	Link string `json:"link" db:"link"`

	// Description is an optional free-form description. It is included in
	// detail responses and omitted from list responses.
	Description string `json:"description" db:"description"`

	// ImageKey is the object-store key of the attached image, empty when
	// no image has been uploaded.
	ImageKey string `json:"image" db:"image_key"`

	// Tags are the tags currently attached to the recipe.
	Tags []Tag `json:"tags" db:"-"`

	// Ingredients are the ingredients currently attached to the recipe.
	Ingredients []Ingredient `json:"ingredients" db:"-"`

	// CreatedAt is the timestamp at which the recipe was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the recipe.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NameRef is a nested reference to a tag or ingredient by name, as it
// appears in recipe create/update payloads.
type NameRef struct {
	Name string `json:"name"`
}

// RecipeFilter restricts a recipe listing to recipes related to at least one
// of the given tag or ingredient IDs. Empty slices apply no filter.
type RecipeFilter struct {
	TagIDs        []int
	IngredientIDs []int
}

// RecipeChange describes a partial update to a recipe. Nil fields are left
// untouched. A non-nil Tags (or Ingredients) replaces the relation set with
// exactly the resolved entries; a pointer to an empty slice clears it.
type RecipeChange struct {
	Title       *string
	TimeMinutes *int
	Price       *string
	Link        *string
	Description *string
	Tags        *[]NameRef
	Ingredients *[]NameRef
}
