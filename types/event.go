package types

import "time"

// Recipe event actions published to the activity channel.
const (
	RecipeCreated = "recipe.created"
	RecipeUpdated = "recipe.updated"
	RecipeDeleted = "recipe.deleted"
)

// RecipeEvent is the JSON payload published after a successful recipe write.
// Publishing is best-effort and never affects the request outcome.
type RecipeEvent struct {
	// Action is one of RecipeCreated, RecipeUpdated or RecipeDeleted.
	Action string `json:"action"`

	// RecipeID is the identifier of the affected recipe.
	RecipeID int `json:"recipe_id"`

	// UserID is the identifier of the recipe's owner.
	UserID int `json:"user_id"`

	// Title is the recipe title at the time of the event, empty for deletes.
	Title string `json:"title,omitempty"`

	// OccurredAt is the server timestamp of the event.
	OccurredAt time.Time `json:"occurred_at"`
}
