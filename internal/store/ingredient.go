package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/recipebox/apiserver/types"
)

// IngredientRepository handles persistence for ingredients outside of recipe
// writes. Creation happens through recipe reconciliation.
type IngredientRepository struct {
	db *sql.DB
}

func NewIngredientRepository(db *sql.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// ListByOwner returns the owner's ingredients ordered by name. With
// assignedOnly, only ingredients attached to at least one recipe are returned.
func (r *IngredientRepository) ListByOwner(ctx context.Context, ownerID int, assignedOnly bool) ([]types.Ingredient, error) {
	query := `
		SELECT id, user_id, name
		FROM ingredients
		WHERE user_id = $1`
	if assignedOnly {
		query += `
		AND EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.ingredient_id = ingredients.id)`
	}
	query += `
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := make([]types.Ingredient, 0)
	for rows.Next() {
		var ingredient types.Ingredient
		if err := rows.Scan(&ingredient.ID, &ingredient.UserID, &ingredient.Name); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients, rows.Err()
}

// Rename changes the name of the owner's ingredient. Renaming onto an
// existing (user, name) pair is reported as ErrConflict.
func (r *IngredientRepository) Rename(ctx context.Context, ownerID, id int, name string) (types.Ingredient, error) {
	const query = `
		UPDATE ingredients
		SET name = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, name`
	var ingredient types.Ingredient
	err := r.db.QueryRowContext(ctx, query, name, id, ownerID).Scan(&ingredient.ID, &ingredient.UserID, &ingredient.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Ingredient{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return types.Ingredient{}, ErrConflict
		}
		return types.Ingredient{}, err
	}
	return ingredient, nil
}

func (r *IngredientRepository) Delete(ctx context.Context, ownerID, id int) error {
	const query = `DELETE FROM ingredients WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
