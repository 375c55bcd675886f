package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/recipebox/apiserver/types"
)

// RecipeRepository handles persistence for recipes and their tag/ingredient
// relations. Every query is scoped by owner; there is no unscoped path.
type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// ListByOwner returns the owner's recipes ordered by descending identifier,
// optionally restricted to recipes related to at least one of the filter IDs.
func (r *RecipeRepository) ListByOwner(ctx context.Context, ownerID int, filter types.RecipeFilter) ([]types.Recipe, error) {
	query := `
		SELECT id, user_id, title, time_minutes, price, link, description, image_key, created_at, updated_at
		FROM recipes
		WHERE user_id = $1`
	args := []any{ownerID}

	if len(filter.TagIDs) > 0 {
		args = append(args, pq.Array(toInt64(filter.TagIDs)))
		query += fmt.Sprintf(`
		AND EXISTS (
			SELECT 1 FROM recipe_tags rt
			WHERE rt.recipe_id = recipes.id AND rt.tag_id = ANY($%d))`, len(args))
	}
	if len(filter.IngredientIDs) > 0 {
		args = append(args, pq.Array(toInt64(filter.IngredientIDs)))
		query += fmt.Sprintf(`
		AND EXISTS (
			SELECT 1 FROM recipe_ingredients ri
			WHERE ri.recipe_id = recipes.id AND ri.ingredient_id = ANY($%d))`, len(args))
	}
	query += `
		ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := make([]types.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachRelations(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetByOwner returns a single recipe. A recipe owned by a different user is
// reported as ErrNotFound, identical to an absent one.
func (r *RecipeRepository) GetByOwner(ctx context.Context, ownerID, id int) (types.Recipe, error) {
	const query = `
		SELECT id, user_id, title, time_minutes, price, link, description, image_key, created_at, updated_at
		FROM recipes
		WHERE id = $1 AND user_id = $2`
	row := r.db.QueryRowContext(ctx, query, id, ownerID)

	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Recipe{}, ErrNotFound
		}
		return types.Recipe{}, err
	}

	recipes := []types.Recipe{recipe}
	if err := r.attachRelations(ctx, recipes); err != nil {
		return types.Recipe{}, err
	}
	return recipes[0], nil
}

// Create inserts the recipe and reconciles the nested tag/ingredient names
// against the owner's existing rows inside one transaction.
func (r *RecipeRepository) Create(ctx context.Context, recipe types.Recipe, tags, ingredients []types.NameRef) (types.Recipe, error) {
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Recipe{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		INSERT INTO recipes (user_id, title, time_minutes, price, link, description, image_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		query,
		recipe.UserID,
		recipe.Title,
		recipe.TimeMinutes,
		recipe.Price,
		recipe.Link,
		recipe.Description,
		recipe.ImageKey,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	).Scan(&recipe.ID); err != nil {
		return types.Recipe{}, err
	}

	if err := r.syncTags(ctx, tx, recipe.UserID, recipe.ID, tags); err != nil {
		return types.Recipe{}, err
	}
	if err := r.syncIngredients(ctx, tx, recipe.UserID, recipe.ID, ingredients); err != nil {
		return types.Recipe{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Recipe{}, err
	}

	return r.GetByOwner(ctx, recipe.UserID, recipe.ID)
}

// Update applies the non-nil fields of change to the owner's recipe. A
// non-nil Tags or Ingredients replaces the relation set entirely; a nil one
// leaves it untouched.
func (r *RecipeRepository) Update(ctx context.Context, ownerID, id int, change types.RecipeChange) (types.Recipe, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Recipe{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	sets := []string{"updated_at = $1"}
	args := []any{time.Now()}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if change.Title != nil {
		appendSet("title", *change.Title)
	}
	if change.TimeMinutes != nil {
		appendSet("time_minutes", *change.TimeMinutes)
	}
	if change.Price != nil {
		appendSet("price", *change.Price)
	}
	if change.Link != nil {
		appendSet("link", *change.Link)
	}
	if change.Description != nil {
		appendSet("description", *change.Description)
	}

	args = append(args, id, ownerID)
	query := fmt.Sprintf(
		`UPDATE recipes SET %s WHERE id = $%d AND user_id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return types.Recipe{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Recipe{}, err
	}
	if affected == 0 {
		return types.Recipe{}, ErrNotFound
	}

	if change.Tags != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, id); err != nil {
			return types.Recipe{}, err
		}
		if err := r.syncTags(ctx, tx, ownerID, id, *change.Tags); err != nil {
			return types.Recipe{}, err
		}
	}
	if change.Ingredients != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, id); err != nil {
			return types.Recipe{}, err
		}
		if err := r.syncIngredients(ctx, tx, ownerID, id, *change.Ingredients); err != nil {
			return types.Recipe{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Recipe{}, err
	}

	return r.GetByOwner(ctx, ownerID, id)
}

// SetImageKey records the blob key of the recipe's image and returns the
// previous key so the caller can reap the old blob.
func (r *RecipeRepository) SetImageKey(ctx context.Context, ownerID, id int, key string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var previous string
	const read = `SELECT image_key FROM recipes WHERE id = $1 AND user_id = $2 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, read, id, ownerID).Scan(&previous); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	const update = `UPDATE recipes SET image_key = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	if _, err := tx.ExecContext(ctx, update, key, time.Now(), id, ownerID); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return previous, nil
}

// Delete removes the owner's recipe. Join rows cascade with the recipe;
// tags and ingredients are never touched.
func (r *RecipeRepository) Delete(ctx context.Context, ownerID, id int) error {
	const query = `DELETE FROM recipes WHERE id = $1 AND user_id = $2`
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

// syncTags resolves each name to the owner's tag row, creating missing ones,
// and links the resolved rows to the recipe. The insert tolerates a
// concurrent duplicate-name insert by re-reading the surviving row.
func (r *RecipeRepository) syncTags(ctx context.Context, tx *sql.Tx, ownerID, recipeID int, refs []types.NameRef) error {
	for _, ref := range refs {
		tagID, err := getOrCreateNamed(ctx, tx, "tags", ownerID, ref.Name)
		if err != nil {
			return err
		}
		const link = `
			INSERT INTO recipe_tags (recipe_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, link, recipeID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (r *RecipeRepository) syncIngredients(ctx context.Context, tx *sql.Tx, ownerID, recipeID int, refs []types.NameRef) error {
	for _, ref := range refs {
		ingredientID, err := getOrCreateNamed(ctx, tx, "ingredients", ownerID, ref.Name)
		if err != nil {
			return err
		}
		const link = `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, link, recipeID, ingredientID); err != nil {
			return err
		}
	}
	return nil
}

// getOrCreateNamed is the constrained insert with conflict-fallback-to-read.
// ON CONFLICT DO NOTHING yields no row when the (user_id, name) pair already
// exists, including when a concurrent transaction won the insert race.
func getOrCreateNamed(ctx context.Context, tx *sql.Tx, table string, ownerID int, name string) (int, error) {
	insert := fmt.Sprintf(`
		INSERT INTO %s (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING id`, table)

	var id int
	err := tx.QueryRowContext(ctx, insert, ownerID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	read := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1 AND name = $2`, table)
	if err := tx.QueryRowContext(ctx, read, ownerID, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// attachRelations loads tags and ingredients for the given recipes in two
// queries and fills the relation slices in place.
func (r *RecipeRepository) attachRelations(ctx context.Context, recipes []types.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(recipes))
	index := make(map[int]*types.Recipe, len(recipes))
	for i := range recipes {
		recipes[i].Tags = []types.Tag{}
		recipes[i].Ingredients = []types.Ingredient{}
		ids = append(ids, int64(recipes[i].ID))
		index[recipes[i].ID] = &recipes[i]
	}

	const tagQuery = `
		SELECT rt.recipe_id, t.id, t.user_id, t.name
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY t.name`
	rows, err := r.db.QueryContext(ctx, tagQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var recipeID int
		var tag types.Tag
		if err := rows.Scan(&recipeID, &tag.ID, &tag.UserID, &tag.Name); err != nil {
			return err
		}
		if recipe, ok := index[recipeID]; ok {
			recipe.Tags = append(recipe.Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	const ingredientQuery = `
		SELECT ri.recipe_id, i.id, i.user_id, i.name
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY i.name`
	ingredientRows, err := r.db.QueryContext(ctx, ingredientQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer ingredientRows.Close()
	for ingredientRows.Next() {
		var recipeID int
		var ingredient types.Ingredient
		if err := ingredientRows.Scan(&recipeID, &ingredient.ID, &ingredient.UserID, &ingredient.Name); err != nil {
			return err
		}
		if recipe, ok := index[recipeID]; ok {
			recipe.Ingredients = append(recipe.Ingredients, ingredient)
		}
	}
	return ingredientRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (types.Recipe, error) {
	var recipe types.Recipe
	err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.TimeMinutes,
		&recipe.Price,
		&recipe.Link,
		&recipe.Description,
		&recipe.ImageKey,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

func toInt64(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
