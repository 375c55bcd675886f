package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/recipebox/apiserver/types"
)

// TagRepository handles persistence for tags outside of recipe writes
// (listing, renaming, deleting). Creation happens through recipe
// reconciliation in RecipeRepository.
type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// ListByOwner returns the owner's tags ordered by name. With assignedOnly,
// only tags attached to at least one recipe are returned.
func (r *TagRepository) ListByOwner(ctx context.Context, ownerID int, assignedOnly bool) ([]types.Tag, error) {
	query := `
		SELECT id, user_id, name
		FROM tags
		WHERE user_id = $1`
	if assignedOnly {
		query += `
		AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.tag_id = tags.id)`
	}
	query += `
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]types.Tag, 0)
	for rows.Next() {
		var tag types.Tag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Rename changes the name of the owner's tag. Renaming onto an existing
// (user, name) pair is reported as ErrConflict.
func (r *TagRepository) Rename(ctx context.Context, ownerID, id int, name string) (types.Tag, error) {
	const query = `
		UPDATE tags
		SET name = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, name`
	var tag types.Tag
	err := r.db.QueryRowContext(ctx, query, name, id, ownerID).Scan(&tag.ID, &tag.UserID, &tag.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Tag{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return types.Tag{}, ErrConflict
		}
		return types.Tag{}, err
	}
	return tag, nil
}

func (r *TagRepository) Delete(ctx context.Context, ownerID, id int) error {
	const query = `DELETE FROM tags WHERE id = $1 AND user_id = $2`
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
