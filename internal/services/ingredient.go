package services

import (
	"context"

	"github.com/recipebox/apiserver/types"
)

// IngredientRepository defines persistence operations for ingredients.
type IngredientRepository interface {
	ListByOwner(ctx context.Context, ownerID int, assignedOnly bool) ([]types.Ingredient, error)
	Rename(ctx context.Context, ownerID, id int, name string) (types.Ingredient, error)
	Delete(ctx context.Context, ownerID, id int) error
}

// IngredientService encapsulates ingredient use-cases.
type IngredientService struct {
	repo IngredientRepository
}

func NewIngredientService(repo IngredientRepository) *IngredientService {
	return &IngredientService{repo: repo}
}

func (s *IngredientService) List(ctx context.Context, ownerID int, assignedOnly bool) ([]types.Ingredient, error) {
	return s.repo.ListByOwner(ctx, ownerID, assignedOnly)
}

func (s *IngredientService) Rename(ctx context.Context, ownerID, id int, name string) (types.Ingredient, error) {
	return s.repo.Rename(ctx, ownerID, id, name)
}

func (s *IngredientService) Delete(ctx context.Context, ownerID, id int) error {
	return s.repo.Delete(ctx, ownerID, id)
}
