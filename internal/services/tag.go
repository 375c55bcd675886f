package services

import (
	"context"

	"github.com/recipebox/apiserver/types"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	ListByOwner(ctx context.Context, ownerID int, assignedOnly bool) ([]types.Tag, error)
	Rename(ctx context.Context, ownerID, id int, name string) (types.Tag, error)
	Delete(ctx context.Context, ownerID, id int) error
}

// TagService encapsulates tag use-cases.
type TagService struct {
	repo TagRepository
}

func NewTagService(repo TagRepository) *TagService {
	return &TagService{repo: repo}
}

func (s *TagService) List(ctx context.Context, ownerID int, assignedOnly bool) ([]types.Tag, error) {
	return s.repo.ListByOwner(ctx, ownerID, assignedOnly)
}

func (s *TagService) Rename(ctx context.Context, ownerID, id int, name string) (types.Tag, error) {
	return s.repo.Rename(ctx, ownerID, id, name)
}

func (s *TagService) Delete(ctx context.Context, ownerID, id int) error {
	return s.repo.Delete(ctx, ownerID, id)
}
