package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/recipebox/apiserver/internal/events"
	"github.com/recipebox/apiserver/types"
)

// ErrUnsupportedImage is returned when an uploaded payload is not an image.
var ErrUnsupportedImage = errors.New("unsupported image payload")

const imageKeyPrefix = "uploads/recipe/"

// RecipeRepository defines persistence operations for recipes.
type RecipeRepository interface {
	ListByOwner(ctx context.Context, ownerID int, filter types.RecipeFilter) ([]types.Recipe, error)
	GetByOwner(ctx context.Context, ownerID, id int) (types.Recipe, error)
	Create(ctx context.Context, recipe types.Recipe, tags, ingredients []types.NameRef) (types.Recipe, error)
	Update(ctx context.Context, ownerID, id int, change types.RecipeChange) (types.Recipe, error)
	SetImageKey(ctx context.Context, ownerID, id int, key string) (string, error)
	Delete(ctx context.Context, ownerID, id int) error
}

// ImageStore defines the blob operations the recipe service needs.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// RecipeService encapsulates recipe use-cases: owner-scoped CRUD, image
// attachment, and best-effort activity event publishing.
type RecipeService struct {
	repo      RecipeRepository
	images    ImageStore
	publisher events.Publisher
	logger    *slog.Logger
}

func NewRecipeService(repo RecipeRepository, images ImageStore, publisher events.Publisher, logger *slog.Logger) *RecipeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipeService{
		repo:      repo,
		images:    images,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *RecipeService) List(ctx context.Context, ownerID int, filter types.RecipeFilter) ([]types.Recipe, error) {
	return s.repo.ListByOwner(ctx, ownerID, filter)
}

func (s *RecipeService) Get(ctx context.Context, ownerID, id int) (types.Recipe, error) {
	return s.repo.GetByOwner(ctx, ownerID, id)
}

func (s *RecipeService) Create(ctx context.Context, recipe types.Recipe, tags, ingredients []types.NameRef) (types.Recipe, error) {
	created, err := s.repo.Create(ctx, recipe, tags, ingredients)
	if err != nil {
		return types.Recipe{}, err
	}
	s.publish(ctx, types.RecipeCreated, created.ID, created.UserID, created.Title)
	return created, nil
}

func (s *RecipeService) Update(ctx context.Context, ownerID, id int, change types.RecipeChange) (types.Recipe, error) {
	updated, err := s.repo.Update(ctx, ownerID, id, change)
	if err != nil {
		return types.Recipe{}, err
	}
	s.publish(ctx, types.RecipeUpdated, updated.ID, updated.UserID, updated.Title)
	return updated, nil
}

func (s *RecipeService) Delete(ctx context.Context, ownerID, id int) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.publish(ctx, types.RecipeDeleted, id, ownerID, "")
	return nil
}

// AttachImage validates and stores an uploaded image, then records its key
// on the recipe. The key is a fresh random identifier plus the original
// extension; user input never shapes the stored path. The previous blob, if
// any, is reaped best-effort.
func (s *RecipeService) AttachImage(ctx context.Context, ownerID, id int, filename string, data []byte) (types.Recipe, error) {
	if _, err := s.repo.GetByOwner(ctx, ownerID, id); err != nil {
		return types.Recipe{}, err
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return types.Recipe{}, ErrUnsupportedImage
	}

	key := imageKeyPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	if err := s.images.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Recipe{}, err
	}

	previous, err := s.repo.SetImageKey(ctx, ownerID, id, key)
	if err != nil {
		return types.Recipe{}, err
	}
	if previous != "" && previous != key {
		if err := s.images.Delete(ctx, previous); err != nil {
			s.logger.Warn("failed to delete previous recipe image",
				slog.String("key", previous),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.repo.GetByOwner(ctx, ownerID, id)
}

func (s *RecipeService) publish(ctx context.Context, action string, recipeID, ownerID int, title string) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(types.RecipeEvent{
		Action:     action,
		RecipeID:   recipeID,
		UserID:     ownerID,
		Title:      title,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}

	if _, err := s.publisher.Publish(ctx, events.RecipeChannel, payload, map[string]string{"action": action}); err != nil {
		s.logger.Warn("failed to publish recipe event",
			slog.String("action", action),
			slog.Int("recipe_id", recipeID),
			slog.String("error", err.Error()),
		)
	}
}
