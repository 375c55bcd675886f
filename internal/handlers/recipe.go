package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/types"
)

const (
	maxImageMemory = 32 << 20
	maxImageBytes  = 10 << 20
	formFieldImage = "image"
)

// RecipeHandler provides HTTP handlers for recipes.
type RecipeHandler struct {
	recipeService *services.RecipeService
}

// NewRecipeHandler constructs a handler with the provided service.
func NewRecipeHandler(recipeService *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

// RecipeRouter registers recipe routes on the given router. Every route
// requires authentication.
func RecipeRouter(r chi.Router, recipeService *services.RecipeService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewRecipeHandler(recipeService)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.ListRecipes)
	r.Post("/", handler.CreateRecipe)
	r.Route("/{recipeID}", func(r chi.Router) {
		r.Get("/", handler.GetRecipe)
		r.Put("/", handler.ReplaceRecipe)
		r.Patch("/", handler.PatchRecipe)
		r.Delete("/", handler.DeleteRecipe)
		r.Post("/image", handler.UploadImage)
	})
}

func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter, err := parseRecipeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipes, err := h.recipeService.List(r.Context(), ownerID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}

	summaries := make([]recipeSummary, 0, len(recipes))
	for _, recipe := range recipes {
		summaries = append(summaries, summarize(recipe))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseRecipeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe, err := h.recipeService.Get(r.Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch recipe")
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := decodeRecipeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.requireAll(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The owner is always the requester; any user field in the payload is
	// silently dropped by the decoder.
	recipe := types.Recipe{
		UserID:      ownerID,
		Title:       *req.Title,
		TimeMinutes: *req.TimeMinutes,
		Price:       string(*req.Price),
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}

	var tags, ingredients []types.NameRef
	if req.Tags != nil {
		tags = *req.Tags
	}
	if req.Ingredients != nil {
		ingredients = *req.Ingredients
	}

	created, err := h.recipeService.Create(r.Context(), recipe, tags, ingredients)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create recipe")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ReplaceRecipe is the full update: the required fields must all be
// resupplied. Relation semantics match PatchRecipe.
func (h *RecipeHandler) ReplaceRecipe(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRecipeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.requireAll(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.applyUpdate(w, r, req)
}

// PatchRecipe is the partial update: any subset of fields may be supplied.
func (h *RecipeHandler) PatchRecipe(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRecipeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.applyUpdate(w, r, req)
}

func (h *RecipeHandler) applyUpdate(w http.ResponseWriter, r *http.Request, req recipeUpsertRequest) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseRecipeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	change := types.RecipeChange{
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Link:        req.Link,
		Description: req.Description,
		Tags:        req.Tags,
		Ingredients: req.Ingredients,
	}
	if req.Price != nil {
		price := string(*req.Price)
		change.Price = &price
	}

	updated, err := h.recipeService.Update(r.Context(), ownerID, id, change)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update recipe")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseRecipeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.recipeService.Delete(r.Context(), ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete recipe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseRecipeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File[formFieldImage]
	if len(files) != 1 {
		writeError(w, http.StatusBadRequest, "exactly one image file is required")
		return
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image file")
		return
	}
	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe, err := h.recipeService.AttachImage(r.Context(), ownerID, id, fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "recipe not found")
		case errors.Is(err, services.ErrUnsupportedImage):
			writeError(w, http.StatusBadRequest, "uploaded file is not an image")
		default:
			writeError(w, http.StatusInternalServerError, "failed to store image")
		}
		return
	}

	writeJSON(w, http.StatusOK, imageResponse{ID: recipe.ID, Image: recipe.ImageKey})
}

// recipeUpsertRequest is the decoded create/update payload. Pointer fields
// distinguish absent keys from zero values; in particular a present-but-empty
// tags list clears the relation set while an absent key leaves it alone.
type recipeUpsertRequest struct {
	Title       *string          `json:"title"`
	TimeMinutes *int             `json:"time_minutes"`
	Price       *priceValue      `json:"price"`
	Link        *string          `json:"link"`
	Description *string          `json:"description"`
	Tags        *[]types.NameRef `json:"tags"`
	Ingredients *[]types.NameRef `json:"ingredients"`
}

func (req recipeUpsertRequest) requireAll() error {
	if req.Title == nil {
		return errors.New("title is required")
	}
	if req.TimeMinutes == nil {
		return errors.New("time_minutes is required")
	}
	if req.Price == nil {
		return errors.New("price is required")
	}
	return nil
}

// imageResponse is the payload returned after a successful image upload.
type imageResponse struct {
	ID    int    `json:"id"`
	Image string `json:"image"`
}

// recipeSummary is the list-view shape: identical to the detail view minus
// the description field.
type recipeSummary struct {
	ID          int                `json:"id"`
	UserID      int                `json:"user_id"`
	Title       string             `json:"title"`
	TimeMinutes int                `json:"time_minutes"`
	Price       string             `json:"price"`
	Link        string             `json:"link"`
	Image       string             `json:"image"`
	Tags        []types.Tag        `json:"tags"`
	Ingredients []types.Ingredient `json:"ingredients"`
}

func summarize(recipe types.Recipe) recipeSummary {
	return recipeSummary{
		ID:          recipe.ID,
		UserID:      recipe.UserID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Image:       recipe.ImageKey,
		Tags:        recipe.Tags,
		Ingredients: recipe.Ingredients,
	}
}

// priceValue accepts a fixed-point decimal supplied either as a JSON string
// ("5.00") or a bare JSON number (5.00), normalized to two fraction digits.
type priceValue string

func (p *priceValue) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	normalized, err := normalizePrice(raw)
	if err != nil {
		return err
	}
	*p = priceValue(normalized)
	return nil
}

// normalizePrice validates a non-negative decimal with at most two fraction
// digits and pads it to exactly two ("5" -> "5.00").
func normalizePrice(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("invalid price")
	}

	whole, frac, hasFrac := strings.Cut(raw, ".")
	if !isDigits(whole) || len(whole) > 8 {
		return "", errors.New("invalid price")
	}
	if hasFrac {
		if !isDigits(frac) || len(frac) > 2 {
			return "", errors.New("invalid price")
		}
	}
	for len(frac) < 2 {
		frac += "0"
	}
	return whole + "." + frac, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseRecipeID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "recipeID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid recipe id")
	}
	return id, nil
}

func parseRecipeFilter(r *http.Request) (types.RecipeFilter, error) {
	tagIDs, err := parseIDList(r.URL.Query().Get("tags"))
	if err != nil {
		return types.RecipeFilter{}, errors.New("invalid tags filter")
	}
	ingredientIDs, err := parseIDList(r.URL.Query().Get("ingredients"))
	if err != nil {
		return types.RecipeFilter{}, errors.New("invalid ingredients filter")
	}
	return types.RecipeFilter{TagIDs: tagIDs, IngredientIDs: ingredientIDs}, nil
}

// parseIDList parses a comma-separated list of positive integer IDs. Any
// malformed token rejects the whole list.
func parseIDList(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func decodeRecipeRequest(r *http.Request) (recipeUpsertRequest, error) {
	var req recipeUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return recipeUpsertRequest{}, errors.New("invalid request body")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return recipeUpsertRequest{}, errors.New("title must not be empty")
		}
		req.Title = &title
	}
	if req.TimeMinutes != nil && *req.TimeMinutes < 0 {
		return recipeUpsertRequest{}, errors.New("time_minutes must not be negative")
	}
	return req, nil
}
