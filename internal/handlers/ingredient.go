package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/store"
)

// IngredientHandler provides HTTP handlers for ingredients.
type IngredientHandler struct {
	ingredientService *services.IngredientService
}

// NewIngredientHandler constructs a handler with the provided service.
func NewIngredientHandler(ingredientService *services.IngredientService) *IngredientHandler {
	return &IngredientHandler{ingredientService: ingredientService}
}

// IngredientRouter registers ingredient routes on the given router. Every
// route requires authentication; like tags, ingredients are created through
// recipe writes only.
func IngredientRouter(r chi.Router, ingredientService *services.IngredientService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewIngredientHandler(ingredientService)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.ListIngredients)
	r.Patch("/{ingredientID}", handler.RenameIngredient)
	r.Delete("/{ingredientID}", handler.DeleteIngredient)
}

func (h *IngredientHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ingredients, err := h.ingredientService.List(r.Context(), ownerID, assignedOnly(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list ingredients")
		return
	}

	writeJSON(w, http.StatusOK, ingredients)
}

func (h *IngredientHandler) RenameIngredient(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePathID(r, "ingredientID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ingredient id")
		return
	}

	name, err := decodeRenameRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ingredient, err := h.ingredientService.Rename(r.Context(), ownerID, id, name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "ingredient not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "ingredient name already in use")
		default:
			writeError(w, http.StatusInternalServerError, "failed to rename ingredient")
		}
		return
	}

	writeJSON(w, http.StatusOK, ingredient)
}

func (h *IngredientHandler) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePathID(r, "ingredientID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ingredient id")
		return
	}

	if err := h.ingredientService.Delete(r.Context(), ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "ingredient not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete ingredient")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
