package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/store"
)

// TagHandler provides HTTP handlers for tags.
type TagHandler struct {
	tagService *services.TagService
}

// NewTagHandler constructs a handler with the provided service.
func NewTagHandler(tagService *services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// TagRouter registers tag routes on the given router. Every route requires
// authentication. There is no create endpoint: tags come into existence
// through recipe writes.
func TagRouter(r chi.Router, tagService *services.TagService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewTagHandler(tagService)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.ListTags)
	r.Patch("/{tagID}", handler.RenameTag)
	r.Delete("/{tagID}", handler.DeleteTag)
}

func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tags, err := h.tagService.List(r.Context(), ownerID, assignedOnly(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}

	writeJSON(w, http.StatusOK, tags)
}

func (h *TagHandler) RenameTag(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePathID(r, "tagID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tag id")
		return
	}

	name, err := decodeRenameRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tag, err := h.tagService.Rename(r.Context(), ownerID, id, name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "tag not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "tag name already in use")
		default:
			writeError(w, http.StatusInternalServerError, "failed to rename tag")
		}
		return
	}

	writeJSON(w, http.StatusOK, tag)
}

func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePathID(r, "tagID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tag id")
		return
	}

	if err := h.tagService.Delete(r.Context(), ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tag not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete tag")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type renameRequest struct {
	Name string `json:"name"`
}

func decodeRenameRequest(r *http.Request) (string, error) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", errors.New("invalid request body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", errors.New("name is required")
	}
	return name, nil
}

func parsePathID(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// assignedOnly reports whether the listing should be limited to entries
// referenced by at least one recipe.
func assignedOnly(r *http.Request) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("assigned_only"))) {
	case "1", "true":
		return true
	default:
		return false
	}
}
