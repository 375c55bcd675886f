package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

// fakeRecipeRepo is an in-memory RecipeRepository with the same owner-scoping
// and name-reconciliation semantics as the SQL store.
type fakeRecipeRepo struct {
	recipes     map[int]*types.Recipe
	tags        map[int]types.Tag
	ingredients map[int]types.Ingredient
	relTags     map[int]map[int]bool // recipe ID -> tag IDs
	relIngs     map[int]map[int]bool
	nextID      int
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{
		recipes:     map[int]*types.Recipe{},
		tags:        map[int]types.Tag{},
		ingredients: map[int]types.Ingredient{},
		relTags:     map[int]map[int]bool{},
		relIngs:     map[int]map[int]bool{},
	}
}

func (f *fakeRecipeRepo) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeRecipeRepo) getOrCreateTag(ownerID int, name string) types.Tag {
	for _, tag := range f.tags {
		if tag.UserID == ownerID && tag.Name == name {
			return tag
		}
	}
	tag := types.Tag{ID: f.id(), UserID: ownerID, Name: name}
	f.tags[tag.ID] = tag
	return tag
}

func (f *fakeRecipeRepo) getOrCreateIngredient(ownerID int, name string) types.Ingredient {
	for _, ingredient := range f.ingredients {
		if ingredient.UserID == ownerID && ingredient.Name == name {
			return ingredient
		}
	}
	ingredient := types.Ingredient{ID: f.id(), UserID: ownerID, Name: name}
	f.ingredients[ingredient.ID] = ingredient
	return ingredient
}

func (f *fakeRecipeRepo) loaded(recipe types.Recipe) types.Recipe {
	recipe.Tags = []types.Tag{}
	for tagID := range f.relTags[recipe.ID] {
		recipe.Tags = append(recipe.Tags, f.tags[tagID])
	}
	sort.Slice(recipe.Tags, func(i, j int) bool { return recipe.Tags[i].Name < recipe.Tags[j].Name })

	recipe.Ingredients = []types.Ingredient{}
	for ingredientID := range f.relIngs[recipe.ID] {
		recipe.Ingredients = append(recipe.Ingredients, f.ingredients[ingredientID])
	}
	sort.Slice(recipe.Ingredients, func(i, j int) bool {
		return recipe.Ingredients[i].Name < recipe.Ingredients[j].Name
	})
	return recipe
}

func (f *fakeRecipeRepo) ListByOwner(_ context.Context, ownerID int, filter types.RecipeFilter) ([]types.Recipe, error) {
	out := []types.Recipe{}
	for _, recipe := range f.recipes {
		if recipe.UserID != ownerID {
			continue
		}
		if len(filter.TagIDs) > 0 && !anyRelated(f.relTags[recipe.ID], filter.TagIDs) {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !anyRelated(f.relIngs[recipe.ID], filter.IngredientIDs) {
			continue
		}
		out = append(out, f.loaded(*recipe))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func anyRelated(related map[int]bool, ids []int) bool {
	for _, id := range ids {
		if related[id] {
			return true
		}
	}
	return false
}

func (f *fakeRecipeRepo) GetByOwner(_ context.Context, ownerID, id int) (types.Recipe, error) {
	recipe, ok := f.recipes[id]
	if !ok || recipe.UserID != ownerID {
		return types.Recipe{}, store.ErrNotFound
	}
	return f.loaded(*recipe), nil
}

func (f *fakeRecipeRepo) Create(ctx context.Context, recipe types.Recipe, tags, ingredients []types.NameRef) (types.Recipe, error) {
	recipe.ID = f.id()
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now
	f.recipes[recipe.ID] = &recipe
	f.relTags[recipe.ID] = map[int]bool{}
	f.relIngs[recipe.ID] = map[int]bool{}
	for _, ref := range tags {
		f.relTags[recipe.ID][f.getOrCreateTag(recipe.UserID, ref.Name).ID] = true
	}
	for _, ref := range ingredients {
		f.relIngs[recipe.ID][f.getOrCreateIngredient(recipe.UserID, ref.Name).ID] = true
	}
	return f.GetByOwner(ctx, recipe.UserID, recipe.ID)
}

func (f *fakeRecipeRepo) Update(ctx context.Context, ownerID, id int, change types.RecipeChange) (types.Recipe, error) {
	recipe, ok := f.recipes[id]
	if !ok || recipe.UserID != ownerID {
		return types.Recipe{}, store.ErrNotFound
	}
	if change.Title != nil {
		recipe.Title = *change.Title
	}
	if change.TimeMinutes != nil {
		recipe.TimeMinutes = *change.TimeMinutes
	}
	if change.Price != nil {
		recipe.Price = *change.Price
	}
	if change.Link != nil {
		recipe.Link = *change.Link
	}
	if change.Description != nil {
		recipe.Description = *change.Description
	}
	if change.Tags != nil {
		f.relTags[id] = map[int]bool{}
		for _, ref := range *change.Tags {
			f.relTags[id][f.getOrCreateTag(ownerID, ref.Name).ID] = true
		}
	}
	if change.Ingredients != nil {
		f.relIngs[id] = map[int]bool{}
		for _, ref := range *change.Ingredients {
			f.relIngs[id][f.getOrCreateIngredient(ownerID, ref.Name).ID] = true
		}
	}
	recipe.UpdatedAt = time.Now()
	return f.GetByOwner(ctx, ownerID, id)
}

func (f *fakeRecipeRepo) SetImageKey(_ context.Context, ownerID, id int, key string) (string, error) {
	recipe, ok := f.recipes[id]
	if !ok || recipe.UserID != ownerID {
		return "", store.ErrNotFound
	}
	previous := recipe.ImageKey
	recipe.ImageKey = key
	return previous, nil
}

func (f *fakeRecipeRepo) Delete(_ context.Context, ownerID, id int) error {
	recipe, ok := f.recipes[id]
	if !ok || recipe.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(f.recipes, id)
	delete(f.relTags, id)
	delete(f.relIngs, id)
	return nil
}

// fakeImageStore keeps blobs in a map.
type fakeImageStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: map[string][]byte{}}
}

func (f *fakeImageStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeImageStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type recipeTestEnv struct {
	repo   *fakeRecipeRepo
	images *fakeImageStore
	router *chi.Mux
}

func newRecipeTestEnv(t *testing.T) *recipeTestEnv {
	t.Helper()

	repo := newFakeRecipeRepo()
	images := newFakeImageStore()
	service := services.NewRecipeService(repo, images, nil, nil)

	router := chi.NewRouter()
	router.Route("/recipes", func(r chi.Router) {
		RecipeRouter(r, service, RequireAuth(testJWTSecret))
	})
	return &recipeTestEnv{repo: repo, images: images, router: router}
}

func authHeader(t *testing.T, userID int) string {
	t.Helper()
	token, err := issueToken(userID, []byte(testJWTSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, router http.Handler, method, target, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func seedRecipe(t *testing.T, repo *fakeRecipeRepo, ownerID int, title string, tags ...string) types.Recipe {
	t.Helper()
	refs := make([]types.NameRef, 0, len(tags))
	for _, name := range tags {
		refs = append(refs, types.NameRef{Name: name})
	}
	recipe, err := repo.Create(context.Background(), types.Recipe{
		UserID:      ownerID,
		Title:       title,
		TimeMinutes: 10,
		Price:       "5.00",
		Link:        "http://example.com/sample-recipe.pdf",
		Description: "Sample description",
	}, refs, nil)
	require.NoError(t, err)
	return recipe
}

func TestRecipesRequireAuth(t *testing.T) {
	env := newRecipeTestEnv(t)

	recorder := doJSON(t, env.router, http.MethodGet, "/recipes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = doJSON(t, env.router, http.MethodPost, "/recipes", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestListRecipesScopedToOwner(t *testing.T) {
	env := newRecipeTestEnv(t)
	first := seedRecipe(t, env.repo, 1, "Pancakes")
	second := seedRecipe(t, env.repo, 1, "Waffles")
	seedRecipe(t, env.repo, 2, "Not yours")

	recorder := doJSON(t, env.router, http.MethodGet, "/recipes", authHeader(t, 1), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got, 2)

	// Most recent first.
	assert.Equal(t, float64(second.ID), got[0]["id"])
	assert.Equal(t, float64(first.ID), got[1]["id"])

	// Description is a detail-only field.
	_, present := got[0]["description"]
	assert.False(t, present)
}

func TestGetRecipeDetailIncludesDescription(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 1, "Pancakes")

	recorder := doJSON(t, env.router, http.MethodGet, fmt.Sprintf("/recipes/%d", recipe.ID), authHeader(t, 1), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, "Sample description", got["description"])
}

func TestOtherUsersRecipeBehavesAsAbsent(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 2, "Not yours")

	target := fmt.Sprintf("/recipes/%d", recipe.ID)
	assert.Equal(t, http.StatusNotFound, doJSON(t, env.router, http.MethodGet, target, authHeader(t, 1), nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, env.router, http.MethodDelete, target, authHeader(t, 1), nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, env.router, http.MethodPatch, target, authHeader(t, 1), map[string]any{"title": "Mine now"}).Code)

	// Still there, untouched.
	kept, err := env.repo.GetByOwner(context.Background(), 2, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Not yours", kept.Title)
}

func TestCreateRecipe(t *testing.T) {
	env := newRecipeTestEnv(t)

	recorder := doJSON(t, env.router, http.MethodPost, "/recipes", authHeader(t, 1), map[string]any{
		"title":        "Chocolate cheesecake",
		"time_minutes": 30,
		"price":        "5.00",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var got types.Recipe
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, "Chocolate cheesecake", got.Title)
	assert.Equal(t, 30, got.TimeMinutes)
	assert.Equal(t, "5.00", got.Price)
	assert.Equal(t, 1, got.UserID)
}

func TestCreateRecipeIgnoresSuppliedOwner(t *testing.T) {
	env := newRecipeTestEnv(t)

	recorder := doJSON(t, env.router, http.MethodPost, "/recipes", authHeader(t, 1), map[string]any{
		"title":        "Sample recipe",
		"time_minutes": 10,
		"price":        "4.50",
		"user_id":      99,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var got types.Recipe
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, 1, got.UserID)
}

func TestCreateRecipeAcceptsNumericPrice(t *testing.T) {
	env := newRecipeTestEnv(t)

	recorder := doJSON(t, env.router, http.MethodPost, "/recipes", authHeader(t, 1), map[string]any{
		"title":        "Sample recipe",
		"time_minutes": 10,
		"price":        json.RawMessage(`5.5`),
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var got types.Recipe
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, "5.50", got.Price)
}

func TestCreateRecipeValidation(t *testing.T) {
	env := newRecipeTestEnv(t)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"missing title", map[string]any{"time_minutes": 10, "price": "5.00"}},
		{"empty title", map[string]any{"title": "  ", "time_minutes": 10, "price": "5.00"}},
		{"missing time", map[string]any{"title": "x", "price": "5.00"}},
		{"negative time", map[string]any{"title": "x", "time_minutes": -1, "price": "5.00"}},
		{"missing price", map[string]any{"title": "x", "time_minutes": 10}},
		{"bad price", map[string]any{"title": "x", "time_minutes": 10, "price": "1.2.3"}},
		{"too many fraction digits", map[string]any{"title": "x", "time_minutes": 10, "price": "5.001"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := doJSON(t, env.router, http.MethodPost, "/recipes", authHeader(t, 1), tc.payload)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestCreateRecipeWithNewTags(t *testing.T) {
	env := newRecipeTestEnv(t)

	recorder := doJSON(t, env.router, http.MethodPost, "/recipes", authHeader(t, 1), map[string]any{
		"title":        "Avocado lime cheesecake",
		"time_minutes": 60,
		"price":        "20.00",
		"tags":         []map[string]string{{"name": "Vegan"}, {"name": "Dessert"}},
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var got types.Recipe
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got.Tags, 2)

	names := []string{got.Tags[0].Name, got.Tags[1].Name}
	assert.ElementsMatch(t, []string{"Vegan", "Dessert"}, names)
	for _, tag := range got.Tags {
		assert.Equal(t, 1, env.repo.tags[tag.ID].UserID)
	}
}

func TestGetOrCreateTagIsIdempotent(t *testing.T) {
	env := newRecipeTestEnv(t)

	for _, title := range []string{"Pongal", "Dosa"} {
		recorder := doJSON(t, env.router, http.MethodPost, "/recipes", authHeader(t, 1), map[string]any{
			"title":        title,
			"time_minutes": 20,
			"price":        "4.00",
			"tags":         []map[string]string{{"name": "Breakfast"}},
		})
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	var breakfastIDs []int
	for id, tag := range env.repo.tags {
		if tag.UserID == 1 && tag.Name == "Breakfast" {
			breakfastIDs = append(breakfastIDs, id)
		}
	}
	require.Len(t, breakfastIDs, 1)

	for _, rel := range env.repo.relTags {
		assert.True(t, rel[breakfastIDs[0]])
	}
}

func TestPartialUpdateLeavesOtherFields(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 1, "Original title")

	recorder := doJSON(t, env.router, http.MethodPatch, fmt.Sprintf("/recipes/%d", recipe.ID), authHeader(t, 1), map[string]any{
		"title": "New title",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	updated, err := env.repo.GetByOwner(context.Background(), 1, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "http://example.com/sample-recipe.pdf", updated.Link)
	assert.Equal(t, 1, updated.UserID)
}

func TestFullUpdateRequiresAllFields(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 1, "Original title")

	recorder := doJSON(t, env.router, http.MethodPut, fmt.Sprintf("/recipes/%d", recipe.ID), authHeader(t, 1), map[string]any{
		"title": "New title",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doJSON(t, env.router, http.MethodPut, fmt.Sprintf("/recipes/%d", recipe.ID), authHeader(t, 1), map[string]any{
		"title":        "Updated title",
		"time_minutes": 25,
		"price":        "5.00",
		"link":         "http://example.com/updated-recipe.pdf",
		"description":  "Updated description",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	updated, err := env.repo.GetByOwner(context.Background(), 1, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated title", updated.Title)
	assert.Equal(t, "Updated description", updated.Description)
}

func TestUpdateWithEmptyTagsClearsRelations(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 1, "Curry", "Spicy", "Dinner")

	recorder := doJSON(t, env.router, http.MethodPatch, fmt.Sprintf("/recipes/%d", recipe.ID), authHeader(t, 1), map[string]any{
		"tags": []map[string]string{},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var got types.Recipe
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Empty(t, got.Tags)

	// The tag rows themselves survive.
	count := 0
	for _, tag := range env.repo.tags {
		if tag.UserID == 1 {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestUpdateWithoutTagsKeyLeavesRelations(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 1, "Curry", "Spicy")

	recorder := doJSON(t, env.router, http.MethodPatch, fmt.Sprintf("/recipes/%d", recipe.ID), authHeader(t, 1), map[string]any{
		"title": "Hotter curry",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var got types.Recipe
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "Spicy", got.Tags[0].Name)
}

func TestUpdateReassignsTags(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 1, "Curry", "Breakfast")

	recorder := doJSON(t, env.router, http.MethodPatch, fmt.Sprintf("/recipes/%d", recipe.ID), authHeader(t, 1), map[string]any{
		"tags": []map[string]string{{"name": "Lunch"}},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var got types.Recipe
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "Lunch", got.Tags[0].Name)
}

func TestFilterByTags(t *testing.T) {
	env := newRecipeTestEnv(t)
	vegan := seedRecipe(t, env.repo, 1, "Thai curry", "Vegan")
	dessert := seedRecipe(t, env.repo, 1, "Tiramisu", "Dessert")
	plain := seedRecipe(t, env.repo, 1, "Fish and chips")

	veganTag := env.repo.getOrCreateTag(1, "Vegan")
	dessertTag := env.repo.getOrCreateTag(1, "Dessert")

	target := fmt.Sprintf("/recipes?tags=%d,%d", veganTag.ID, dessertTag.ID)
	recorder := doJSON(t, env.router, http.MethodGet, target, authHeader(t, 1), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got []recipeSummary
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	ids := make([]int, 0, len(got))
	for _, summary := range got {
		ids = append(ids, summary.ID)
	}
	assert.ElementsMatch(t, []int{vegan.ID, dessert.ID}, ids)
	assert.NotContains(t, ids, plain.ID)
}

func TestFilterRejectsMalformedIDs(t *testing.T) {
	env := newRecipeTestEnv(t)
	seedRecipe(t, env.repo, 1, "Anything")

	for _, target := range []string{"/recipes?tags=1,abc", "/recipes?tags=0", "/recipes?ingredients=2,"} {
		recorder := doJSON(t, env.router, http.MethodGet, target, authHeader(t, 1), nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, target)
	}
}

func TestDeleteRecipe(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 1, "Short lived")

	recorder := doJSON(t, env.router, http.MethodDelete, fmt.Sprintf("/recipes/%d", recipe.ID), authHeader(t, 1), nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	_, err := env.repo.GetByOwner(context.Background(), 1, recipe.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func uploadImage(t *testing.T, router http.Handler, recipeID int, auth, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(formFieldImage, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/recipes/%d/image", recipeID), &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", auth)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func pngBytes() []byte {
	return append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 16)...)
}

func TestUploadImage(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 1, "Photogenic")

	recorder := uploadImage(t, env.router, recipe.ID, authHeader(t, 1), "myimage.JPG", pngBytes())
	require.Equal(t, http.StatusOK, recorder.Code)

	var got imageResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, recipe.ID, got.ID)
	assert.True(t, strings.HasPrefix(got.Image, "uploads/recipe/"))
	assert.True(t, strings.HasSuffix(got.Image, ".jpg"))
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 1, "Photogenic")

	recorder := uploadImage(t, env.router, recipe.ID, authHeader(t, 1), "notimage.txt", []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	kept, err := env.repo.GetByOwner(context.Background(), 1, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, kept.ImageKey)
}

func TestNormalizePrice(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "5", want: "5.00"},
		{in: "5.5", want: "5.50"},
		{in: "5.00", want: "5.00"},
		{in: " 12.34 ", want: "12.34"},
		{in: "0.99", want: "0.99"},
		{in: "12345678.99", want: "12345678.99"},
		{in: "", wantErr: true},
		{in: ".50", wantErr: true},
		{in: "5.", wantErr: true},
		{in: "5.001", wantErr: true},
		{in: "-5.00", wantErr: true},
		{in: "123456789", wantErr: true},
		{in: "1.2.3", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tc := range cases {
		got, err := normalizePrice(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestUploadImageForOtherUsersRecipe(t *testing.T) {
	env := newRecipeTestEnv(t)
	recipe := seedRecipe(t, env.repo, 2, "Not yours")

	recorder := uploadImage(t, env.router, recipe.ID, authHeader(t, 1), "myimage.png", pngBytes())
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
