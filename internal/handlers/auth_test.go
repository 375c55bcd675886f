package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo is an in-memory UserRepository with a unique email constraint.
type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]types.User{}}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func newAuthTestRouter(repo *fakeUserRepo) *chi.Mux {
	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, services.NewUserService(repo), testJWTSecret)
	})
	return router
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthTestRouter(repo)

	recorder := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    "test@Example.COM",
		"name":     "Test User",
		"password": "testpass123",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var got AuthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.NotEmpty(t, got.Token)
	assert.Equal(t, "test@example.com", got.User.Email)
	assert.Equal(t, "Test User", got.User.Name)

	// The password hash never leaves the server.
	assert.NotContains(t, recorder.Body.String(), "password")
	stored := repo.users[got.User.ID]
	assert.NotEqual(t, "testpass123", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	router := newAuthTestRouter(newFakeUserRepo())

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"missing email", map[string]any{"password": "testpass123"}},
		{"not an email", map[string]any{"email": "nope", "password": "testpass123"}},
		{"missing password", map[string]any{"email": "test@example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := doJSON(t, router, http.MethodPost, "/auth/register", "", tc.payload)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := newAuthTestRouter(newFakeUserRepo())

	payload := map[string]any{"email": "test@example.com", "password": "testpass123"}
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/auth/register", "", payload).Code)

	recorder := doJSON(t, router, http.MethodPost, "/auth/register", "", payload)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthTestRouter(repo)

	payload := map[string]any{"email": "test@example.com", "password": "testpass123"}
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/auth/register", "", payload).Code)

	recorder := doJSON(t, router, http.MethodPost, "/auth/login", "", payload)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got AuthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.NotEmpty(t, got.Token)
	assert.Equal(t, "test@example.com", got.User.Email)
}

func TestLoginBadCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthTestRouter(repo)

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]any{
		"email": "test@example.com", "password": "testpass123",
	}).Code)

	recorder := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "test@example.com", "password": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "nobody@example.com", "password": "testpass123",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestMe(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthTestRouter(repo)

	user, err := repo.Create(context.Background(), types.User{Email: "me@example.com", Name: "Me"})
	require.NoError(t, err)

	recorder := doJSON(t, router, http.MethodGet, "/auth/me", authHeader(t, user.ID), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got types.User
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "me@example.com", got.Email)

	recorder = doJSON(t, router, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestDeleteMe(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthTestRouter(repo)

	user, err := repo.Create(context.Background(), types.User{Email: "me@example.com"})
	require.NoError(t, err)

	recorder := doJSON(t, router, http.MethodDelete, "/auth/me", authHeader(t, user.ID), nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, repo.users)
}

func TestRejectsTamperedToken(t *testing.T) {
	router := newAuthTestRouter(newFakeUserRepo())

	token, err := issueToken(1, []byte("some-other-secret"), time.Hour)
	require.NoError(t, err)

	recorder := doJSON(t, router, http.MethodGet, "/auth/me", "Bearer "+token, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "test1@EXAMPLE.com", want: "test1@example.com"},
		{in: "Test2@Example.com", want: "Test2@example.com"},
		{in: "  test3@example.COM  ", want: "test3@example.com"},
		{in: "already@example.com", want: "already@example.com"},
		{in: "no-at-sign", wantErr: true},
		{in: "@example.com", wantErr: true},
		{in: "local@", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := normalizeEmail(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}
