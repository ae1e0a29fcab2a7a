package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/posts"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, posts.Options{})

	rr := env.do(jsonRequest(t, http.MethodPost, "/api/users/register", registerRequest{
		Name: "Ada", Email: " Ada@Example.com ", Password: "secret1", Password2: "secret1",
	}), "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "New user ada@example.com registered.", message(t, rr))

	rr = env.do(jsonRequest(t, http.MethodPost, "/api/users/login", loginRequest{
		Email: "ada@example.com", Password: "secret1",
	}), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[loginResponse](t, rr)
	assert.Equal(t, "Ada", resp.Name)
	assert.NotEmpty(t, resp.Token)

	id, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, id)
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	env.user(t, "taken")

	tests := []struct {
		name string
		req  registerRequest
		want string
	}{
		{"missing fields", registerRequest{Email: "a@example.com"}, "Fill in all fields."},
		{"short password", registerRequest{Name: "A", Email: "a@example.com", Password: "123", Password2: "123"}, "Password should be at least 6 characters."},
		{"mismatch", registerRequest{Name: "A", Email: "a@example.com", Password: "secret1", Password2: "secret2"}, "Passwords do not match."},
		{"email exists", registerRequest{Name: "A", Email: "TAKEN@example.com", Password: "secret1", Password2: "secret1"}, "Email already exists."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(jsonRequest(t, http.MethodPost, "/api/users/register", tt.req), "")
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Equal(t, tt.want, message(t, rr))
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/users/register", nil)
		req.Body = http.NoBody
		rr := env.do(req, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestLogin_Errors(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	env.user(t, "ada")

	tests := []struct {
		name string
		req  loginRequest
		want string
	}{
		{"missing password", loginRequest{Email: "ada@example.com"}, "Fill in all fields."},
		{"unknown email", loginRequest{Email: "nobody@example.com", Password: "password"}, "Invalid credentials."},
		{"wrong password", loginRequest{Email: "ada@example.com", Password: "wrong-password"}, "Invalid credentials."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(jsonRequest(t, http.MethodPost, "/api/users/login", tt.req), "")
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Equal(t, tt.want, message(t, rr))
		})
	}
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	ada, token := env.user(t, "ada")
	env.createPost(t, token, "Hello", "tech")

	rr := env.get("/api/users/" + ada.ID.String())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, strings.Contains(rr.Body.String(), "password"), "hash must never be serialized")

	got := decode[models.User](t, rr)
	assert.Equal(t, "ada", got.Name)
	assert.Equal(t, 1, got.Posts)

	rr = env.get("/api/users/" + uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "User not found.", message(t, rr))

	rr = env.get("/api/users/garbage")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthors(t *testing.T) {
	env := newTestEnv(t, posts.Options{})

	rr := env.get("/api/users/authors")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())

	env.user(t, "ada")
	env.user(t, "bob")

	rr = env.get("/api/users/authors")
	require.Equal(t, http.StatusOK, rr.Code)
	users := decode[[]models.User](t, rr)
	require.Len(t, users, 2)
	assert.Equal(t, "ada", users[0].Name)
}

func TestReconcileEndpoint(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	ada, token := env.user(t, "ada")
	env.createPost(t, token, "Hello", "tech")
	require.NoError(t, env.users.SetPostCount(context.Background(), ada.ID, 5))

	rr := env.do(jsonRequest(t, http.MethodPost, "/api/admin/reconcile", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// The shared router has no admins configured.
	rr = env.do(jsonRequest(t, http.MethodPost, "/api/admin/reconcile", nil), token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 5, env.postCount(t, ada.ID), "refused call must not touch counters")

	admin := middleware.RequireAuth(env.tokens)(http.HandlerFunc(NewAdmin(env.svc, []uuid.UUID{ada.ID}).Reconcile))
	req := jsonRequest(t, http.MethodPost, "/api/admin/reconcile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	admin.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	report := decode[posts.ReconcileReport](t, rr)
	assert.Equal(t, posts.ReconcileReport{Checked: 1, Repaired: 1}, report)
	assert.Equal(t, 1, env.postCount(t, ada.ID))
}

func TestReconcileEndpoint_OrdinaryUserRefused(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	ada, _ := env.user(t, "ada")
	_, bobToken := env.user(t, "bob")

	admin := middleware.RequireAuth(env.tokens)(http.HandlerFunc(NewAdmin(env.svc, []uuid.UUID{ada.ID}).Reconcile))
	req := jsonRequest(t, http.MethodPost, "/api/admin/reconcile", nil)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	rr := httptest.NewRecorder()
	admin.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "Admin access required.")
}
