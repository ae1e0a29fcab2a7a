// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory stores and a temporary disk media
// store, so no external services are needed.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"blogpress/internal/auth"
	"blogpress/internal/media"
	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/posts"
	"blogpress/internal/store/memory"
)

type testEnv struct {
	handler http.Handler
	posts   *memory.PostStore
	users   *memory.UserStore
	media   *media.Disk
	tokens  *auth.Issuer
	svc     *posts.Service
}

func newTestEnv(t *testing.T, opts posts.Options) *testEnv {
	t.Helper()

	disk, err := media.NewDisk(filepath.Join(t.TempDir(), "uploads"), "/uploads")
	require.NoError(t, err)

	env := &testEnv{
		posts:  memory.NewPostStore(),
		users:  memory.NewUserStore(),
		media:  disk,
		tokens: auth.NewIssuer("handler-test-secret", time.Hour),
	}
	svc := posts.NewService(env.posts, env.users, disk, opts)
	env.svc = svc

	postsH := NewPosts(svc, nil)
	usersH := NewUsers(env.users, env.tokens)
	adminH := NewAdmin(svc, nil)
	requireAuth := middleware.RequireAuth(env.tokens)

	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", postsH.List)
		r.Get("/{id}", postsH.Get)
		r.Get("/categories/{category}", postsH.ListByCategory)
		r.Get("/users/{id}", postsH.ListByUser)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", postsH.Create)
			r.Patch("/{id}", postsH.Edit)
			r.Delete("/{id}", postsH.Delete)
		})
	})
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", usersH.Register)
		r.Post("/login", usersH.Login)
		r.Get("/authors", usersH.Authors)
		r.Get("/{id}", usersH.Get)
	})
	r.With(requireAuth).Post("/api/admin/reconcile", adminH.Reconcile)

	env.handler = r
	return env
}

// user creates an account and returns it with a bearer token.
func (e *testEnv) user(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	u, err := e.users.Create(context.Background(), name, name+"@example.com", "password")
	require.NoError(t, err)
	token, err := e.tokens.Issue(u.ID)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), "")
}

// postForm describes a multipart post create or edit body.
type postForm struct {
	Title, Category, Description string
	FileName                     string
	FileSize                     int
}

func multipartRequest(t *testing.T, method, path string, f postForm) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", f.Title))
	require.NoError(t, mw.WriteField("category", f.Category))
	require.NoError(t, mw.WriteField("description", f.Description))
	if f.FileName != "" {
		part, err := mw.CreateFormFile("thumbnail", f.FileName)
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(bytes.Repeat([]byte{0x42}, f.FileSize)))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, rr).Message
}

// createPost creates a post through the API and returns it.
func (e *testEnv) createPost(t *testing.T, token, title, category string) models.Post {
	t.Helper()
	rr := e.do(multipartRequest(t, http.MethodPost, "/api/posts", postForm{
		Title: title, Category: category, Description: "A description",
		FileName: "cover.jpg", FileSize: 1024,
	}), token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[models.Post](t, rr)
}

func (e *testEnv) postCount(t *testing.T, id uuid.UUID) int {
	t.Helper()
	u, err := e.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u.Posts
}
