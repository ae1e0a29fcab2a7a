package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogpress/internal/models"
	"blogpress/internal/posts"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	alice, token := env.user(t, "alice")

	rr := env.do(multipartRequest(t, http.MethodPost, "/api/posts", postForm{
		Title: "Hello", Category: "tech", Description: "World",
		FileName: "hello.png", FileSize: 500_000,
	}), token)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	p := decode[models.Post](t, rr)
	assert.Equal(t, "Hello", p.Title)
	assert.Equal(t, alice.ID, p.Creator)
	assert.True(t, strings.HasSuffix(p.Thumbnail, ".png"))

	exists, err := env.media.Exists(context.Background(), p.Thumbnail)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, env.postCount(t, alice.ID))
}

func TestCreatePost_Errors(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	_, token := env.user(t, "alice")

	tests := []struct {
		name       string
		form       postForm
		token      string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "no token",
			form:       postForm{Title: "t", Category: "c", Description: "d", FileName: "a.jpg", FileSize: 10},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Unauthorized. No token",
		},
		{
			name:       "bad token",
			form:       postForm{Title: "t", Category: "c", Description: "d", FileName: "a.jpg", FileSize: 10},
			token:      "not-a-jwt",
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Unauthorized. Invalid token",
		},
		{
			name:       "missing thumbnail",
			form:       postForm{Title: "t", Category: "c", Description: "d"},
			token:      token,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Fill in all fields and choose a thumbnail.",
		},
		{
			name:       "missing title",
			form:       postForm{Category: "c", Description: "d", FileName: "a.jpg", FileSize: 10},
			token:      token,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Fill in all fields and choose a thumbnail.",
		},
		{
			name:       "thumbnail too big",
			form:       postForm{Title: "t", Category: "c", Description: "d", FileName: "big.jpg", FileSize: 3_000_000},
			token:      token,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Thumbnail too big. File should be less than 2MB.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(multipartRequest(t, http.MethodPost, "/api/posts", tt.form), tt.token)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantMsg, message(t, rr))
		})
	}

	all, err := env.posts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreatePost_NonMultipartBody(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	_, token := env.user(t, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(url.Values{
		"title": {"t"}, "category": {"c"}, "description": {"d"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := env.do(req, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestReadEndpoints(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	alice, aliceToken := env.user(t, "alice")
	_, bobToken := env.user(t, "bob")

	a1 := env.createPost(t, aliceToken, "a1", "tech")
	b1 := env.createPost(t, bobToken, "b1", "art")

	t.Run("list", func(t *testing.T) {
		rr := env.get("/api/posts")
		require.Equal(t, http.StatusOK, rr.Code)
		items := decode[[]models.Post](t, rr)
		require.Len(t, items, 2)
		assert.Equal(t, b1.ID, items[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		rr := env.get("/api/posts/" + a1.ID.String())
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "a1", decode[models.Post](t, rr).Title)
	})

	t.Run("get missing", func(t *testing.T) {
		rr := env.get("/api/posts/" + uuid.NewString())
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Post not found.", message(t, rr))
	})

	t.Run("get malformed id", func(t *testing.T) {
		rr := env.get("/api/posts/not-an-id")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("by category", func(t *testing.T) {
		rr := env.get("/api/posts/categories/tech")
		require.Equal(t, http.StatusOK, rr.Code)
		items := decode[[]models.Post](t, rr)
		require.Len(t, items, 1)
		assert.Equal(t, a1.ID, items[0].ID)
	})

	t.Run("unknown category is an empty array", func(t *testing.T) {
		rr := env.get("/api/posts/categories/nonexistent")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "[]\n", rr.Body.String())
	})

	t.Run("by user", func(t *testing.T) {
		rr := env.get("/api/posts/users/" + alice.ID.String())
		require.Equal(t, http.StatusOK, rr.Code)
		items := decode[[]models.Post](t, rr)
		require.Len(t, items, 1)
		assert.Equal(t, a1.ID, items[0].ID)
	})

	t.Run("by user malformed id", func(t *testing.T) {
		rr := env.get("/api/posts/users/nope")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid ID", message(t, rr))
	})
}

func TestEditPost(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	_, token := env.user(t, "alice")
	p := env.createPost(t, token, "Hello", "tech")

	t.Run("text only urlencoded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/posts/"+p.ID.String(), strings.NewReader(url.Values{
			"title": {"Hello again"}, "category": {"art"}, "description": {"long enough description"},
		}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rr := env.do(req, token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		got := decode[models.Post](t, rr)
		assert.Equal(t, "Hello again", got.Title)
		assert.Equal(t, p.Thumbnail, got.Thumbnail)
	})

	t.Run("replace thumbnail", func(t *testing.T) {
		rr := env.do(multipartRequest(t, http.MethodPatch, "/api/posts/"+p.ID.String(), postForm{
			Title: "Hello", Category: "tech", Description: "long enough description",
			FileName: "fresh.webp", FileSize: 2048,
		}), token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		got := decode[models.Post](t, rr)
		assert.NotEqual(t, p.Thumbnail, got.Thumbnail)
		assert.True(t, strings.HasSuffix(got.Thumbnail, ".webp"))

		old, err := env.media.Exists(context.Background(), p.Thumbnail)
		require.NoError(t, err)
		assert.False(t, old)
	})

	t.Run("short description", func(t *testing.T) {
		rr := env.do(multipartRequest(t, http.MethodPatch, "/api/posts/"+p.ID.String(), postForm{
			Title: "Hello", Category: "tech", Description: "too short",
		}), token)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "Fill in all fields.", message(t, rr))
	})

	t.Run("missing post without file", func(t *testing.T) {
		rr := env.do(multipartRequest(t, http.MethodPatch, "/api/posts/"+uuid.NewString(), postForm{
			Title: "Hello", Category: "tech", Description: "long enough description",
		}), token)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Couldn't update post.", message(t, rr))
	})

	t.Run("missing post with file", func(t *testing.T) {
		rr := env.do(multipartRequest(t, http.MethodPatch, "/api/posts/"+uuid.NewString(), postForm{
			Title: "Hello", Category: "tech", Description: "long enough description",
			FileName: "x.png", FileSize: 10,
		}), token)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("no token", func(t *testing.T) {
		rr := env.do(multipartRequest(t, http.MethodPatch, "/api/posts/"+p.ID.String(), postForm{
			Title: "Hello", Category: "tech", Description: "long enough description",
		}), "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestEditPost_OwnerOnly(t *testing.T) {
	env := newTestEnv(t, posts.Options{EditOwnerOnly: true})
	_, aliceToken := env.user(t, "alice")
	_, bobToken := env.user(t, "bob")
	p := env.createPost(t, aliceToken, "Hello", "tech")

	rr := env.do(multipartRequest(t, http.MethodPatch, "/api/posts/"+p.ID.String(), postForm{
		Title: "Bob edit", Category: "tech", Description: "long enough description",
	}), bobToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	alice, aliceToken := env.user(t, "alice")
	_, bobToken := env.user(t, "bob")
	p := env.createPost(t, aliceToken, "Hello", "tech")

	path := "/api/posts/" + p.ID.String()

	rr := env.do(httptest.NewRequest(http.MethodDelete, path, nil), bobToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, http.StatusOK, env.get(path).Code, "post must survive a forbidden delete")

	rr = env.do(httptest.NewRequest(http.MethodDelete, path, nil), "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodDelete, path, nil), aliceToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Post deleted successfully", message(t, rr))
	assert.Equal(t, http.StatusNotFound, env.get(path).Code)
	assert.Equal(t, 0, env.postCount(t, alice.ID))

	rr = env.do(httptest.NewRequest(http.MethodDelete, path, nil), aliceToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, posts.Options{})
	rr := env.get("/api/nothing-here")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not Found - /api/nothing-here", message(t, rr))
}
