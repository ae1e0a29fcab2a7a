// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogpress/internal/cache"
	"blogpress/internal/middleware"
	"blogpress/internal/posts"
)

const (
	// maxRequestSize caps a post create or edit request body. It is larger
	// than posts.MaxThumbnailSize so oversized thumbnails reach the service
	// and get its validation message.
	maxRequestSize = 10 << 20

	// multipartMemory is how much of a multipart body is kept in memory
	// before spilling file parts to disk.
	multipartMemory = 4 << 20
)

// Posts handles the post API endpoints.
type Posts struct {
	svc     *posts.Service
	listing *cache.ListingCache
}

// NewPosts creates a Posts handler. listing may be nil, in which case read
// responses are not cached.
func NewPosts(svc *posts.Service, listing *cache.ListingCache) *Posts {
	return &Posts{svc: svc, listing: listing}
}

// Create handles POST /api/posts.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized. No token")
		return
	}

	if !h.parseForm(w, r) {
		return
	}
	thumb, closeThumb, err := formUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Couldn't read the thumbnail upload.")
		return
	}
	defer closeThumb()

	created, err := h.svc.Create(r.Context(), userID, posts.CreateInput{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Thumbnail:   thumb,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r.Context())
	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /api/posts.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cache.AllKey(), func(ctx context.Context) (any, error) {
		return h.svc.List(ctx)
	})
}

// Get handles GET /api/posts/{id}. A malformed id is reported as not found.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Post not found.")
		return
	}
	h.serveCached(w, r, cache.PostKey(id), func(ctx context.Context) (any, error) {
		return h.svc.Get(ctx, id)
	})
}

// ListByCategory handles GET /api/posts/categories/{category}.
func (h *Posts) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	h.serveCached(w, r, cache.CategoryKey(category), func(ctx context.Context) (any, error) {
		return h.svc.ListByCategory(ctx, category)
	})
}

// ListByUser handles GET /api/posts/users/{id}.
func (h *Posts) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	h.serveCached(w, r, cache.UserKey(id), func(ctx context.Context) (any, error) {
		return h.svc.ListByUser(ctx, id)
	})
}

// Edit handles PATCH /api/posts/{id}. The body may be multipart (with an
// optional thumbnail) or urlencoded.
func (h *Posts) Edit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized. No token")
		return
	}
	postID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Post not found.")
		return
	}

	if !h.parseForm(w, r) {
		return
	}
	thumb, closeThumb, err := formUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Couldn't read the thumbnail upload.")
		return
	}
	defer closeThumb()

	updated, err := h.svc.Edit(r.Context(), postID, userID, posts.EditInput{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Thumbnail:   thumb,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r.Context())
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/posts/{id}. Only the creator may delete.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized. No token")
		return
	}
	postID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Post not found.")
		return
	}

	if err := h.svc.Delete(r.Context(), postID, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

// parseForm reads a multipart or urlencoded body. A non-multipart body is
// not an error: its urlencoded fields are still parsed. It writes the error
// response and returns false when the body is unusable.
func (h *Posts) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request too large. Thumbnail should be less than 2MB.")
		return false
	}
	slog.Debug("form parse failed", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusBadRequest, "Malformed form data.")
	return false
}

// formUpload returns the "thumbnail" file part as a posts.Upload, or nil
// when the request carries none. The returned func closes the file.
func formUpload(r *http.Request) (*posts.Upload, func(), error) {
	noop := func() {}

	file, header, err := r.FormFile("thumbnail")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	return &posts.Upload{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, closer(file), nil
}

func closer(f multipart.File) func() {
	return func() {
		if err := f.Close(); err != nil {
			slog.Debug("close upload failed", "error", err)
		}
	}
}

// serveCached answers a read from the listing cache when possible and
// otherwise loads, serializes and caches the result.
func (h *Posts) serveCached(w http.ResponseWriter, r *http.Request, key string, load func(context.Context) (any, error)) {
	if h.listing != nil {
		if body, ok := h.listing.Get(r.Context(), key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	v, err := load(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	body = append(body, '\n')

	if h.listing != nil {
		h.listing.Set(r.Context(), key, body)
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// invalidate drops every cached read response after a successful write.
func (h *Posts) invalidate(ctx context.Context) {
	if h.listing != nil {
		h.listing.InvalidateAll(context.WithoutCancel(ctx))
	}
}
