// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"blogpress/internal/posts"
)

// errorResponse is the body of every error reply.
type errorResponse struct {
	Message string `json:"message"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// handleServiceError maps lifecycle errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case posts.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())

	case posts.IsNotFound(err):
		var nf *posts.NotFoundError
		errors.As(err, &nf)
		if nf.Resource == "user" {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		writeError(w, http.StatusNotFound, "Post not found.")

	case posts.IsForbidden(err):
		writeError(w, http.StatusForbidden, "You are not allowed to modify this post.")

	case errors.Is(err, posts.ErrNoRecord):
		writeError(w, http.StatusBadRequest, "Couldn't update post.")

	case errors.Is(err, posts.ErrNotCreated):
		writeError(w, http.StatusInternalServerError, "Post couldn't be created.")

	case posts.IsStorage(err):
		writeError(w, http.StatusInternalServerError, "Couldn't store the thumbnail.")

	default:
		// Don't leak internal error details to clients.
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "An internal error occurred.")
	}
}

// NotFound answers unknown routes with a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not Found - "+r.URL.Path)
}

// MethodNotAllowed answers known routes hit with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
}
