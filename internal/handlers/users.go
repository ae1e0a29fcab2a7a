// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogpress/internal/models"
	"blogpress/internal/posts"
)

// UserStore is the user persistence the account endpoints need.
type UserStore interface {
	Create(ctx context.Context, name, email, password string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// TokenIssuer signs bearer tokens for logged-in users.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// Users groups the account HTTP handlers.
type Users struct {
	users  UserStore
	tokens TokenIssuer
}

// NewUsers creates a new Users handler group.
func NewUsers(users UserStore, tokens TokenIssuer) *Users {
	return &Users{users: users, tokens: tokens}
}

type registerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
}

// Register handles POST /api/users/register.
func (u *Users) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Fill in all fields.")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if msg := validateRegistration(name, email, req.Password, req.Password2); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	existing, err := u.users.FindByEmail(r.Context(), email)
	if err != nil {
		slog.Error("register lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An internal error occurred.")
		return
	}
	if existing != nil {
		writeError(w, http.StatusUnprocessableEntity, "Email already exists.")
		return
	}

	created, err := u.users.Create(r.Context(), name, email, req.Password)
	if err != nil {
		// Lost a race with a concurrent registration of the same email.
		slog.Warn("user create failed", "error", err, "email", email)
		writeError(w, http.StatusUnprocessableEntity, "User registration failed.")
		return
	}

	slog.Info("user registered", "user_id", created.ID, "email", created.Email)
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "New user " + created.Email + " registered.",
	})
}

// Login handles POST /api/users/login and returns a bearer token.
func (u *Users) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "Fill in all fields.")
		return
	}

	user, err := u.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An internal error occurred.")
		return
	}
	if user == nil || !user.CheckPassword(req.Password) {
		writeError(w, http.StatusUnprocessableEntity, "Invalid credentials.")
		return
	}

	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		slog.Error("token issue failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "An internal error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, ID: user.ID, Name: user.Name})
}

// Get handles GET /api/users/{id}.
func (u *Users) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found.")
		return
	}

	user, err := u.users.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if user == nil {
		handleServiceError(w, r, &posts.NotFoundError{Resource: "user", ID: id.String()})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Authors handles GET /api/users/authors.
func (u *Users) Authors(w http.ResponseWriter, r *http.Request) {
	users, err := u.users.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
