// Package router sets up all HTTP routes and middleware chains for the
// BlogPress API. It organizes routes into public read, authenticated write
// and account groups with appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogpress/internal/handlers"
	"blogpress/internal/middleware"
)

// Deps carries everything the router wires into routes.
type Deps struct {
	Tokens  middleware.TokenVerifier
	Posts   *handlers.Posts
	Users   *handlers.Users
	Admin   *handlers.Admin
	Uploads *handlers.Uploads

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string

	// AuthLimiter throttles register and login; WriteLimiter throttles post
	// writes and admin calls. Either may be nil to disable limiting.
	AuthLimiter  *middleware.RateLimiter
	WriteLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(d.CORSOrigins))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Health check, no auth.
	r.Get("/health", healthHandler)

	// Stored thumbnails.
	r.Get("/uploads/{filename}", d.Uploads.Serve)

	requireAuth := middleware.RequireAuth(d.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Route("/posts", func(r chi.Router) {
			// Reads are public.
			r.Get("/", d.Posts.List)
			r.Get("/{id}", d.Posts.Get)
			r.Get("/categories/{category}", d.Posts.ListByCategory)
			r.Get("/users/{id}", d.Posts.ListByUser)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Use(limit(d.WriteLimiter))
				r.Post("/", d.Posts.Create)
				r.Patch("/{id}", d.Posts.Edit)
				r.Delete("/{id}", d.Posts.Delete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(limit(d.AuthLimiter)).Post("/register", d.Users.Register)
			r.With(limit(d.AuthLimiter)).Post("/login", d.Users.Login)
			r.Get("/authors", d.Users.Authors)
			r.Get("/{id}", d.Users.Get)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(limit(d.WriteLimiter))
			r.Post("/reconcile", d.Admin.Reconcile)
		})
	})

	return r
}

// limit returns rl's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
