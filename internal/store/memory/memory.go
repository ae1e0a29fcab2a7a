// Package memory provides in-process post and user stores with the same
// method sets as the PostgreSQL stores. They back development runs with
// STORE_BACKEND=memory and the service and handler tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/models"
)

// ErrEmailTaken is returned by UserStore.Create for a duplicate email.
var ErrEmailTaken = errors.New("email already registered")

// PostStore keeps posts in a map guarded by a RWMutex. Records are copied
// in and out so callers never share memory with the store.
type PostStore struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]models.Post
	now   func() time.Time
}

// NewPostStore creates an empty post store.
func NewPostStore() *PostStore {
	return &PostStore{
		posts: make(map[uuid.UUID]models.Post),
		now:   monotonicClock(),
	}
}

// Create stores a copy of p with a fresh ID and timestamps.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *p
	rec.ID = uuid.New()
	rec.CreatedAt = s.now()
	rec.UpdatedAt = rec.CreatedAt
	s.posts[rec.ID] = rec
	return &rec, nil
}

// FindByID returns the post, or nil if it does not exist.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// List returns all posts, most recently updated first.
func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	items := s.filter(func(models.Post) bool { return true })
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	return items, nil
}

// ListByCategory returns posts whose category matches exactly, newest first.
func (s *PostStore) ListByCategory(ctx context.Context, category string) ([]models.Post, error) {
	items := s.filter(func(p models.Post) bool { return p.Category == category })
	sortByCreatedDesc(items)
	return items, nil
}

// ListByCreator returns one user's posts, newest first.
func (s *PostStore) ListByCreator(ctx context.Context, creator uuid.UUID) ([]models.Post, error) {
	items := s.filter(func(p models.Post) bool { return p.Creator == creator })
	sortByCreatedDesc(items)
	return items, nil
}

// Update overwrites the text fields, and the thumbnail when one is given.
// Returns nil if the post does not exist.
func (s *PostStore) Update(ctx context.Context, id uuid.UUID, changes models.PostChanges) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	rec.Title = changes.Title
	rec.Category = changes.Category
	rec.Description = changes.Description
	if changes.Thumbnail != nil {
		rec.Thumbnail = *changes.Thumbnail
	}
	rec.UpdatedAt = s.now()
	s.posts[id] = rec
	return &rec, nil
}

// Delete removes a post. Reports false if it was already gone.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return false, nil
	}
	delete(s.posts, id)
	return true, nil
}

// CountByCreator counts the posts a user currently owns.
func (s *PostStore) CountByCreator(ctx context.Context, creator uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.posts {
		if p.Creator == creator {
			n++
		}
	}
	return n, nil
}

func (s *PostStore) filter(keep func(models.Post) bool) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			items = append(items, p)
		}
	}
	return items
}

func sortByCreatedDesc(items []models.Post) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// UserStore keeps users in a map guarded by a RWMutex.
type UserStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[uuid.UUID]models.User),
		byEmail: make(map[string]uuid.UUID),
		now:     monotonicClock(),
	}
}

// Create hashes the password and stores a new user under the normalised
// email. Returns ErrEmailTaken if the email is already registered.
func (s *UserStore) Create(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := models.HashPassword(password)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return nil, ErrEmailTaken
	}
	u := models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return &u, nil
}

// FindByID returns the user, or nil if it does not exist.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindByEmail looks up a user by email, ignoring case and surrounding spaces.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	u := s.users[id]
	return &u, nil
}

// List returns every user in registration order.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// AdjustPostCount adds delta to the user's post counter, flooring at zero.
// Reports false if the user does not exist.
func (s *UserStore) AdjustPostCount(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	u.Posts = max(u.Posts+delta, 0)
	u.UpdatedAt = s.now()
	s.users[id] = u
	return true, nil
}

// SetPostCount overwrites the post counter. Unknown users are ignored.
func (s *UserStore) SetPostCount(ctx context.Context, id uuid.UUID, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil
	}
	u.Posts = max(count, 0)
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

// Delete removes a user and frees their email.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.users, id)
	}
	return nil
}

// monotonicClock returns a clock that never yields the same instant twice,
// so ordering by timestamp stays deterministic for back-to-back writes.
func monotonicClock() func() time.Time {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := time.Now().UTC()
		if !t.After(last) {
			t = last.Add(time.Microsecond)
		}
		last = t
		return t
	}
}
