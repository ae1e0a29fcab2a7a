// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package posts implements the post lifecycle: creating a post together
// with its thumbnail upload, editing text and replacing media, deleting
// with an ownership check, and keeping each author's post counter in step.
//
// Writes follow a fixed order: validate, write the file, write the record,
// update the counter. Nothing is transactional across the media store and
// the database, so a crash between steps can leave an orphaned file or a
// record whose file is gone. Counter drift is repaired by ReconcileAll.
package posts

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"

	"blogpress/internal/media"
	"blogpress/internal/models"
)

const (
	// MaxThumbnailSize is the largest accepted thumbnail upload in bytes.
	MaxThumbnailSize = 2_000_000

	// minEditDescriptionLen is the shortest description an edit accepts,
	// in user-perceived characters.
	minEditDescriptionLen = 12
)

// PostRepository is the persistent collection of posts. Finders return
// (nil, nil) when the post does not exist.
type PostRepository interface {
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	ListByCategory(ctx context.Context, category string) ([]models.Post, error)
	ListByCreator(ctx context.Context, creator uuid.UUID) ([]models.Post, error)
	Update(ctx context.Context, id uuid.UUID, changes models.PostChanges) (*models.Post, error)
	// Delete reports false when no record was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountByCreator(ctx context.Context, creator uuid.UUID) (int, error)
}

// UserRepository is the part of the user collection the lifecycle touches.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)

	// AdjustPostCount adds delta to the user's counter, flooring at zero.
	// It reports false when the user does not exist.
	AdjustPostCount(ctx context.Context, id uuid.UUID, delta int) (bool, error)

	SetPostCount(ctx context.Context, id uuid.UUID, count int) error
}

// MediaStore persists thumbnail files by name.
type MediaStore interface {
	Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string) error
}

// Upload is a thumbnail file received with a create or edit request.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// CreateInput carries the fields of a new post.
type CreateInput struct {
	Title       string
	Category    string
	Description string
	Thumbnail   *Upload
}

// EditInput carries the fields of an edit. Thumbnail is optional.
type EditInput struct {
	Title       string
	Category    string
	Description string
	Thumbnail   *Upload
}

// Options tunes lifecycle policy.
type Options struct {
	// EditOwnerOnly rejects edits from anyone but the post's creator.
	// Off by default: any authenticated caller may edit any post.
	EditOwnerOnly bool
}

// Service orchestrates the post lifecycle across the post repository, the
// user repository and the media store.
type Service struct {
	posts PostRepository
	users UserRepository
	media MediaStore
	opts  Options
}

// NewService creates a lifecycle service over the given collaborators.
func NewService(posts PostRepository, users UserRepository, mediaStore MediaStore, opts Options) *Service {
	return &Service{posts: posts, users: users, media: mediaStore, opts: opts}
}

// Create validates the input, stores the thumbnail under a fresh name,
// inserts the post and bumps the creator's counter.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, in CreateInput) (*models.Post, error) {
	if in.Title == "" || in.Category == "" || in.Description == "" || in.Thumbnail == nil {
		return nil, validationf("Fill in all fields and choose a thumbnail.")
	}
	if in.Thumbnail.Size > MaxThumbnailSize {
		return nil, validationf("Thumbnail too big. File should be less than 2MB.")
	}

	filename, err := s.saveThumbnail(ctx, in.Thumbnail)
	if err != nil {
		return nil, err
	}

	created, err := s.posts.Create(ctx, &models.Post{
		Title:       in.Title,
		Category:    in.Category,
		Description: in.Description,
		Thumbnail:   filename,
		Creator:     creatorID,
	})
	if err != nil {
		// The stored file stays behind; there is no rollback across stores.
		slog.Error("post insert failed", "error", err, "thumbnail", filename)
		return nil, &PersistenceError{Op: "create post", Err: err}
	}
	if created == nil {
		return nil, &PersistenceError{Op: "create post", Err: ErrNotCreated}
	}

	s.bestEffort(ctx, "increment post count", func(ctx context.Context) error {
		return s.adjustPostCount(ctx, creatorID, 1)
	}, "post_id", created.ID, "user_id", creatorID)

	slog.Info("post created", "post_id", created.ID, "user_id", creatorID, "thumbnail", filename)
	return created, nil
}

// List returns every post, most recently updated first.
func (s *Service) List(ctx context.Context) ([]models.Post, error) {
	items, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return nonNil(items), nil
}

// Get returns a single post.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if p == nil {
		return nil, &NotFoundError{Resource: "post", ID: id.String()}
	}
	return p, nil
}

// ListByCategory returns the posts filed under category, newest first.
// Unknown categories yield an empty slice.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]models.Post, error) {
	items, err := s.posts.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list posts by category: %w", err)
	}
	return nonNil(items), nil
}

// ListByUser returns the posts created by userID, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Post, error) {
	items, err := s.posts.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list posts by user: %w", err)
	}
	return nonNil(items), nil
}

// Edit updates the text fields of a post and, when a new thumbnail is
// supplied, replaces its media file. The old file is removed only after the
// record points at the new one.
func (s *Service) Edit(ctx context.Context, postID, callerID uuid.UUID, in EditInput) (*models.Post, error) {
	if in.Title == "" || in.Category == "" || uniseg.GraphemeClusterCount(in.Description) < minEditDescriptionLen {
		return nil, validationf("Fill in all fields.")
	}

	var existing *models.Post
	if in.Thumbnail != nil || s.opts.EditOwnerOnly {
		p, err := s.posts.FindByID(ctx, postID)
		if err != nil {
			return nil, &PersistenceError{Op: "find post", Err: err}
		}
		if p == nil {
			return nil, &NotFoundError{Resource: "post", ID: postID.String()}
		}
		if s.opts.EditOwnerOnly && !p.IsCreator(callerID) {
			return nil, ErrForbidden
		}
		existing = p
	}

	changes := models.PostChanges{Title: in.Title, Category: in.Category, Description: in.Description}

	var stale string
	if in.Thumbnail != nil {
		stale = existing.Thumbnail
		if in.Thumbnail.Size > MaxThumbnailSize {
			return nil, validationf("Thumbnail too big. File should be less than 2MB.")
		}
		filename, err := s.saveThumbnail(ctx, in.Thumbnail)
		if err != nil {
			return nil, err
		}
		changes.Thumbnail = &filename
	}

	updated, err := s.posts.Update(ctx, postID, changes)
	if err != nil {
		slog.Error("post update failed", "error", err, "post_id", postID)
		return nil, &PersistenceError{Op: "update post", Err: err}
	}
	if updated == nil {
		return nil, &PersistenceError{Op: "update post", Err: ErrNoRecord}
	}

	if stale != "" && stale != updated.Thumbnail {
		s.bestEffort(ctx, "delete replaced thumbnail", func(ctx context.Context) error {
			return s.media.Delete(ctx, stale)
		}, "post_id", postID, "file", stale)
	}

	return updated, nil
}

// Delete removes a post owned by callerID together with its thumbnail and
// decrements the creator's counter. File and counter failures are logged,
// never returned, once the ownership check has passed.
func (s *Service) Delete(ctx context.Context, postID, callerID uuid.UUID) error {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return &PersistenceError{Op: "find post", Err: err}
	}
	if p == nil {
		return &NotFoundError{Resource: "post", ID: postID.String()}
	}
	if !p.IsCreator(callerID) {
		slog.Warn("post delete refused", "post_id", postID, "caller", callerID, "creator", p.Creator)
		return ErrForbidden
	}

	if p.Thumbnail != "" {
		s.bestEffort(ctx, "delete thumbnail", func(ctx context.Context) error {
			return s.media.Delete(ctx, p.Thumbnail)
		}, "post_id", postID, "file", p.Thumbnail)
	}

	deleted, err := s.posts.Delete(ctx, postID)
	if err != nil {
		slog.Error("post delete failed", "error", err, "post_id", postID)
		return &PersistenceError{Op: "delete post", Err: err}
	}
	if !deleted {
		// A concurrent delete removed it first and owns the decrement.
		return &NotFoundError{Resource: "post", ID: postID.String()}
	}

	s.bestEffort(ctx, "decrement post count", func(ctx context.Context) error {
		return s.adjustPostCount(ctx, p.Creator, -1)
	}, "post_id", postID, "user_id", p.Creator)

	slog.Info("post deleted", "post_id", postID, "user_id", callerID)
	return nil
}

// saveThumbnail writes an upload to the media store under a generated name.
func (s *Service) saveThumbnail(ctx context.Context, up *Upload) (string, error) {
	filename := media.GenerateName(up.Filename)
	if err := s.media.Save(ctx, filename, up.Body, up.Size, up.ContentType); err != nil {
		slog.Error("thumbnail write failed", "error", err, "file", filename)
		return "", &StorageError{Op: "save thumbnail", Err: err}
	}
	return filename, nil
}

// adjustPostCount applies delta to a user's counter. A missing user is not
// an error: the update is skipped.
func (s *Service) adjustPostCount(ctx context.Context, userID uuid.UUID, delta int) error {
	found, err := s.users.AdjustPostCount(ctx, userID, delta)
	if err != nil {
		return err
	}
	if !found {
		slog.Debug("post count update skipped, user not found", "user_id", userID, "delta", delta)
	}
	return nil
}

// bestEffort runs a secondary step after a primary write succeeded. The step
// is detached from request cancellation; its failure is logged once and
// dropped.
func (s *Service) bestEffort(ctx context.Context, task string, fn func(context.Context) error, attrs ...any) {
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("best-effort task failed", append([]any{"task", task, "error", err}, attrs...)...)
	}
}

func nonNil(items []models.Post) []models.Post {
	if items == nil {
		return []models.Post{}
	}
	return items
}
