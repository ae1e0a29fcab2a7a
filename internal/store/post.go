// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"blogpress/internal/models"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postColumns lists the columns selected in post queries.
const postColumns = `id, title, category, description, thumbnail, creator_id, created_at, updated_at`

// scanPost scans a post row from the result set.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Category, &p.Description, &p.Thumbnail,
		&p.Creator, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new post and returns it with the generated ID and
// timestamps.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, category, description, thumbnail, creator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+postColumns,
		p.Title, p.Category, p.Description, p.Thumbnail, p.Creator,
	)
	created, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// FindByID retrieves a post by its UUID. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// List returns all posts, most recently updated first.
func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	return s.query(ctx, "list posts", `
		SELECT `+postColumns+`
		FROM posts
		ORDER BY updated_at DESC
	`)
}

// ListByCategory returns the posts in a category, newest first.
func (s *PostStore) ListByCategory(ctx context.Context, category string) ([]models.Post, error) {
	return s.query(ctx, "list posts by category", `
		SELECT `+postColumns+`
		FROM posts
		WHERE category = $1
		ORDER BY created_at DESC
	`, category)
}

// ListByCreator returns the posts written by one user, newest first.
func (s *PostStore) ListByCreator(ctx context.Context, creator uuid.UUID) ([]models.Post, error) {
	return s.query(ctx, "list posts by creator", `
		SELECT `+postColumns+`
		FROM posts
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`, creator)
}

// Update overwrites the editable fields of a post and returns the new row.
// The thumbnail is kept when changes.Thumbnail is nil. Returns nil if the
// post does not exist.
func (s *PostStore) Update(ctx context.Context, id uuid.UUID, changes models.PostChanges) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE posts SET
			title = $1, category = $2, description = $3,
			thumbnail = COALESCE($4, thumbnail),
			updated_at = NOW()
		WHERE id = $5
		RETURNING `+postColumns,
		changes.Title, changes.Category, changes.Description, changes.Thumbnail, id,
	)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return p, nil
}

// Delete removes a post by ID. Reports false if no row was deleted, which
// happens when a concurrent delete got there first.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return n > 0, nil
}

// CountByCreator returns the true number of posts written by a user.
func (s *PostStore) CountByCreator(ctx context.Context, creator uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE creator_id = $1`, creator).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func (s *PostStore) query(ctx context.Context, op, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}
