// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a single authored article with text fields and one thumbnail
// image kept in the media store.
type Post struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"` // media store filename
	Creator     uuid.UUID `json:"creator"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsCreator reports whether userID authored the post.
func (p *Post) IsCreator(userID uuid.UUID) bool {
	return p.Creator == userID
}

// PostChanges holds the fields an edit may overwrite. A nil Thumbnail
// leaves the stored filename untouched.
type PostChanges struct {
	Title       string
	Category    string
	Description string
	Thumbnail   *string
}
