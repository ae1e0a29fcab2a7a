// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package media stores uploaded thumbnail images. Files are keyed by a
// generated name; the disk backend keeps them under a local uploads
// directory and the S3 backend in a single bucket.
package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for names that could escape the store.
var ErrInvalidName = errors.New("invalid media name")

// Store is implemented by every media backend.
type Store interface {
	Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)

	// URL returns where clients fetch the file from.
	URL(name string) string
}

// GenerateName builds a collision-free storage name from an uploaded
// filename: the original base name, an underscore, a random UUID, then the
// original extension. "cat.photo.png" becomes "cat.photo_<uuid>.png".
func GenerateName(original string) string {
	original = filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	if original == "." || original == "/" {
		original = ""
	}
	ext := filepath.Ext(original)
	base := strings.TrimSpace(strings.TrimSuffix(original, ext))
	if base == "" {
		base = "thumbnail"
	}
	return base + "_" + uuid.NewString() + ext
}

// validName rejects empty names and anything containing a path separator.
func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}

// ValidName reports whether name is safe to look up in a store.
func ValidName(name string) bool {
	return validName(name) == nil
}
