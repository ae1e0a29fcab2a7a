// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogpress/internal/media"
)

// Uploads serves stored thumbnails. Disk-backed files are streamed from the
// uploads directory; files in object storage are redirected to their
// public URL.
type Uploads struct {
	store media.Store
}

// NewUploads creates an Uploads handler over store.
func NewUploads(store media.Store) *Uploads {
	return &Uploads{store: store}
}

// Serve handles GET /uploads/{filename}.
func (u *Uploads) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !media.ValidName(name) || strings.HasPrefix(name, ".") {
		NotFound(w, r)
		return
	}

	disk, ok := u.store.(*media.Disk)
	if !ok {
		http.Redirect(w, r, u.store.URL(name), http.StatusFound)
		return
	}

	exists, err := disk.Exists(r.Context(), name)
	if err != nil || !exists {
		NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, filepath.Join(disk.Root(), name))
}
