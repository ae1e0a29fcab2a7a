// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Disk is a filesystem-backed media store rooted at one directory.
type Disk struct {
	root      string
	urlPrefix string // e.g. "/uploads"
}

// NewDisk creates the root directory if needed and returns a store that
// serves files under urlPrefix.
func NewDisk(root, urlPrefix string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir %s: %w", root, err)
	}
	return &Disk{root: root, urlPrefix: urlPrefix}, nil
}

// Root returns the directory files are written to.
func (d *Disk) Root() string {
	return d.root
}

// Save writes body to root/name. The file is written to a temporary name
// first and renamed into place, so readers never see a partial file.
func (d *Disk) Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("disk create %s: %w", name, err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && size > 0 && n != size {
		err = fmt.Errorf("short write: got %d bytes, want %d", n, size)
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("disk write %s: %w", name, err)
	}

	if err := os.Rename(tmpName, filepath.Join(d.root, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("disk rename %s: %w", name, err)
	}
	return nil
}

// Delete removes root/name.
func (d *Disk) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.root, name)); err != nil {
		return fmt.Errorf("disk delete %s: %w", name, err)
	}
	return nil
}

// Exists reports whether root/name is present.
func (d *Disk) Exists(ctx context.Context, name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(d.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("disk stat %s: %w", name, err)
	}
	return true, nil
}

// URL returns the public path of a stored file.
func (d *Disk) URL(name string) string {
	return d.urlPrefix + "/" + name
}
