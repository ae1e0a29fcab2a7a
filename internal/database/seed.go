package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"blogpress/internal/models"
)

const (
	seedEmail    = "author@blogpress.local"
	seedPassword = "author"
)

// Seed populates the database with initial development data.
// It creates a default author account if no users exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := models.HashPassword(seedPassword)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
	`, "Default Author", seedEmail, hash)
	if err != nil {
		return fmt.Errorf("seed insert author: %w", err)
	}

	slog.Info("database seeded with default author",
		"email", seedEmail,
		"password", seedPassword,
	)

	return nil
}
