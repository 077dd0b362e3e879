package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
)

// User is a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts in the shared database.
type UserStore struct {
	db *sql.DB
}

// InitSchema creates the users table if it doesn't exist.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return kerr.Storage("create users schema", err)
	}
	return nil
}

// NewUserStore creates a user store over the shared database.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. Returns a duplicate-user error when the
// username or email is already taken.
func (s *UserStore) Create(ctx context.Context, u *User) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE username = ? OR email = ?
	`, u.Username, u.Email).Scan(&exists)
	if err != nil {
		return kerr.Storage("check existing user", err)
	}
	if exists > 0 {
		return kerr.New(kerr.CodeDuplicateUser, "User already exists")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt.UnixMilli())
	if err != nil {
		return kerr.Storage("insert user", err)
	}
	return nil
}

// GetByUsername loads a user by username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, kerr.NotFound("user not found")
	}
	if err != nil {
		return nil, kerr.Storage("get user", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt)
	return &u, nil
}
