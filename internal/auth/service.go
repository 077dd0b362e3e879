// Package auth provides user accounts and bearer tokens.
//
// Identity is a capability for the rest of the system: handlers resolve
// a token to an opaque caller id, and everything downstream only ever
// sees that id (or its absence, for anonymous callers).
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
)

// bcryptCost matches the original deployment's hashing cost.
const bcryptCost = 10

// Service handles registration, login, and token verification.
type Service struct {
	users    *UserStore
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates the auth service. secret signs bearer tokens;
// ttl <= 0 defaults to 7 days.
func NewService(users *UserStore, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: ttl,
	}
}

// Register creates an account and returns the user with a signed token.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, string, error) {
	if username == "" || email == "" || password == "" {
		return nil, "", kerr.InvalidInput("username, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", kerr.Wrap(kerr.CodeInternal, "hash password", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.signToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the user with a signed token.
// The failure is a single invalid-credentials error either way; it never
// reveals whether the username exists.
func (s *Service) Login(ctx context.Context, username, password string) (*User, string, error) {
	invalid := kerr.New(kerr.CodeInvalidCredentials, "Invalid credentials")

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if kerr.HasCode(err, kerr.CodeNotFound) {
			return nil, "", invalid
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", invalid
	}

	token, err := s.signToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
