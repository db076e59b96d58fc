package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"foodfinder/internal/domain"
)

// AuthService is the gateway between the login/signup forms and the
// credential table. Passwords are bcrypt-hashed at this boundary; the
// stored plaintext comparison of the first version is gone for good.
type AuthService struct {
	creds      domain.CredentialRepository
	sessions   domain.SessionStore
	sessionTTL time.Duration
}

func NewAuthService(creds domain.CredentialRepository, sessions domain.SessionStore, ttl time.Duration) *AuthService {
	return &AuthService{creds: creds, sessions: sessions, sessionTTL: ttl}
}

// Login verifies the credential and opens a session. A missing row and a
// hash mismatch are indistinguishable to the caller; a backend failure is
// a distinct, transient error.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	c, err := s.creds.FindCredential(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("credential lookup: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	sess := domain.Session{
		Token:     uuid.NewString(),
		Username:  c.Username,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, sess, int(s.sessionTTL.Seconds())); err != nil {
		return domain.Session{}, fmt.Errorf("session create: %w", err)
	}
	return sess, nil
}

// Signup checks its three failure branches in fixed order: backend error,
// duplicate email, password mismatch. Only then is the credential hashed
// and inserted.
func (s *AuthService) Signup(ctx context.Context, username, email, password, confirm string) error {
	exists, err := s.creds.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("email check: %w", err)
	}
	if exists {
		return domain.ErrEmailTaken
	}
	if password != confirm {
		return domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.creds.InsertCredential(ctx, domain.Credential{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Del(ctx, token)
}
