package auth

import (
	"context"
	"strings"
	"time"

	"creativelab/internal/domain"
)

// Session is the result of a successful login.
type Session struct {
	Token     string
	User      domain.User
	ExpiresAt time.Time
}

// Authenticator is the login gate. The credential store behind it is
// injected, so a real identity provider can replace the seeded store without
// touching the pipeline or handlers.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Session, error)
}

// CredentialStore verifies a credential pair and returns the matching user.
// Implementations return domain.ErrUnauthorized for unknown accounts and bad
// passwords alike.
type CredentialStore interface {
	Verify(ctx context.Context, email, password string) (*domain.User, error)
}

// Service authenticates against a credential store and issues signed session
// tokens.
type Service struct {
	store  CredentialStore
	tokens *TokenIssuer
	ttl    time.Duration
}

// NewService wires an authenticator over the given store and token issuer.
func NewService(store CredentialStore, tokens *TokenIssuer, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{store: store, tokens: tokens, ttl: ttl}
}

// Login verifies credentials and mints a session token for the account.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.ttl)
	token, err := s.tokens.Sign(user.Email, expiresAt)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: *user, ExpiresAt: expiresAt}, nil
}

var _ Authenticator = (*Service)(nil)
