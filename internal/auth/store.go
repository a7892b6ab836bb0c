package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"creativelab/internal/domain"
	"creativelab/internal/infra"
	"creativelab/internal/sqlinline"
)

// StaticStore verifies credentials against an in-memory map of bcrypt hashes
// seeded from configuration. It replaces the hardcoded credential map the
// frontend used to ship with, without requiring a database in development.
type StaticStore struct {
	hashes map[string]string
}

// NewStaticStore builds a store from a map of email to bcrypt hash.
func NewStaticStore(hashes map[string]string) *StaticStore {
	normalized := make(map[string]string, len(hashes))
	for email, hash := range hashes {
		normalized[strings.ToLower(strings.TrimSpace(email))] = hash
	}
	return &StaticStore{hashes: normalized}
}

// NewStaticStoreFromJSON parses a JSON object of email to bcrypt hash, the
// format used by the STATIC_CREDENTIALS_JSON environment variable.
func NewStaticStoreFromJSON(raw string) (*StaticStore, error) {
	var hashes map[string]string
	if err := json.Unmarshal([]byte(raw), &hashes); err != nil {
		return nil, fmt.Errorf("auth: parse static credentials: %w", err)
	}
	return NewStaticStore(hashes), nil
}

// Accounts returns the normalized emails and bcrypt hashes the store was
// seeded with. Startup mirrors these into the employees table so history
// rows written for static accounts satisfy the schema's references.
func (s *StaticStore) Accounts() map[string]string {
	out := make(map[string]string, len(s.hashes))
	for email, hash := range s.hashes {
		out[email] = hash
	}
	return out
}

func (s *StaticStore) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, ok := s.hashes[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return &domain.User{Email: strings.ToLower(strings.TrimSpace(email))}, nil
}

// PostgresStore verifies credentials against the employees table.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

func (s *PostgresStore) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectEmployeeByEmail, strings.ToLower(strings.TrimSpace(email)))
	var user domain.User
	var hash string
	var createdAt time.Time
	if err := row.Scan(&user.Email, &user.Name, &hash, &createdAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	user.CreatedAt = createdAt
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return &user, nil
}

// HashPassword produces a bcrypt hash suitable for seeding either store.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var (
	_ CredentialStore = (*StaticStore)(nil)
	_ CredentialStore = (*PostgresStore)(nil)
)
