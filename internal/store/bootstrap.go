package store

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyID is the id of the API key seeded on first start.
const AdminKeyID = "admin"

// Bootstrap creates the system tables if they do not exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, s.Dialect.SystemTablesSQL()); err != nil {
		return errors.Wrap(err, "bootstrap system tables")
	}
	return nil
}

// SeedAdminKey inserts an admin API key with the given secret when the
// _api_keys table is empty. An empty secret disables seeding.
func (s *Store) SeedAdminKey(ctx context.Context, secret string, log *zap.Logger) error {
	if secret == "" {
		return nil
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM _api_keys").Scan(&count); err != nil {
		return errors.Wrap(err, "count api keys")
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin secret")
	}

	if err := s.InsertAPIKey(ctx, APIKey{
		ID:         AdminKeyID,
		Name:       "bootstrap admin",
		SecretHash: string(hash),
		Roles:      []string{"admin"},
	}); err != nil {
		return errors.Wrap(err, "seed admin key")
	}

	log.Warn("seeded admin api key, rotate the secret after first use", zap.String("key_id", AdminKeyID))
	return nil
}
