package store

import (
	"context"
	"database/sql"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIKey is a row of the _api_keys table.
type APIKey struct {
	ID         string
	Name       string
	SecretHash string
	Roles      []string
}

// InsertAPIKey stores a new key. Roles are persisted as a JSON array.
func (s *Store) InsertAPIKey(ctx context.Context, key APIKey) error {
	roles := key.Roles
	if roles == nil {
		roles = []string{}
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return errors.Wrap(err, "encode roles")
	}

	_, err = s.DB.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO _api_keys (id, name, secret_hash, roles) VALUES (%s, %s, %s, %s)",
			s.Dialect.Placeholder(1), s.Dialect.Placeholder(2), s.Dialect.Placeholder(3), s.Dialect.Placeholder(4)),
		key.ID, key.Name, key.SecretHash, string(rolesJSON),
	)
	if err != nil {
		return MapError(s.Dialect, err)
	}
	return nil
}

// GetAPIKey returns the key with the given id or ErrNotFound.
func (s *Store) GetAPIKey(ctx context.Context, id string) (*APIKey, error) {
	var key APIKey
	var roles []byte
	err := s.DB.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, name, secret_hash, roles FROM _api_keys WHERE id = %s", s.Dialect.Placeholder(1)),
		id,
	).Scan(&key.ID, &key.Name, &key.SecretHash, &roles)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get api key %s", id)
	}
	if err := json.Unmarshal(roles, &key.Roles); err != nil {
		return nil, errors.Wrapf(err, "decode roles of api key %s", id)
	}
	return &key, nil
}

// ListAPIKeys returns id, name and created_at of every key. Secrets are
// never listed.
func (s *Store) ListAPIKeys(ctx context.Context) ([]map[string]any, error) {
	rows, err := QueryRows(ctx, s.DB, "SELECT id, name, created_at FROM _api_keys ORDER BY id")
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// DeleteAPIKey removes the key with the given id.
func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	n, err := Exec(ctx, s.DB,
		fmt.Sprintf("DELETE FROM _api_keys WHERE id = %s", s.Dialect.Placeholder(1)),
		id,
	)
	if err != nil {
		return errors.Wrapf(err, "delete api key %s", id)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
