package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// EntityDefinition is a row of the _entities table. Definition holds the
// raw JSON document; decoding and validation live in the metadata package.
type EntityDefinition struct {
	Name       string
	Definition []byte
}

// ListEntityDefinitions returns every stored definition ordered by name.
func (s *Store) ListEntityDefinitions(ctx context.Context) ([]EntityDefinition, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT name, definition FROM _entities ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "query entities")
	}
	defer rows.Close()

	var defs []EntityDefinition
	for rows.Next() {
		var def EntityDefinition
		if err := rows.Scan(&def.Name, &def.Definition); err != nil {
			return nil, errors.Wrap(err, "scan entity")
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows iteration")
	}
	return defs, nil
}

// GetEntityDefinition returns the stored definition for name or ErrNotFound.
func (s *Store) GetEntityDefinition(ctx context.Context, name string) (*EntityDefinition, error) {
	def := EntityDefinition{}
	err := s.DB.QueryRowContext(ctx,
		fmt.Sprintf("SELECT name, definition FROM _entities WHERE name = %s", s.Dialect.Placeholder(1)),
		name,
	).Scan(&def.Name, &def.Definition)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get entity %s", name)
	}
	return &def, nil
}

// InsertEntityDefinition stores a new definition. A duplicate name yields
// ErrUniqueViolation.
func (s *Store) InsertEntityDefinition(ctx context.Context, def EntityDefinition) error {
	_, err := s.DB.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO _entities (name, definition) VALUES (%s, %s)",
			s.Dialect.Placeholder(1), s.Dialect.Placeholder(2)),
		def.Name, string(def.Definition),
	)
	if err != nil {
		return MapError(s.Dialect, err)
	}
	return nil
}

// UpdateEntityDefinition replaces the stored definition for def.Name.
func (s *Store) UpdateEntityDefinition(ctx context.Context, def EntityDefinition) error {
	pb := s.Dialect.NewParamBuilder()
	sets := []string{
		"definition = " + pb.Add(string(def.Definition)),
		"updated_at = " + s.Dialect.NowExpr(),
	}
	query := fmt.Sprintf("UPDATE _entities SET %s WHERE name = %s", strings.Join(sets, ", "), pb.Add(def.Name))

	n, err := Exec(ctx, s.DB, query, pb.Params()...)
	if err != nil {
		return errors.Wrapf(err, "update entity %s", def.Name)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEntityDefinition removes the definition for name.
func (s *Store) DeleteEntityDefinition(ctx context.Context, name string) error {
	n, err := Exec(ctx, s.DB,
		fmt.Sprintf("DELETE FROM _entities WHERE name = %s", s.Dialect.Placeholder(1)),
		name,
	)
	if err != nil {
		return errors.Wrapf(err, "delete entity %s", name)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
