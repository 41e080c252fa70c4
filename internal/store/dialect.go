package store

import (
	"context"
	"database/sql"
	"fmt"

	"fieldaccess/internal/config"
)

// Dialect hides the differences between the supported databases: driver
// registration, placeholders, DDL and error codes.
type Dialect interface {
	// Name is "postgres" or "sqlite".
	Name() string

	// DriverName is the database/sql driver registered for the dialect.
	DriverName() string

	// Configure tunes a freshly opened pool for the dialect.
	Configure(ctx context.Context, db *sql.DB, cfg config.DatabaseConfig) error

	// Placeholder returns the bind parameter for a 1-based index.
	Placeholder(index int) string

	NewParamBuilder() ParamBuilder

	// NowExpr is the SQL for the current timestamp.
	NowExpr() string

	// SystemTablesSQL is the idempotent DDL for _entities and _api_keys.
	SystemTablesSQL() string

	TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error)

	// MapError translates driver errors into ErrUniqueViolation where it can.
	MapError(err error) error
}

// ParamBuilder collects bind values and hands out their placeholders.
type ParamBuilder interface {
	Add(v any) string
	Params() []any
}

// NewDialect returns the dialect for a configured driver name. Anything other
// than "sqlite" is postgres.
func NewDialect(driver string) Dialect {
	if driver == "sqlite" {
		return &SQLiteDialect{}
	}
	return &PostgresDialect{}
}

// MapError is a nil-safe Dialect.MapError.
func MapError(dialect Dialect, err error) error {
	if err == nil {
		return nil
	}
	return dialect.MapError(err)
}

type paramBuilder struct {
	format string
	params []any
}

func (p *paramBuilder) Add(v any) string {
	p.params = append(p.params, v)
	return fmt.Sprintf(p.format, len(p.params))
}

func (p *paramBuilder) Params() []any { return p.params }
