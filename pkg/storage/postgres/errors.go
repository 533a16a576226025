package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrFailedToOpenDBConnection = errors.New("postgres: failed to open db connection")
	ErrFailedToParseDBConfig    = errors.New("postgres: failed to parse db config")
	ErrHealthcheckFailed        = errors.New("postgres: healthcheck failed, connection is not available")
	ErrFailedToApplyMigrations  = errors.New("postgres: failed to apply migrations")
	ErrQuery                    = errors.New("postgres: query failed")
)

// IsNotFoundError reports whether err is pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports a unique constraint violation (SQLSTATE 23505).
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
