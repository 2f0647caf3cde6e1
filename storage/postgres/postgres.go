// Package postgres provides PostgreSQL repositories for users, clients and
// tokens. Every call runs in a transaction whose row level security
// settings are derived from the usercontext.UserContext carried by ctx.
//
// The schema is expected to define set_user_context(uuid),
// set_system_context(bool) and clear_user_context().
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/usercontext"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const uniqueViolation = "23505"

// DB wraps a connection pool shared by the repositories.
type DB struct {
	db *sql.DB
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return New(db), nil
}

func New(db *sql.DB) *DB {
	return &DB{db: db}
}

func (d *DB) Close() error {
	return d.db.Close()
}

// CheckHealth pings the database.
func (d *DB) CheckHealth(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}

// withContext runs fn in a transaction scoped to the caller's user context.
// The context is cleared again before commit, whatever fn returned.
func (d *DB) withContext(ctx context.Context, fn func(tx *sql.Tx) error) error {
	uc := usercontext.FromContext(ctx)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError(err)
	}

	if err := applyContext(ctx, tx, uc); err != nil {
		_ = tx.Rollback()
		return translateError(err)
	}

	fnErr := fn(tx)

	if _, err := tx.ExecContext(ctx, "SELECT clear_user_context()"); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("clear_user_context failed")
	}
	if _, err := tx.ExecContext(ctx, "SELECT set_system_context(TRUE)"); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("set_system_context failed")
	}

	if fnErr != nil {
		_ = tx.Rollback()
		return translateError(fnErr)
	}
	if err := tx.Commit(); err != nil {
		return translateError(err)
	}
	return nil
}

func applyContext(ctx context.Context, tx *sql.Tx, uc usercontext.UserContext) error {
	switch uc.Kind {
	case usercontext.Authenticated:
		if _, err := tx.ExecContext(ctx, "SELECT set_user_context($1)", uc.UserID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "SELECT set_system_context(FALSE)")
		return err
	case usercontext.System:
		_, err := tx.ExecContext(ctx, "SELECT set_system_context(TRUE)")
		return err
	default:
		if _, err := tx.ExecContext(ctx, "SELECT clear_user_context()"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "SELECT set_system_context(FALSE)")
		return err
	}
}

// asSystem runs store calls that must see every row, e.g. token lookups
// made before the caller is known.
func asSystem(ctx context.Context) context.Context {
	return usercontext.WithUserContext(ctx, usercontext.SystemContext)
}

// translateError maps driver errors onto the package sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.Wrapf(errors.ErrAlreadyExists, "%s", pqErr.Constraint)
	}
	return err
}

// expectOneRow turns a zero row update or delete into errors.ErrNotFound.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}
