package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth-facade/users"
)

const userColumns = "id, email, username, password_hash, first_name, last_name, date_joined, last_login, verified, blocked"

var _ users.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return r.db.withContext(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO UPDATE SET
			   email = EXCLUDED.email,
			   username = EXCLUDED.username,
			   password_hash = EXCLUDED.password_hash,
			   first_name = EXCLUDED.first_name,
			   last_name = EXCLUDED.last_name,
			   last_login = EXCLUDED.last_login,
			   verified = EXCLUDED.verified,
			   blocked = EXCLUDED.blocked`,
			user.ID, user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName,
			user.DateJoined, nullTime(user.LastLogin), user.Verified, user.Blocked)
		return err
	})
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.db.withContext(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
		if err != nil {
			return err
		}
		return expectOneRow(res)
	})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getBy(ctx, "id", id)
}

// getBy is only called with fixed column names.
func (r *UserRepo) getBy(ctx context.Context, column, value string) (*users.User, error) {
	var user *users.User
	err := r.db.withContext(ctx, func(tx *sql.Tx) error {
		var err error
		user, err = scanUser(tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value))
		return err
	})
	return user, err
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) (users.ListResponse, error) {
	resp := users.ListResponse{Users: []*users.User{}, Offset: offset, Limit: limit}
	err := r.db.withContext(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&resp.Total); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id LIMIT $1 OFFSET $2", limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return err
			}
			resp.Users = append(resp.Users, user)
		}
		return rows.Err()
	})
	return resp, err
}

func (r *UserRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.withContext(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at, id)
		if err != nil {
			return err
		}
		return expectOneRow(res)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var (
		u         users.User
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.DateJoined, &lastLogin, &u.Verified, &u.Blocked); err != nil {
		return nil, err
	}
	u.LastLogin = lastLogin.Time
	return &u, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
