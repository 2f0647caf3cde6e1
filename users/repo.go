package users

import (
	"context"
	"time"
)

// Repo stores users. Lookups of unknown users return errors.ErrNotFound.
type Repo interface {
	Upsert(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, offset, limit int) (ListResponse, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}
