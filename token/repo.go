package token

import "context"

// Repo persists issued tokens keyed by their value. Get and Delete of an
// unknown value return errors.ErrNotFound.
type Repo interface {
	Save(ctx context.Context, token *StoredToken) error
	Get(ctx context.Context, value string) (*StoredToken, error)
	Delete(ctx context.Context, value string) error
}
