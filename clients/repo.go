package clients

import (
	"context"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
)

// Repo stores registered clients. Unknown ids return errors.ErrNotFound.
type Repo interface {
	Upsert(ctx context.Context, client *Client) error
	Delete(ctx context.Context, id oauth2.ClientID) error
	Get(ctx context.Context, id oauth2.ClientID) (*Client, error)
	List(ctx context.Context, offset, limit int) ([]*Client, error)
}
