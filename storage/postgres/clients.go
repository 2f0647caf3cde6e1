package postgres

import (
	"context"
	"database/sql"

	"github.com/jrsteele09/go-oauth-facade/clients"
	"github.com/jrsteele09/go-oauth-facade/internal/utils"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/lib/pq"
)

const clientColumns = "client_id, client_type, description, secret_hash, redirect_uris, grant_types, scopes, owner_id, created_at"

var _ clients.Repo = (*ClientRepo)(nil)

type ClientRepo struct {
	db *DB
}

func NewClientRepo(db *DB) *ClientRepo {
	return &ClientRepo{db: db}
}

func (r *ClientRepo) Upsert(ctx context.Context, c *clients.Client) error {
	if c.ID == "" {
		c.ID = oauth2.NewRandomClientID()
	}
	return r.db.withContext(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO oauth_client (`+clientColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (client_id) DO UPDATE SET
			   client_type = EXCLUDED.client_type,
			   description = EXCLUDED.description,
			   secret_hash = EXCLUDED.secret_hash,
			   redirect_uris = EXCLUDED.redirect_uris,
			   grant_types = EXCLUDED.grant_types,
			   scopes = EXCLUDED.scopes,
			   owner_id = EXCLUDED.owner_id`,
			c.ID, c.Type, c.Description, c.SecretHash,
			pq.Array(c.RedirectURIs), pq.Array(utils.ToStrings(c.GrantTypes)), pq.Array(utils.ToStrings(c.Scopes)),
			c.OwnerID, c.CreatedAt)
		return err
	})
}

func (r *ClientRepo) Delete(ctx context.Context, id oauth2.ClientID) error {
	return r.db.withContext(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM oauth_client WHERE client_id = $1", id)
		if err != nil {
			return err
		}
		return expectOneRow(res)
	})
}

func (r *ClientRepo) Get(ctx context.Context, id oauth2.ClientID) (*clients.Client, error) {
	var client *clients.Client
	err := r.db.withContext(ctx, func(tx *sql.Tx) error {
		var err error
		client, err = scanClient(tx.QueryRowContext(ctx, "SELECT "+clientColumns+" FROM oauth_client WHERE client_id = $1", id))
		return err
	})
	return client, err
}

func (r *ClientRepo) List(ctx context.Context, offset, limit int) ([]*clients.Client, error) {
	list := []*clients.Client{}
	err := r.db.withContext(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT "+clientColumns+" FROM oauth_client ORDER BY client_id LIMIT $1 OFFSET $2", limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			c, err := scanClient(rows)
			if err != nil {
				return err
			}
			list = append(list, c)
		}
		return rows.Err()
	})
	return list, err
}

func scanClient(row rowScanner) (*clients.Client, error) {
	var (
		c                                clients.Client
		redirectURIs, grantTypes, scopes pq.StringArray
	)
	if err := row.Scan(&c.ID, &c.Type, &c.Description, &c.SecretHash,
		&redirectURIs, &grantTypes, &scopes, &c.OwnerID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.RedirectURIs = []string(redirectURIs)
	c.GrantTypes = utils.FromStrings[oauth2.GrantType](grantTypes)
	c.Scopes = utils.FromStrings[oauth2.Scope](scopes)
	return &c, nil
}
