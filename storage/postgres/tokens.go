package postgres

import (
	"context"
	"database/sql"

	"github.com/jrsteele09/go-oauth-facade/internal/utils"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/token"
	"github.com/lib/pq"
)

var _ token.Repo = (*TokenRepo)(nil)

// TokenRepo always runs as the system context: tokens are resolved before
// the caller's identity is known.
type TokenRepo struct {
	db *DB
}

func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

func (r *TokenRepo) Save(ctx context.Context, t *token.StoredToken) error {
	ctx = asSystem(ctx)
	return r.db.withContext(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO oauth_token (token, token_type, pair_token, user_ext_id, client_id, scopes, expires_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.Value, t.Kind, nullString(t.Pair), nullString(t.UserID), nullString(string(t.ClientID)),
			pq.Array(utils.ToStrings(t.Scopes)), t.ExpiresAt, t.IssuedAt)
		return err
	})
}

func (r *TokenRepo) Get(ctx context.Context, value string) (*token.StoredToken, error) {
	ctx = asSystem(ctx)
	var t *token.StoredToken
	err := r.db.withContext(ctx, func(tx *sql.Tx) error {
		var (
			stored                 token.StoredToken
			pair, userID, clientID sql.NullString
			scopes                 pq.StringArray
		)
		err := tx.QueryRowContext(ctx,
			`SELECT token, token_type, pair_token, user_ext_id, client_id, scopes, expires_at, created_at
			 FROM oauth_token WHERE token = $1`, value).
			Scan(&stored.Value, &stored.Kind, &pair, &userID, &clientID, &scopes, &stored.ExpiresAt, &stored.IssuedAt)
		if err != nil {
			return err
		}
		stored.Pair = pair.String
		stored.UserID = userID.String
		stored.ClientID = oauth2.ClientID(clientID.String)
		stored.Scopes = utils.FromStrings[oauth2.Scope](scopes)
		t = &stored
		return nil
	})
	return t, err
}

func (r *TokenRepo) Delete(ctx context.Context, value string) error {
	ctx = asSystem(ctx)
	return r.db.withContext(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM oauth_token WHERE token = $1", value)
		if err != nil {
			return err
		}
		return expectOneRow(res)
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
