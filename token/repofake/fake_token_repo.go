package tokenfakerepo

import (
	"context"
	"slices"
	"sync"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/token"
)

var _ token.Repo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	tokens map[string]*token.StoredToken
	lock   sync.RWMutex
}

func NewFakeTokensRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		tokens: make(map[string]*token.StoredToken),
	}
}

func (tr *FakeTokenRepo) Save(ctx context.Context, t *token.StoredToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tr.lock.Lock()
	defer tr.lock.Unlock()

	stored := *t
	stored.Scopes = slices.Clone(t.Scopes)
	tr.tokens[t.Value] = &stored
	return nil
}

func (tr *FakeTokenRepo) Delete(_ context.Context, value string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tokens[value]; !ok {
		return errors.ErrNotFound
	}
	delete(tr.tokens, value)
	return nil
}

func (tr *FakeTokenRepo) Get(_ context.Context, value string) (*token.StoredToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	t, ok := tr.tokens[value]
	if !ok {
		return nil, errors.ErrNotFound
	}
	copied := *t
	copied.Scopes = slices.Clone(t.Scopes)
	return &copied, nil
}

// Len is the number of stored tokens.
func (tr *FakeTokenRepo) Len() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.tokens)
}
