package coderepo

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jrsteele09/go-oauth-facade/auth"
	"github.com/jrsteele09/go-oauth-facade/internal/errors"
)

var _ auth.CodeRepo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of auth.CodeRepo
type InMemoryRepo struct {
	mu    sync.Mutex
	codes map[string]*auth.AuthCode
}

// NewInMemoryRepo creates a new in-memory authorization code repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		codes: make(map[string]*auth.AuthCode),
	}
}

// Save stores a copy of code.
func (r *InMemoryRepo) Save(_ context.Context, code *auth.AuthCode) error {
	if code == nil || code.Code == "" {
		return errors.New("code cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *code
	copied.Scopes = slices.Clone(code.Scopes)
	r.codes[code.Code] = &copied
	return nil
}

// Get returns a copy of code and leaves it in place.
func (r *InMemoryRepo) Get(_ context.Context, code string) (*auth.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.codes[code]
	if !ok {
		return nil, errors.ErrNotFound
	}
	copied := *stored
	copied.Scopes = slices.Clone(stored.Scopes)
	return &copied, nil
}

// Take returns and deletes code.
func (r *InMemoryRepo) Take(_ context.Context, code string) (*auth.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.codes[code]
	if !ok {
		return nil, errors.ErrNotFound
	}
	delete(r.codes, code)
	return stored, nil
}

// Purge drops codes created before cutoff and returns how many were removed.
func (r *InMemoryRepo) Purge(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k, v := range r.codes {
		if v.CreatedAt.Before(cutoff) {
			delete(r.codes, k)
			n++
		}
	}
	return n
}
