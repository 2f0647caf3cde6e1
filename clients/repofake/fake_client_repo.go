package fakeclientrepo

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/jrsteele09/go-oauth-facade/clients"
	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
)

var _ clients.Repo = (*FakeClientRepo)(nil)

type FakeClientRepo struct {
	clients map[oauth2.ClientID]*clients.Client
	lock    sync.RWMutex
}

func NewFakeClientRepo() *FakeClientRepo {
	return &FakeClientRepo{
		clients: make(map[oauth2.ClientID]*clients.Client),
	}
}

func (r *FakeClientRepo) Upsert(_ context.Context, client *clients.Client) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if client.ID == "" {
		client.ID = oauth2.NewRandomClientID()
	}
	r.clients[client.ID] = clone(client)
	return nil
}

func (r *FakeClientRepo) Delete(_ context.Context, id oauth2.ClientID) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.clients[id]; !ok {
		return errors.ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

func (r *FakeClientRepo) Get(_ context.Context, id oauth2.ClientID) (*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	client, ok := r.clients[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return clone(client), nil
}

func (r *FakeClientRepo) List(_ context.Context, offset, limit int) ([]*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*clients.Client, 0, len(r.clients))
	for _, v := range r.clients {
		list = append(list, clone(v))
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	if offset < 0 || offset >= len(list) || limit <= 0 {
		return []*clients.Client{}, nil
	}
	return list[offset:min(offset+limit, len(list))], nil
}

func clone(c *clients.Client) *clients.Client {
	copied := *c
	copied.RedirectURIs = slices.Clone(c.RedirectURIs)
	copied.GrantTypes = slices.Clone(c.GrantTypes)
	copied.Scopes = slices.Clone(c.Scopes)
	return &copied
}
