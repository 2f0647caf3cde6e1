package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-oauth-facade/clients"
	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/usercontext"
	"github.com/jrsteele09/go-oauth-facade/users"
	"github.com/rs/zerolog"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// APIError is the body of every failed API call.
type APIError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// ClientRegistrationResponse shows the generated secret once.
type ClientRegistrationResponse struct {
	*clients.Client
	ClientSecret string `json:"client_secret,omitempty"`
}

// ClientListResponse is one page of clients.
type ClientListResponse struct {
	Clients []*clients.Client `json:"clients"`
	Offset  int               `json:"offset"`
	Limit   int               `json:"limit"`
}

func (s *Server) CreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newUser users.NewUser
		if !s.decodeAPIBody(w, r, &newUser) {
			return
		}
		user, err := s.users.Register(r.Context(), newUser)
		if err != nil {
			s.writeAPIFailure(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Info().Str("new_user_id", user.ID).Msg("user registered")
		writeJSON(w, http.StatusCreated, user)
	}
}

func (s *Server) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := pagination(r)
		if err != nil {
			writeAPIError(w, err.Error(), http.StatusBadRequest)
			return
		}
		page, err := s.repos.Users.List(r.Context(), offset, limit)
		if err != nil {
			s.writeAPIFailure(w, r, err)
			return
		}
		if page.Users == nil {
			page.Users = []*users.User{}
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.repos.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.writeAPIFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) DeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.repos.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			s.writeAPIFailure(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CreateClient registers a client owned by the caller.
func (s *Server) CreateClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg clients.Registration
		if !s.decodeAPIBody(w, r, &reg) {
			return
		}
		owner := usercontext.FromContext(r.Context())
		client, secret, err := s.clients.Register(r.Context(), reg, owner.UserID)
		if err != nil {
			s.writeAPIFailure(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Info().Stringer("client_id", client.ID).Msg("client registered")
		setNoStore(w)
		writeJSON(w, http.StatusCreated, ClientRegistrationResponse{Client: client, ClientSecret: secret.Secret()})
	}
}

func (s *Server) ListClients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := pagination(r)
		if err != nil {
			writeAPIError(w, err.Error(), http.StatusBadRequest)
			return
		}
		list, err := s.clients.List(r.Context(), offset, limit)
		if err != nil {
			s.writeAPIFailure(w, r, err)
			return
		}
		if list == nil {
			list = []*clients.Client{}
		}
		writeJSON(w, http.StatusOK, ClientListResponse{Clients: list, Offset: offset, Limit: limit})
	}
}

func (s *Server) GetClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := s.clients.Get(r.Context(), oauth2.ClientID(chi.URLParam(r, "id")))
		if err != nil {
			s.writeAPIFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func (s *Server) DeleteClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.repos.Clients.Delete(r.Context(), oauth2.ClientID(chi.URLParam(r, "id"))); err != nil {
			s.writeAPIFailure(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) decodeAPIBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.GetMaxRequestBodyBytes())
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeAPIError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeAPIFailure maps domain errors onto API status codes.
func (s *Server) writeAPIFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		writeAPIError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errors.ErrNotFound):
		writeAPIError(w, "not found", http.StatusNotFound)
	case errors.Is(err, errors.ErrAlreadyExists):
		writeAPIError(w, err.Error(), http.StatusConflict)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("api request failed")
		msg := err.Error()
		if s.config.GetRedactInternalErrors() {
			msg = http.StatusText(http.StatusInternalServerError)
		}
		writeAPIError(w, msg, http.StatusInternalServerError)
	}
}

func writeAPIError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, APIError{Error: message, Code: status})
}

func pagination(r *http.Request) (offset, limit int, err error) {
	limit = defaultPageLimit
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit, nil
}
