package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-oauth-facade/internal/metrics"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/oauthmodel"
	"github.com/rs/zerolog"
)

const (
	contentTypeJSONUTF8 = "application/json; charset=utf-8"

	// grantTypeUndecoded labels metrics for requests that never reached the dispatcher.
	grantTypeUndecoded = "undecoded"
)

// Token decodes a grant request from the form body, JSON body or query
// string and dispatches it.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := zerolog.Ctx(r.Context())

		req, encoding, err := decodeGrantRequest(r, s.config.GetMaxRequestBodyBytes())
		if err != nil {
			logger.Debug().Err(err).Msg("token request rejected before dispatch")
			s.metrics.ObserveGrant(grantTypeUndecoded, oauth2.InvalidRequest.Code(), time.Since(start))
			s.writeOAuthError(w, r, oauth2.ErrInvalidRequest)
			return
		}
		grantType := req.GrantType()
		logger.Debug().Stringer("grant_type", grantType).Str("encoding", string(encoding)).Msg("token request decoded")

		ctx := withRequest(r.Context(), r)
		resp, err := s.dispatcher.Dispatch(ctx, req)
		if err == nil && resp == nil {
			err = oauth2.NewInternalError("grant handler returned no token")
		}
		if err != nil {
			oauthErr := oauth2.AsError(err)
			s.metrics.ObserveGrant(grantType.String(), oauthErr.Kind.Code(), time.Since(start))
			s.writeOAuthError(w, r, oauthErr)
			return
		}

		s.metrics.ObserveGrant(grantType.String(), metrics.OutcomeOK, time.Since(start))
		setNoStore(w)
		writeJSON(w, http.StatusOK, resp)
	}
}

// Authorize serves the authorization endpoint. Parameters are read from
// the query string only, whatever the method.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := oauthmodel.ParamsFromValues(r.URL.Query())
		var req *oauthmodel.AuthorizationRequest
		if err == nil {
			req, err = oauthmodel.ParseAuthorizationRequest(params)
		}
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("authorization request rejected")
			s.metrics.ObserveAuthorization(oauth2.InvalidRequest.Code())
			s.writeOAuthError(w, r, oauth2.ErrInvalidRequest)
			return
		}

		handler, err := s.dispatcher.Authorize(withRequest(r.Context(), r), req)
		if err == nil && handler == nil {
			err = oauth2.NewInternalError("authorization handler returned no response")
		}
		if err != nil {
			oauthErr := oauth2.AsError(err)
			s.metrics.ObserveAuthorization(oauthErr.Kind.Code())
			s.writeOAuthError(w, r, oauthErr)
			return
		}
		s.metrics.ObserveAuthorization(metrics.OutcomeOK)
		handler.ServeHTTP(w, r)
	}
}

// ServerMetadata is the authorization server metadata document (RFC 8414).
type ServerMetadata struct {
	Issuer                            string                `json:"issuer"`
	TokenEndpoint                     string                `json:"token_endpoint"`
	AuthorizationEndpoint             string                `json:"authorization_endpoint,omitempty"`
	GrantTypesSupported               []oauth2.GrantType    `json:"grant_types_supported"`
	ResponseTypesSupported            []oauth2.ResponseType `json:"response_types_supported"`
	TokenEndpointAuthMethodsSupported []string              `json:"token_endpoint_auth_methods_supported"`
}

// WellKnownServerMetadata advertises the endpoints and the grant types
// that currently have a handler.
func (s *Server) WellKnownServerMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL := s.config.GetBaseURL()
		if baseURL == "" {
			baseURL = getScheme(r) + "://" + r.Host
		}

		resp := ServerMetadata{
			Issuer:                            baseURL,
			TokenEndpoint:                     baseURL + RouteOAuthToken,
			GrantTypesSupported:               s.dispatcher.Supported(),
			ResponseTypesSupported:            []oauth2.ResponseType{},
			TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post", "none"},
		}
		if s.dispatcher.AuthorizationEnabled() {
			resp.AuthorizationEndpoint = baseURL + RouteOAuthAuthorize
			resp.ResponseTypesSupported = []oauth2.ResponseType{oauth2.CodeResponseType}
		}

		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, resp)
	}
}

// writeOAuthError writes the RFC 6749 §5.2 error body at the status fixed
// for the error kind. Internal error text is replaced when redaction is on.
func (s *Server) writeOAuthError(w http.ResponseWriter, r *http.Request, oauthErr *oauth2.Error) {
	zerolog.Ctx(r.Context()).Error().
		Str("error", oauthErr.Kind.Code()).
		Str("error_description", oauthErr.Description()).
		Msg("oauth request failed")

	if s.config.GetRedactInternalErrors() {
		oauthErr = oauthErr.Redacted()
	}
	setNoStore(w)
	writeJSON(w, oauthErr.StatusCode(), oauthErr.Response())
}

func setNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSONUTF8)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
