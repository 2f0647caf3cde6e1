package server

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauthmodel"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// Encoding names the wire encoding a token request was decoded from.
type Encoding string

const (
	EncodingForm  Encoding = "form"
	EncodingJSON  Encoding = "json"
	EncodingQuery Encoding = "query"
)

var errNoValidEncoding = errors.New("no encoding produced a valid token request")

type requestKey struct{}

// RequestFromContext returns the inbound request the token or authorization
// endpoint was called with. Grant handlers use it for headers or the peer address.
func RequestFromContext(ctx context.Context) (*http.Request, bool) {
	r, ok := ctx.Value(requestKey{}).(*http.Request)
	return r, ok
}

func withRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

type decodeAttempt struct {
	encoding Encoding
	params   func() (oauthmodel.Params, error)
}

// decodeGrantRequest tries the form body, then the JSON body, then the query
// string. The first attempt that yields a valid GrantRequest wins. A form
// body is only considered with a form or missing Content-Type, a JSON body
// only with a JSON or missing Content-Type. The body is restored on r so it
// can be read again downstream.
func decodeGrantRequest(r *http.Request, maxBytes int64) (oauthmodel.GrantRequest, Encoding, error) {
	body, err := readBody(r, maxBytes)
	if err != nil {
		return nil, "", err
	}
	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err = mime.ParseMediaType(ct); err != nil {
			mediaType = "invalid"
		}
	}

	var attempts []decodeAttempt
	if len(body) > 0 && (mediaType == "" || mediaType == contentTypeForm) {
		attempts = append(attempts, decodeAttempt{EncodingForm, func() (oauthmodel.Params, error) {
			values, err := url.ParseQuery(string(body))
			if err != nil {
				return nil, err
			}
			return oauthmodel.ParamsFromValues(values)
		}})
	}
	if len(body) > 0 && (mediaType == "" || isJSONMediaType(mediaType)) {
		attempts = append(attempts, decodeAttempt{EncodingJSON, func() (oauthmodel.Params, error) {
			return oauthmodel.ParamsFromJSON(body)
		}})
	}
	attempts = append(attempts, decodeAttempt{EncodingQuery, func() (oauthmodel.Params, error) {
		values, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			return nil, err
		}
		return oauthmodel.ParamsFromValues(values)
	}})

	clientID, clientSecret, hasBasic := r.BasicAuth()
	var lastErr error
	for _, attempt := range attempts {
		params, err := attempt.params()
		if err != nil {
			lastErr = errors.Wrapf(err, "%s", attempt.encoding)
			continue
		}
		if hasBasic {
			mergeBasicAuth(params, clientID, clientSecret)
		}
		req, err := oauthmodel.ParseGrantRequest(params)
		if err != nil {
			lastErr = errors.Wrapf(err, "%s", attempt.encoding)
			continue
		}
		return req, attempt.encoding, nil
	}
	if lastErr == nil {
		lastErr = errNoValidEncoding
	}
	return nil, "", lastErr
}

// mergeBasicAuth fills client credentials from HTTP Basic authentication
// (RFC 6749 §2.3.1) where the request body did not carry them.
func mergeBasicAuth(params oauthmodel.Params, clientID, clientSecret string) {
	if id, err := url.QueryUnescape(clientID); err == nil {
		clientID = id
	}
	if secret, err := url.QueryUnescape(clientSecret); err == nil {
		clientSecret = secret
	}
	if _, ok := params.Get(oauthmodel.ParamClientID); !ok && clientID != "" {
		params[oauthmodel.ParamClientID] = clientID
	}
	if _, ok := params.Get(oauthmodel.ParamClientSecret); !ok && clientSecret != "" {
		params[oauthmodel.ParamClientSecret] = clientSecret
	}
}

func readBody(r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	_ = r.Body.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "read body")
	}
	if int64(len(body)) > maxBytes {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "body exceeds %d bytes", maxBytes)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}
