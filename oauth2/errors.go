package oauth2

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of OAuth 2.0 error codes (RFC 6749 §5.2)
// plus an internal error carrying a free-text diagnostic.
type ErrorKind int

const (
	InvalidRequest ErrorKind = iota + 1
	InvalidGrant
	UnsupportedGrantType
	InvalidScope
	InvalidClient
	UnauthorizedClient
	ServerError
	InternalError
)

// ErrorKinds lists every kind in declaration order.
var ErrorKinds = []ErrorKind{
	InvalidRequest, InvalidGrant, UnsupportedGrantType, InvalidScope,
	InvalidClient, UnauthorizedClient, ServerError, InternalError,
}

type errorKindInfo struct {
	code        string
	status      int
	description string
}

var errorKindTable = map[ErrorKind]errorKindInfo{
	InvalidRequest: {
		code:   "invalid_request",
		status: http.StatusBadRequest,
		description: "The request is missing a required parameter, includes an unsupported parameter value, " +
			"repeats a parameter, or is otherwise malformed.",
	},
	InvalidGrant: {
		code:   "invalid_grant",
		status: http.StatusBadRequest,
		description: "The provided authorization grant or refresh token is invalid, expired, revoked, " +
			"or was issued to another client.",
	},
	UnsupportedGrantType: {
		code:        "unsupported_grant_type",
		status:      http.StatusBadRequest,
		description: "The authorization grant type is not supported by the authorization server.",
	},
	InvalidScope: {
		code:        "invalid_scope",
		status:      http.StatusBadRequest,
		description: "The requested scope is invalid, unknown, malformed, or exceeds the scope granted by the resource owner.",
	},
	InvalidClient: {
		code:        "invalid_client",
		status:      http.StatusUnauthorized,
		description: "Client authentication failed.",
	},
	UnauthorizedClient: {
		code:        "unauthorized_client",
		status:      http.StatusForbidden,
		description: "The authenticated client is not authorized to use this authorization grant type.",
	},
	ServerError: {
		code:        "server_error",
		status:      http.StatusInternalServerError,
		description: "The authorization server encountered an unexpected condition that prevented it from fulfilling the request.",
	},
	InternalError: {
		code:        "internal_error",
		status:      http.StatusInternalServerError,
		description: "An internal error occurred.",
	},
}

// Code is the machine-readable error string, e.g. "invalid_grant".
func (k ErrorKind) Code() string {
	if info, ok := errorKindTable[k]; ok {
		return info.code
	}
	return errorKindTable[ServerError].code
}

// StatusCode is the fixed HTTP status for the kind. Unknown kinds map to 500.
func (k ErrorKind) StatusCode() int {
	if info, ok := errorKindTable[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func (k ErrorKind) Description() string {
	if info, ok := errorKindTable[k]; ok {
		return info.description
	}
	return errorKindTable[ServerError].description
}

func (k ErrorKind) String() string {
	return k.Code()
}

// Error is the value handlers return to fail a grant. Compare with
// errors.Is against the Err* sentinels, which match on Kind alone.
type Error struct {
	Kind ErrorKind
	// Message is only surfaced for InternalError.
	Message string
}

var (
	ErrInvalidRequest       = &Error{Kind: InvalidRequest}
	ErrInvalidGrant         = &Error{Kind: InvalidGrant}
	ErrUnsupportedGrantType = &Error{Kind: UnsupportedGrantType}
	ErrInvalidScope         = &Error{Kind: InvalidScope}
	ErrInvalidClient        = &Error{Kind: InvalidClient}
	ErrUnauthorizedClient   = &Error{Kind: UnauthorizedClient}
	ErrServerError          = &Error{Kind: ServerError}
)

// NewInternalError carries msg through to the error_description field.
func NewInternalError(msg string) *Error {
	return &Error{Kind: InternalError, Message: msg}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Description())
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

func (e *Error) Description() string {
	if e.Kind == InternalError && e.Message != "" {
		return e.Message
	}
	return e.Kind.Description()
}

// Redacted replaces an InternalError with ServerError so its message never
// reaches the client. Other kinds are returned as is.
func (e *Error) Redacted() *Error {
	if e.Kind == InternalError {
		return ErrServerError
	}
	return e
}

// Response is the wire body.
func (e *Error) Response() ErrorResponse {
	return ErrorResponse{
		Error:            e.Kind.Code(),
		ErrorDescription: e.Description(),
	}
}

// AsError extracts an *Error from err's chain. Anything else becomes an
// InternalError carrying err's text.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var oauthErr *Error
	if errors.As(err, &oauthErr) {
		return oauthErr
	}
	return NewInternalError(err.Error())
}

// ErrorResponse is the JSON body of every OAuth error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
