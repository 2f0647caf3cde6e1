package oauthmodel

import (
	"errors"

	"github.com/jrsteele09/go-oauth-facade/oauth2"
)

var (
	ErrMissingGrantType     = errors.New("missing grant_type")
	ErrUnknownGrantType     = errors.New("unknown grant_type")
	ErrMissingParameter     = errors.New("missing required parameter")
	ErrDuplicateParameter   = errors.New("parameter included more than once")
	ErrInvalidParameterType = errors.New("parameter value must be a string")
	ErrInvalidResponseType  = errors.New("unsupported response type")
	ErrMalformedURI         = oauth2.ErrMalformedURI
)
