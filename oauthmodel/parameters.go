package oauthmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
)

// Params is the flat key/value view of a request shared by every wire
// encoding. Empty values are treated as omitted (RFC 6749 §3.1).
type Params map[string]string

// ParamsFromValues converts form or query values, rejecting any parameter
// sent more than once.
func ParamsFromValues(values url.Values) (Params, error) {
	params := make(Params, len(values))
	for key, vals := range values {
		if len(vals) > 1 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParameter, key)
		}
		if len(vals) == 1 && vals[0] != "" {
			params[key] = vals[0]
		}
	}
	return params, nil
}

// ParamsFromJSON decodes a JSON object whose values are strings or null.
func ParamsFromJSON(body []byte) (Params, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode json body: expected an object")
	}
	if dec.More() {
		return nil, fmt.Errorf("decode json body: trailing data")
	}

	params := make(Params, len(raw))
	for key, value := range raw {
		if string(value) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParameterType, key)
		}
		if s != "" {
			params[key] = s
		}
	}
	return params, nil
}

// Get returns the value for key and whether it was present.
func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok && v != ""
}

func (p Params) require(key string) (string, error) {
	v, ok := p.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, key)
	}
	return v, nil
}

func (p Params) optional(key string) *string {
	v, ok := p.Get(key)
	if !ok {
		return nil
	}
	return &v
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
