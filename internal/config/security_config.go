package config

type SecurityConfig interface {
	GetMaxRequestBodyBytes() int64
	GetRedactInternalErrors() bool
}

type Security struct {
	MaxRequestBodyBytes  int64 `envconfig:"MAX_REQUEST_BODY_BYTES" default:"1048576"`
	RedactInternalErrors bool  `envconfig:"REDACT_INTERNAL_ERRORS" default:"false"`
}

var _ SecurityConfig = Security{}

func (s Security) GetMaxRequestBodyBytes() int64 {
	if s.MaxRequestBodyBytes <= 0 {
		return 1 << 20
	}
	return s.MaxRequestBodyBytes
}

// GetRedactInternalErrors replaces internal_error descriptions with the generic server_error text.
func (s Security) GetRedactInternalErrors() bool {
	return s.RedactInternalErrors
}
