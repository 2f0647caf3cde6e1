package config

import (
	"fmt"
	"strings"
)

const (
	EnvDevelopment = "DEV"
	EnvProduction  = "PROD"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
	GetSystemAdminUser() string
	GetSystemAdminPassword() string
	GetBootstrapClientID() string
	GetBootstrapClientSecret() string
}

type EnvVars struct {
	Port                  string `envconfig:"PORT" default:"8080"`
	AppName               string `envconfig:"APP_NAME" default:"OAuth Facade"`
	Environment           string `envconfig:"ENV" default:"DEV"`
	LogLevel              string `envconfig:"LOG_LEVEL" default:"info"`
	BaseURL               string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	SystemAdminUser       string `envconfig:"SYSTEM_ADMIN_USER" default:"admin"`
	SystemAdminPassword   string `envconfig:"SYSTEM_ADMIN_PASSWORD"`
	BootstrapClientID     string `envconfig:"BOOTSTRAP_CLIENT_ID"`
	BootstrapClientSecret string `envconfig:"BOOTSTRAP_CLIENT_SECRET"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8080"
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Environment == "" {
		return EnvDevelopment
	}
	return strings.ToUpper(e.Environment)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetBaseURL returns the base URL for the OAuth server (e.g., "https://auth.example.com")
// This is used for the issuer and the endpoint URLs in the server metadata document.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(e.BaseURL, "/")
}

func (e EnvVars) GetSystemAdminUser() string {
	return e.SystemAdminUser
}

// GetSystemAdminPassword is empty unless set, in which case a password is generated at startup.
func (e EnvVars) GetSystemAdminPassword() string {
	return e.SystemAdminPassword
}

func (e EnvVars) GetBootstrapClientID() string {
	return e.BootstrapClientID
}

func (e EnvVars) GetBootstrapClientSecret() string {
	return e.BootstrapClientSecret
}
