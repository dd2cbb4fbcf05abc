package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	Port          string `env:"PORT"            envDefault:"8080"`
	AppName       string `env:"APP_NAME"        envDefault:"Go Identity Server"`
	Environment   string `env:"ENV"             envDefault:"DEV"`
	LogLevel      string `env:"LOG_LEVEL"       envDefault:"info"`
	BaseURL       string `env:"BASE_URL"        envDefault:"http://localhost:8080"`
	FrontendURL   string `env:"FRONTEND_URL"    envDefault:"http://localhost:5173"`
	SeedDemoUsers bool   `env:"SEED_DEMO_USERS" envDefault:"false"`
}

var (
	_ EnvConfig  = EnvVars{}
	_ SeedConfig = EnvVars{}
)

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
		return "DEV"
	}
	return strings.ToUpper(e.Environment)
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.LogLevel)
}

// GetBaseURL returns the public base URL of this service (e.g., "https://id.example.com").
// Provider redirect URIs are built from it.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.BaseURL, "/")
}

// GetFrontendURL returns the client application that receives federated login results
func (e EnvVars) GetFrontendURL() string {
	return strings.TrimRight(e.FrontendURL, "/")
}

func (e EnvVars) GetSeedDemoUsers() bool {
	return e.SeedDemoUsers
}
