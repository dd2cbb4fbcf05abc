package config

import "time"

type FederationConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetAzureClientID() string
	GetAzureClientSecret() string
	GetAzureTenantID() string
	GetAuthFlowTTL() time.Duration
}

type Federation struct {
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	AzureClientID      string        `env:"AZURE_CLIENT_ID"`
	AzureClientSecret  string        `env:"AZURE_CLIENT_SECRET"`
	AzureTenantID      string        `env:"AZURE_TENANT_ID"   envDefault:"common"`
	AuthFlowTTL        time.Duration `env:"AUTH_FLOW_TTL"     envDefault:"10m"`
}

var _ FederationConfig = Federation{}

func (f Federation) GetGoogleClientID() string     { return f.GoogleClientID }
func (f Federation) GetGoogleClientSecret() string { return f.GoogleClientSecret }
func (f Federation) GetAzureClientID() string      { return f.AzureClientID }
func (f Federation) GetAzureClientSecret() string  { return f.AzureClientSecret }
func (f Federation) GetAzureTenantID() string      { return f.AzureTenantID }
func (f Federation) GetAuthFlowTTL() time.Duration { return f.AuthFlowTTL }
