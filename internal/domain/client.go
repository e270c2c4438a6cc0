package domain

import (
	"slices"
	"time"
)

// GrantType identifies the OAuth2 flow a client uses to obtain tokens.
type GrantType string

const (
	GrantTypeResourceOwnerPassword GrantType = "password"
	GrantTypeClientCredentials     GrantType = "client_credentials"
)

// Valid reports whether the grant type is one the service implements.
func (g GrantType) Valid() bool {
	switch g {
	case GrantTypeResourceOwnerPassword, GrantTypeClientCredentials:
		return true
	default:
		return false
	}
}

// Client is a registered OAuth client. Clients are loaded at startup and never mutated.
type Client struct {
	ID                  string
	Name                string
	AllowedGrantTypes   []GrantType
	RequireClientSecret bool
	SecretHash          string
	AccessTokenLifetime time.Duration
	AllowedScopes       []string
}

// AllowsGrant reports whether the client may use the grant type.
func (c *Client) AllowsGrant(grant GrantType) bool {
	return slices.Contains(c.AllowedGrantTypes, grant)
}

// AllowsScope reports whether the client may request the named scope.
func (c *Client) AllowsScope(name string) bool {
	return slices.Contains(c.AllowedScopes, name)
}
