package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/identity-service/internal/domain"
)

//go:embed identity.default.yaml
var defaultIdentity []byte

// IdentityConfig is the static client, scope, policy and user table.
type IdentityConfig struct {
	Clients  []ClientConfig `yaml:"clients"`
	Scopes   []ScopeConfig  `yaml:"scopes"`
	Policies []PolicyConfig `yaml:"policies"`
	Users    []UserConfig   `yaml:"users"`
}

// ClientConfig describes one registered client.
type ClientConfig struct {
	ClientID                   string   `yaml:"clientId"`
	ClientName                 string   `yaml:"clientName"`
	AllowedGrantTypes          []string `yaml:"allowedGrantTypes"`
	RequireClientSecret        bool     `yaml:"requireClientSecret"`
	ClientSecretHash           string   `yaml:"clientSecretHash"`
	AccessTokenLifetimeSeconds int      `yaml:"accessTokenLifetimeSeconds"`
	AllowedScopes              []string `yaml:"allowedScopes"`
}

// ScopeConfig describes one scope.
type ScopeConfig struct {
	Name        string        `yaml:"name"`
	DisplayName string        `yaml:"displayName"`
	Kind        string        `yaml:"kind"`
	Claims      []ClaimConfig `yaml:"claims"`
}

// ClaimConfig is written either as a bare claim type or as a mapping with type and
// source.
type ClaimConfig struct {
	Type   string `yaml:"type"`
	Source string `yaml:"source"`
}

// UnmarshalYAML accepts the scalar shorthand.
func (c *ClaimConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Type = node.Value
		return nil
	}
	type plain ClaimConfig
	return node.Decode((*plain)(c))
}

// PolicyConfig names a CEL expression over the token's claims.
type PolicyConfig struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// UserConfig is a development resource owner. Either Password (hashed at load) or
// PasswordHash is set.
type UserConfig struct {
	ID           string              `yaml:"id"`
	Username     string              `yaml:"username"`
	Password     string              `yaml:"password"`
	PasswordHash string              `yaml:"passwordHash"`
	Disabled     bool                `yaml:"disabled"`
	Claims       map[string][]string `yaml:"claims"`
}

// LoadIdentity reads the identity configuration from path, or the embedded default
// when path is empty.
func LoadIdentity(path string) (*IdentityConfig, error) {
	data := defaultIdentity
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read identity config: %w", err)
		}
		data = raw
	}
	return ParseIdentity(data)
}

// ParseIdentity decodes and validates an identity document.
func ParseIdentity(data []byte) (*IdentityConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg IdentityConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode identity config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field-level constraints. Uniqueness is enforced by the registries.
func (c *IdentityConfig) Validate() error {
	var errs []error
	if len(c.Clients) == 0 {
		errs = append(errs, errors.New("at least one client is required"))
	}
	for i, client := range c.Clients {
		if client.ClientID == "" {
			errs = append(errs, fmt.Errorf("clients[%d]: clientId is required", i))
		}
		if client.AccessTokenLifetimeSeconds <= 0 {
			errs = append(errs, fmt.Errorf("client %s: accessTokenLifetimeSeconds must be positive", client.ClientID))
		}
		if len(client.AllowedGrantTypes) == 0 {
			errs = append(errs, fmt.Errorf("client %s: allowedGrantTypes is required", client.ClientID))
		}
		for _, grant := range client.AllowedGrantTypes {
			if !domain.GrantType(grant).Valid() {
				errs = append(errs, fmt.Errorf("client %s: unsupported grant type %q", client.ClientID, grant))
			}
		}
		if client.RequireClientSecret && client.ClientSecretHash == "" {
			errs = append(errs, fmt.Errorf("client %s: clientSecretHash is required when requireClientSecret is set", client.ClientID))
		}
	}
	for i, scope := range c.Scopes {
		if !domain.ScopeKind(scope.Kind).Valid() {
			errs = append(errs, fmt.Errorf("scopes[%d] %s: kind must be identity or resource", i, scope.Name))
		}
		for j, claim := range scope.Claims {
			if claim.Type == "" {
				errs = append(errs, fmt.Errorf("scope %s: claims[%d] has no type", scope.Name, j))
			}
		}
	}
	for i, policy := range c.Policies {
		if policy.Name == "" || policy.Expression == "" {
			errs = append(errs, fmt.Errorf("policies[%d]: name and expression are required", i))
		}
	}
	for i, user := range c.Users {
		if user.ID == "" || user.Username == "" {
			errs = append(errs, fmt.Errorf("users[%d]: id and username are required", i))
		}
		if user.Password == "" && user.PasswordHash == "" {
			errs = append(errs, fmt.Errorf("user %s: password or passwordHash is required", user.Username))
		}
	}
	return errors.Join(errs...)
}

// DomainClients converts the client table.
func (c *IdentityConfig) DomainClients() []domain.Client {
	clients := make([]domain.Client, 0, len(c.Clients))
	for _, cc := range c.Clients {
		grants := make([]domain.GrantType, 0, len(cc.AllowedGrantTypes))
		for _, g := range cc.AllowedGrantTypes {
			grants = append(grants, domain.GrantType(g))
		}
		clients = append(clients, domain.Client{
			ID:                  cc.ClientID,
			Name:                cc.ClientName,
			AllowedGrantTypes:   grants,
			RequireClientSecret: cc.RequireClientSecret,
			SecretHash:          cc.ClientSecretHash,
			AccessTokenLifetime: time.Duration(cc.AccessTokenLifetimeSeconds) * time.Second,
			AllowedScopes:       append([]string(nil), cc.AllowedScopes...),
		})
	}
	return clients
}

// DomainScopes converts the scope table, preserving order.
func (c *IdentityConfig) DomainScopes() []domain.Scope {
	scopes := make([]domain.Scope, 0, len(c.Scopes))
	for _, sc := range c.Scopes {
		claims := make([]domain.ClaimDefinition, 0, len(sc.Claims))
		for _, cl := range sc.Claims {
			claims = append(claims, domain.ClaimDefinition{Type: cl.Type, Source: cl.Source})
		}
		scopes = append(scopes, domain.Scope{
			Name:        sc.Name,
			DisplayName: sc.DisplayName,
			Kind:        domain.ScopeKind(sc.Kind),
			Claims:      claims,
		})
	}
	return scopes
}

// DomainUsers converts the development users, hashing plaintext passwords with hash.
func (c *IdentityConfig) DomainUsers(hash func(string) (string, error)) ([]domain.User, error) {
	users := make([]domain.User, 0, len(c.Users))
	for _, uc := range c.Users {
		passwordHash := uc.PasswordHash
		if passwordHash == "" {
			hashed, err := hash(uc.Password)
			if err != nil {
				return nil, fmt.Errorf("hash password for %s: %w", uc.Username, err)
			}
			passwordHash = hashed
		}
		claims := domain.ClaimSet{}
		for typ, values := range uc.Claims {
			claims.Add(typ, values...)
		}
		users = append(users, domain.User{
			ID:           uc.ID,
			Username:     uc.Username,
			PasswordHash: passwordHash,
			Active:       !uc.Disabled,
			Claims:       claims,
		})
	}
	return users, nil
}
