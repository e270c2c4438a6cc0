package domain

import (
	"slices"
	"time"
)

// Well-known claim types.
const (
	ClaimSubject   = "sub"
	ClaimClientID  = "client_id"
	ClaimScope     = "scope"
	ClaimRole      = "role"
	ClaimTokenID   = "jti"
	ClaimIssuer    = "iss"
	ClaimExpiresAt = "exp"
	ClaimIssuedAt  = "iat"
	ClaimNotBefore = "nbf"
)

// ClaimSet maps a claim type to its values. A type may carry several values.
type ClaimSet map[string][]string

// Add appends values to the claim type, skipping duplicates.
func (c ClaimSet) Add(claimType string, values ...string) {
	for _, v := range values {
		if !slices.Contains(c[claimType], v) {
			c[claimType] = append(c[claimType], v)
		}
	}
}

// Merge adds every claim of other into c.
func (c ClaimSet) Merge(other ClaimSet) {
	for typ, values := range other {
		c.Add(typ, values...)
	}
}

// Values returns the values of a claim type, nil when absent.
func (c ClaimSet) Values(claimType string) []string {
	return c[claimType]
}

// First returns the first value of a claim type.
func (c ClaimSet) First(claimType string) (string, bool) {
	values := c[claimType]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Has reports whether the claim type carries value.
func (c ClaimSet) Has(claimType, value string) bool {
	return slices.Contains(c[claimType], value)
}

// Clone returns a deep copy.
func (c ClaimSet) Clone() ClaimSet {
	out := make(ClaimSet, len(c))
	for typ, values := range c {
		out[typ] = slices.Clone(values)
	}
	return out
}

// GrantRequest is a single token request as received from the token endpoint.
// Scopes may be empty, meaning the client's default (allowed) scopes.
type GrantRequest struct {
	ClientID     string
	ClientSecret string
	GrantType    GrantType
	Username     string
	Password     string
	Scopes       []string
}

// IssuedToken is an access token's content. Subject is empty for grants
// that do not involve a resource owner.
type IssuedToken struct {
	ID        string
	Subject   string
	ClientID  string
	Scopes    []string
	Claims    ClaimSet
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasSubject reports whether the token was issued on behalf of a resource owner.
func (t *IssuedToken) HasSubject() bool {
	return t.Subject != ""
}

// HasScope reports whether the scope was granted.
func (t *IssuedToken) HasScope(name string) bool {
	return slices.Contains(t.Scopes, name)
}

// ClaimSet returns the token's custom claims together with sub, client_id and scope,
// which is the view authorization checks operate on.
func (t *IssuedToken) ClaimSet() ClaimSet {
	out := t.Claims.Clone()
	if t.Subject != "" {
		out.Add(ClaimSubject, t.Subject)
	}
	if t.ClientID != "" {
		out.Add(ClaimClientID, t.ClientID)
	}
	out.Add(ClaimScope, t.Scopes...)
	return out
}
