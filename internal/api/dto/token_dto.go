package dto

import "strings"

// TokenRequest is the form body of POST /connect/token.
type TokenRequest struct {
	GrantType    string `form:"grant_type" json:"grant_type"`
	ClientID     string `form:"client_id" json:"client_id"`
	ClientSecret string `form:"client_secret" json:"client_secret"`
	Username     string `form:"username" json:"username"`
	Password     string `form:"password" json:"password"`
	Scope        string `form:"scope" json:"scope"`
}

// Scopes splits the space separated scope parameter.
func (r TokenRequest) Scopes() []string {
	return strings.Fields(r.Scope)
}

// TokenResponse is a successful token endpoint response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// OAuthError is the error body used by the /connect endpoints.
type OAuthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// TokenForm carries a single token, as sent to introspection and revocation.
type TokenForm struct {
	Token         string `form:"token" json:"token"`
	TokenTypeHint string `form:"token_type_hint" json:"token_type_hint"`
}

// IntrospectionResponse reports token state. Only Active is set for inactive tokens.
type IntrospectionResponse struct {
	Active    bool                `json:"active"`
	Subject   string              `json:"sub,omitempty"`
	ClientID  string              `json:"client_id,omitempty"`
	Scope     string              `json:"scope,omitempty"`
	TokenType string              `json:"token_type,omitempty"`
	ExpiresAt int64               `json:"exp,omitempty"`
	IssuedAt  int64               `json:"iat,omitempty"`
	TokenID   string              `json:"jti,omitempty"`
	Claims    map[string][]string `json:"claims,omitempty"`
}
