package domain

// ScopeKind decides which token a scope's claims are emitted into.
type ScopeKind string

const (
	// ScopeKindIdentity scopes surface claims only through identity channels (userinfo).
	ScopeKindIdentity ScopeKind = "identity"
	// ScopeKindResource scopes contribute claims to access tokens.
	ScopeKindResource ScopeKind = "resource"
)

// Valid reports whether the kind is known.
func (k ScopeKind) Valid() bool {
	return k == ScopeKindIdentity || k == ScopeKindResource
}

// ClaimDefinition names a claim a scope contributes. Source is the subject profile
// attribute the value is read from; when empty the claim type itself is used.
type ClaimDefinition struct {
	Type   string
	Source string
}

// SourceKey returns the profile attribute holding the claim's value.
func (d ClaimDefinition) SourceKey() string {
	if d.Source != "" {
		return d.Source
	}
	return d.Type
}

// Scope is a named bundle of claims a client can request.
type Scope struct {
	Name        string
	DisplayName string
	Kind        ScopeKind
	Claims      []ClaimDefinition
}
