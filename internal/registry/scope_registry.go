package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/identity-service/internal/domain"
)

// ErrDuplicateScope is a startup configuration error.
var ErrDuplicateScope = errors.New("duplicate scope name")

// ScopeRegistry is the immutable table of defined scopes, kept in declaration order.
type ScopeRegistry struct {
	scopes []domain.Scope
	index  map[string]int
}

// NewScopeRegistry builds the registry, rejecting empty names, duplicate names and
// unknown kinds.
func NewScopeRegistry(scopes []domain.Scope) (*ScopeRegistry, error) {
	r := &ScopeRegistry{
		scopes: make([]domain.Scope, 0, len(scopes)),
		index:  make(map[string]int, len(scopes)),
	}
	for i, scope := range scopes {
		if strings.TrimSpace(scope.Name) == "" {
			return nil, fmt.Errorf("scope at index %d: empty name", i)
		}
		if !scope.Kind.Valid() {
			return nil, fmt.Errorf("scope %s: unknown kind %q", scope.Name, scope.Kind)
		}
		if _, exists := r.index[scope.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScope, scope.Name)
		}
		r.index[scope.Name] = len(r.scopes)
		r.scopes = append(r.scopes, scope)
	}
	return r, nil
}

// FindScopesByNames returns the scopes matching names in registry order.
// Unknown names are dropped; asking for an extra scope is not an error.
func (r *ScopeRegistry) FindScopesByNames(names []string) []domain.Scope {
	wanted := make(map[int]struct{}, len(names))
	for _, name := range names {
		if idx, ok := r.index[name]; ok {
			wanted[idx] = struct{}{}
		}
	}

	out := make([]domain.Scope, 0, len(wanted))
	for idx, scope := range r.scopes {
		if _, ok := wanted[idx]; ok {
			out = append(out, scope)
		}
	}
	return out
}

// AllScopes returns every defined scope.
func (r *ScopeRegistry) AllScopes() []domain.Scope {
	return append([]domain.Scope(nil), r.scopes...)
}

// Lookup returns a single scope by name.
func (r *ScopeRegistry) Lookup(name string) (domain.Scope, bool) {
	idx, ok := r.index[name]
	if !ok {
		return domain.Scope{}, false
	}
	return r.scopes[idx], true
}
