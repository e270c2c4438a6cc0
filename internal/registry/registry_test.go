package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/identity-service/internal/domain"
)

func sampleScopes() []domain.Scope {
	return []domain.Scope{
		{Name: "openid", Kind: domain.ScopeKindIdentity, Claims: []domain.ClaimDefinition{{Type: "sub"}}},
		{Name: "email", Kind: domain.ScopeKindIdentity, Claims: []domain.ClaimDefinition{{Type: "email"}}},
		{Name: "roles", Kind: domain.ScopeKindResource, Claims: []domain.ClaimDefinition{{Type: "role"}}},
		{Name: "officeOwner", Kind: domain.ScopeKindResource, Claims: []domain.ClaimDefinition{{Type: "office"}}},
	}
}

func TestClientRegistryFindClientByID(t *testing.T) {
	t.Parallel()

	reg, err := NewClientRegistry([]domain.Client{{
		ID:                  "myClient",
		AllowedGrantTypes:   []domain.GrantType{domain.GrantTypeResourceOwnerPassword},
		AccessTokenLifetime: 24 * time.Hour,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	client, err := reg.FindClientByID("myClient")
	require.NoError(t, err)
	assert.True(t, client.AllowsGrant(domain.GrantTypeResourceOwnerPassword))
	assert.False(t, client.AllowsGrant(domain.GrantTypeClientCredentials))

	_, err = reg.FindClientByID("other")
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestClientRegistryRejectsInvalidClients(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		clients []domain.Client
		wantErr error
	}{
		{name: "empty id", clients: []domain.Client{{ID: " "}}},
		{name: "duplicate id", clients: []domain.Client{{ID: "a"}, {ID: "a"}}, wantErr: ErrDuplicateClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewClientRegistry(tt.clients)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestScopeRegistryFindScopesByNames(t *testing.T) {
	t.Parallel()

	reg, err := NewScopeRegistry(sampleScopes())
	require.NoError(t, err)

	found := reg.FindScopesByNames([]string{"officeOwner", "unknown", "openid", "officeOwner"})
	require.Len(t, found, 2)
	assert.Equal(t, "openid", found[0].Name)
	assert.Equal(t, "officeOwner", found[1].Name)

	again := reg.FindScopesByNames([]string{"officeOwner", "unknown", "openid"})
	assert.Equal(t, found, again)

	assert.Empty(t, reg.FindScopesByNames(nil))
	assert.Len(t, reg.AllScopes(), 4)

	roles, ok := reg.Lookup("roles")
	require.True(t, ok)
	assert.Equal(t, domain.ScopeKindResource, roles.Kind)
}

func TestScopeRegistryRejectsInvalidScopes(t *testing.T) {
	t.Parallel()

	_, err := NewScopeRegistry([]domain.Scope{
		{Name: "roles", Kind: domain.ScopeKindResource},
		{Name: "roles", Kind: domain.ScopeKindIdentity},
	})
	assert.ErrorIs(t, err, ErrDuplicateScope)

	_, err = NewScopeRegistry([]domain.Scope{{Name: "x", Kind: "weird"}})
	assert.Error(t, err)

	_, err = NewScopeRegistry([]domain.Scope{{Name: "", Kind: domain.ScopeKindIdentity}})
	assert.Error(t, err)
}
