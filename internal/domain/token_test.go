package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimSetAddSkipsDuplicates(t *testing.T) {
	t.Parallel()

	claims := ClaimSet{}
	claims.Add("role", "Administrator", "Manager", "Administrator")
	claims.Merge(ClaimSet{"role": {"Manager", "Auditor"}, "office": {"399"}})

	assert.Equal(t, []string{"Administrator", "Manager", "Auditor"}, claims.Values("role"))
	assert.Equal(t, []string{"399"}, claims.Values("office"))
	assert.Nil(t, claims.Values("email"))

	first, ok := claims.First("role")
	assert.True(t, ok)
	assert.Equal(t, "Administrator", first)
	_, ok = claims.First("email")
	assert.False(t, ok)
}

func TestClaimSetCloneIsDeep(t *testing.T) {
	t.Parallel()

	original := ClaimSet{"role": {"Manager"}}
	clone := original.Clone()
	clone.Add("role", "Administrator")
	clone["role"][0] = "Auditor"

	assert.Equal(t, []string{"Manager"}, original.Values("role"))
}

func TestIssuedTokenClaimSet(t *testing.T) {
	t.Parallel()

	token := &IssuedToken{
		Subject:  "1",
		ClientID: "myClient",
		Scopes:   []string{"roles", "officeOwner"},
		Claims:   ClaimSet{"role": {"Administrator"}, "office": {"399"}},
	}
	view := token.ClaimSet()

	assert.Equal(t, ClaimSet{
		"role":      {"Administrator"},
		"office":    {"399"},
		"sub":       {"1"},
		"client_id": {"myClient"},
		"scope":     {"roles", "officeOwner"},
	}, view)
	assert.NotContains(t, token.Claims, "sub")

	anonymous := (&IssuedToken{ClientID: "svc"}).ClaimSet()
	assert.Equal(t, ClaimSet{"client_id": {"svc"}}, anonymous)
}

func TestClientPermissions(t *testing.T) {
	t.Parallel()

	client := &Client{
		AllowedGrantTypes: []GrantType{GrantTypeResourceOwnerPassword},
		AllowedScopes:     []string{"roles"},
	}
	assert.True(t, client.AllowsGrant(GrantTypeResourceOwnerPassword))
	assert.False(t, client.AllowsGrant(GrantTypeClientCredentials))
	assert.True(t, client.AllowsScope("roles"))
	assert.False(t, client.AllowsScope("officeOwner"))

	assert.True(t, GrantType("client_credentials").Valid())
	assert.False(t, GrantType("implicit").Valid())
	assert.False(t, ScopeKind("api").Valid())
	assert.Equal(t, "site", ClaimDefinition{Type: "building", Source: "site"}.SourceKey())
	assert.Equal(t, "office", ClaimDefinition{Type: "office"}.SourceKey())
}
