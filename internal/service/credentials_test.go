package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/identity-service/internal/domain"
)

type brokenUsers struct{}

func (brokenUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection refused")
}

func (brokenUsers) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection refused")
}

func TestPasswordValidatorStoreFailure(t *testing.T) {
	t.Parallel()

	_, err := NewPasswordValidator(brokenUsers{}).ValidateCredentials(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidResourceOwnerCredentials)
	assert.Equal(t, "server_error", RejectionReason(err))
}

func TestBcryptSecretVerifier(t *testing.T) {
	t.Parallel()

	client := &domain.Client{ID: "c", SecretHash: hashFor(t, "s3cret")}
	v := BcryptSecretVerifier{}

	assert.NoError(t, v.VerifySecret(context.Background(), client, "s3cret"))
	assert.ErrorIs(t, v.VerifySecret(context.Background(), client, "other"), ErrInvalidClientCredentials)
	assert.ErrorIs(t, v.VerifySecret(context.Background(), client, ""), ErrInvalidClientCredentials)
	assert.ErrorIs(t, v.VerifySecret(context.Background(), &domain.Client{ID: "c"}, "s3cret"), ErrInvalidClientCredentials)
}

func TestProfileClaimResolver(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: "7", Claims: domain.ClaimSet{"site": {"B2"}, "office": {"12"}}}
	defs := []domain.ClaimDefinition{
		{Type: "sub"},
		{Type: "office"},
		{Type: "building", Source: "site"},
		{Type: "email"},
	}

	claims, err := ProfileClaimResolver{}.ResolveClaims(context.Background(), user, defs)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimSet{"sub": {"7"}, "office": {"12"}, "building": {"B2"}}, claims)

	empty, err := ProfileClaimResolver{}.ResolveClaims(context.Background(), nil, defs)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRejectionReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "client_not_found", RejectionReason(ErrClientNotFound))
	assert.Equal(t, "unauthorized_grant", RejectionReason(ErrUnauthorizedGrant))
	assert.Equal(t, "invalid_client_credentials", RejectionReason(ErrInvalidClientCredentials))
	assert.Equal(t, "invalid_resource_owner_credentials", RejectionReason(ErrInvalidResourceOwnerCredentials))
	assert.Equal(t, "scope_resolution_empty", RejectionReason(ErrScopeResolutionEmpty))
}
