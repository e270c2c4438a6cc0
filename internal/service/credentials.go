package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
)

// ClientSecretVerifier checks a confidential client's secret.
type ClientSecretVerifier interface {
	VerifySecret(ctx context.Context, client *domain.Client, secret string) error
}

// ResourceOwnerValidator authenticates a username/password pair.
type ResourceOwnerValidator interface {
	ValidateCredentials(ctx context.Context, username, password string) (*domain.User, error)
}

// ClaimResolver produces claim values for a subject. user is nil when the grant has no
// resource owner.
type ClaimResolver interface {
	ResolveClaims(ctx context.Context, user *domain.User, defs []domain.ClaimDefinition) (domain.ClaimSet, error)
}

// BcryptSecretVerifier compares secrets against the client's bcrypt hash.
type BcryptSecretVerifier struct{}

// VerifySecret implements ClientSecretVerifier.
func (BcryptSecretVerifier) VerifySecret(_ context.Context, client *domain.Client, secret string) error {
	if client.SecretHash == "" || secret == "" {
		return ErrInvalidClientCredentials
	}
	if err := auth.ComparePassword(client.SecretHash, secret); err != nil {
		return ErrInvalidClientCredentials
	}
	return nil
}

// PasswordValidator authenticates resource owners against the user repository.
type PasswordValidator struct {
	users repository.UserRepository
}

// NewPasswordValidator builds a validator.
func NewPasswordValidator(users repository.UserRepository) *PasswordValidator {
	return &PasswordValidator{users: users}
}

// ValidateCredentials returns the user when the password matches. Unknown, disabled
// and mismatched users all yield ErrInvalidResourceOwnerCredentials.
func (v *PasswordValidator) ValidateCredentials(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidResourceOwnerCredentials
	}
	user, err := v.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidResourceOwnerCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.Active {
		return nil, ErrInvalidResourceOwnerCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidResourceOwnerCredentials
	}
	return user, nil
}

// ProfileClaimResolver reads claim values from the user's profile attributes. The sub
// claim always resolves to the user id. Attributes the user lacks are omitted.
type ProfileClaimResolver struct{}

// ResolveClaims implements ClaimResolver.
func (ProfileClaimResolver) ResolveClaims(_ context.Context, user *domain.User, defs []domain.ClaimDefinition) (domain.ClaimSet, error) {
	out := domain.ClaimSet{}
	if user == nil {
		return out, nil
	}
	for _, def := range defs {
		if def.SourceKey() == domain.ClaimSubject {
			out.Add(def.Type, user.ID)
			continue
		}
		if values := user.Claims.Values(def.SourceKey()); len(values) > 0 {
			out.Add(def.Type, values...)
		}
	}
	return out, nil
}
