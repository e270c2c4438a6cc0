package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/registry"
	"github.com/spec-kit/identity-service/internal/repository"
)

// TokenSigner serializes an issued token.
type TokenSigner interface {
	Sign(token *domain.IssuedToken) (string, error)
}

// RevocationStore persists revoked token ids.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenDependencies encapsulates collaborators of the token service. Dispatcher,
// Metrics and Now are optional.
type TokenDependencies struct {
	Clients     *registry.ClientRegistry
	Scopes      *registry.ScopeRegistry
	Signer      TokenSigner
	Parser      auth.TokenParser
	Secrets     ClientSecretVerifier
	Owners      ResourceOwnerValidator
	Claims      ClaimResolver
	Users       repository.UserRepository
	Revocations RevocationStore
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Now         func() time.Time
}

// TokenService issues, introspects and revokes access tokens.
type TokenService struct {
	clients     *registry.ClientRegistry
	scopes      *registry.ScopeRegistry
	signer      TokenSigner
	parser      auth.TokenParser
	secrets     ClientSecretVerifier
	owners      ResourceOwnerValidator
	claims      ClaimResolver
	users       repository.UserRepository
	revocations RevocationStore
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// IssueResult is a freshly issued token and its serialized form.
type IssueResult struct {
	Token       *domain.IssuedToken
	AccessToken string
}

// NewTokenService builds the service.
func NewTokenService(deps TokenDependencies) *TokenService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		clients:     deps.Clients,
		scopes:      deps.Scopes,
		signer:      deps.Signer,
		parser:      deps.Parser,
		secrets:     deps.Secrets,
		owners:      deps.Owners,
		claims:      deps.Claims,
		users:       deps.Users,
		revocations: deps.Revocations,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         now,
	}
}

// Issue handles a grant request and returns a signed access token or a typed rejection.
func (s *TokenService) Issue(ctx context.Context, req domain.GrantRequest) (*IssueResult, error) {
	result, err := s.issue(ctx, req)
	if err != nil {
		reason := RejectionReason(err)
		s.metrics.RecordTokenRejected(reason)
		if reason == "server_error" {
			s.logger.Error("token issuance failed", zap.String("client_id", req.ClientID), zap.Error(err))
		}
		s.publish(ctx, events.Event{
			Type:     events.EventTokenRejected,
			ClientID: req.ClientID,
			Payload:  events.TokenRejectedPayload{GrantType: string(req.GrantType), Reason: reason},
		})
		return nil, err
	}

	token := result.Token
	s.metrics.RecordTokenIssued(token.ClientID, string(req.GrantType))
	s.publish(ctx, events.Event{
		Type:     events.EventTokenIssued,
		ClientID: token.ClientID,
		Subject:  token.Subject,
		Payload: events.TokenIssuedPayload{
			TokenID:   token.ID,
			GrantType: string(req.GrantType),
			Scopes:    token.Scopes,
			ExpiresAt: token.ExpiresAt,
		},
	})
	return result, nil
}

func (s *TokenService) issue(ctx context.Context, req domain.GrantRequest) (*IssueResult, error) {
	client, err := s.clients.FindClientByID(req.ClientID)
	if err != nil {
		return nil, err
	}
	if !client.AllowsGrant(req.GrantType) {
		return nil, ErrUnauthorizedGrant
	}
	if client.RequireClientSecret {
		if err := s.secrets.VerifySecret(ctx, client, req.ClientSecret); err != nil {
			return nil, err
		}
	}

	var user *domain.User
	if req.GrantType == domain.GrantTypeResourceOwnerPassword {
		user, err = s.owners.ValidateCredentials(ctx, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
	}

	scopes, err := s.resolveScopes(client, req.Scopes)
	if err != nil {
		return nil, err
	}

	claims := domain.ClaimSet{}
	names := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		names = append(names, scope.Name)
		if scope.Kind != domain.ScopeKindResource {
			continue
		}
		resolved, err := s.claims.ResolveClaims(ctx, user, scope.Claims)
		if err != nil {
			return nil, fmt.Errorf("resolve claims for scope %s: %w", scope.Name, err)
		}
		claims.Merge(resolved)
	}

	now := s.now().UTC()
	token := &domain.IssuedToken{
		ID:        uuid.NewString(),
		ClientID:  client.ID,
		Scopes:    names,
		Claims:    claims,
		IssuedAt:  now,
		ExpiresAt: now.Add(client.AccessTokenLifetime),
	}
	if user != nil {
		token.Subject = user.ID
	}

	signed, err := s.signer.Sign(token)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssueResult{Token: token, AccessToken: signed}, nil
}

// resolveScopes applies the client's allowed set. With nothing requested every allowed
// scope is granted; otherwise scopes the client may not use, or that do not exist,
// are dropped.
func (s *TokenService) resolveScopes(client *domain.Client, requested []string) ([]domain.Scope, error) {
	if len(requested) == 0 {
		all := s.scopes.AllScopes()
		granted := all[:0]
		for _, scope := range all {
			if client.AllowsScope(scope.Name) {
				granted = append(granted, scope)
			}
		}
		return granted, nil
	}

	permitted := make([]string, 0, len(requested))
	for _, name := range requested {
		if client.AllowsScope(name) {
			permitted = append(permitted, name)
		}
	}
	scopes := s.scopes.FindScopesByNames(permitted)
	if len(scopes) == 0 {
		return nil, ErrScopeResolutionEmpty
	}
	return scopes, nil
}

// Introspect returns the token content when it is valid, unexpired and not revoked.
func (s *TokenService) Introspect(ctx context.Context, raw string) (*domain.IssuedToken, error) {
	token, err := s.parser.Parse(raw)
	if err != nil {
		return nil, ErrTokenInactive
	}
	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, token.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenInactive
		}
	}
	return token, nil
}

// Revoke invalidates a token until its natural expiry. Tokens that do not parse are
// ignored, matching the revocation endpoint's contract of answering 200 regardless.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	token, err := s.parser.Parse(raw)
	if err != nil {
		s.logger.Debug("ignoring revocation of invalid token", zap.Error(err))
		return nil
	}
	if s.revocations == nil {
		return errors.New("revocation store not configured")
	}
	if err := s.revocations.Revoke(ctx, token.ID, token.ExpiresAt); err != nil {
		return err
	}

	s.metrics.RecordTokenRevoked()
	s.publish(ctx, events.Event{
		Type:     events.EventTokenRevoked,
		ClientID: token.ClientID,
		Subject:  token.Subject,
		Payload:  events.TokenRevokedPayload{TokenID: token.ID},
	})
	return nil
}

// UserInfo returns the identity claims of the token's subject for the identity scopes
// the token was granted. The openid scope is required.
func (s *TokenService) UserInfo(ctx context.Context, token *domain.IssuedToken) (domain.ClaimSet, error) {
	if !token.HasScope("openid") || !token.HasSubject() {
		return nil, ErrInsufficientScope
	}
	user, err := s.users.GetByID(ctx, token.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrTokenInactive
		}
		return nil, err
	}

	var defs []domain.ClaimDefinition
	for _, scope := range s.scopes.FindScopesByNames(token.Scopes) {
		if scope.Kind == domain.ScopeKindIdentity {
			defs = append(defs, scope.Claims...)
		}
	}
	claims, err := s.claims.ResolveClaims(ctx, user, defs)
	if err != nil {
		return nil, err
	}
	claims.Add(domain.ClaimSubject, user.ID)
	return claims, nil
}

func (s *TokenService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
