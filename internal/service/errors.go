package service

import (
	"errors"

	"github.com/spec-kit/identity-service/internal/registry"
)

// Token request rejections. Each is terminal for the request and never retried.
var (
	ErrClientNotFound                  = registry.ErrClientNotFound
	ErrUnauthorizedGrant               = errors.New("grant type not allowed for client")
	ErrInvalidClientCredentials        = errors.New("invalid client credentials")
	ErrInvalidResourceOwnerCredentials = errors.New("invalid resource owner credentials")
	ErrScopeResolutionEmpty            = errors.New("no requested scope is available to the client")
)

// Errors surfaced by introspection, revocation and userinfo.
var (
	ErrTokenInactive     = errors.New("token is not active")
	ErrInsufficientScope = errors.New("token lacks the required scope")
)

// RejectionReason returns a stable label for a token request failure.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrClientNotFound):
		return "client_not_found"
	case errors.Is(err, ErrUnauthorizedGrant):
		return "unauthorized_grant"
	case errors.Is(err, ErrInvalidClientCredentials):
		return "invalid_client_credentials"
	case errors.Is(err, ErrInvalidResourceOwnerCredentials):
		return "invalid_resource_owner_credentials"
	case errors.Is(err, ErrScopeResolutionEmpty):
		return "scope_resolution_empty"
	default:
		return "server_error"
	}
}
