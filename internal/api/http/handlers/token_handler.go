package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/service"
)

// OAuth error codes returned by the /connect endpoints.
const (
	errInvalidRequest       = "invalid_request"
	errInvalidClient        = "invalid_client"
	errInvalidGrant         = "invalid_grant"
	errUnauthorizedClient   = "unauthorized_client"
	errUnsupportedGrantType = "unsupported_grant_type"
	errInvalidScope         = "invalid_scope"
	errServerError          = "server_error"
)

// TokenHandler serves the token, introspection and revocation endpoints.
type TokenHandler struct {
	tokens *service.TokenService
	logger *zap.Logger
}

// NewTokenHandler constructs handler.
func NewTokenHandler(tokens *service.TokenService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{tokens: tokens, logger: logger}
}

// Token handles POST /connect/token.
func (h *TokenHandler) Token(c *fiber.Ctx) error {
	noStore(c)

	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return oauthError(c, http.StatusBadRequest, errInvalidRequest, "malformed request body")
	}

	if id, secret, ok := basicCredentials(c.Get(fiber.HeaderAuthorization)); ok {
		if req.ClientID != "" && req.ClientID != id {
			return oauthError(c, http.StatusBadRequest, errInvalidRequest, "client_id does not match the authenticated client")
		}
		req.ClientID, req.ClientSecret = id, secret
	}

	switch {
	case req.GrantType == "":
		return oauthError(c, http.StatusBadRequest, errInvalidRequest, "grant_type is required")
	case !domain.GrantType(req.GrantType).Valid():
		return oauthError(c, http.StatusBadRequest, errUnsupportedGrantType, "")
	case req.ClientID == "":
		return oauthError(c, http.StatusBadRequest, errInvalidRequest, "client_id is required")
	}

	result, err := h.tokens.Issue(c.UserContext(), domain.GrantRequest{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		GrantType:    domain.GrantType(req.GrantType),
		Username:     req.Username,
		Password:     req.Password,
		Scopes:       req.Scopes(),
	})
	if err != nil {
		return h.issueError(c, err)
	}

	token := result.Token
	return c.JSON(dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(token.ExpiresAt.Sub(token.IssuedAt).Seconds()),
		Scope:       strings.Join(token.Scopes, " "),
	})
}

// Introspect handles POST /connect/introspect.
func (h *TokenHandler) Introspect(c *fiber.Ctx) error {
	noStore(c)

	var form dto.TokenForm
	if err := c.BodyParser(&form); err != nil || form.Token == "" {
		return oauthError(c, http.StatusBadRequest, errInvalidRequest, "token is required")
	}

	token, err := h.tokens.Introspect(c.UserContext(), form.Token)
	if errors.Is(err, service.ErrTokenInactive) {
		return c.JSON(dto.IntrospectionResponse{Active: false})
	}
	if err != nil {
		h.logger.Error("introspection failed", zap.Error(err))
		return oauthError(c, http.StatusInternalServerError, errServerError, "")
	}

	resp := dto.IntrospectionResponse{
		Active:    true,
		Subject:   token.Subject,
		ClientID:  token.ClientID,
		Scope:     strings.Join(token.Scopes, " "),
		TokenType: "Bearer",
		ExpiresAt: token.ExpiresAt.Unix(),
		IssuedAt:  token.IssuedAt.Unix(),
		TokenID:   token.ID,
	}
	if len(token.Claims) > 0 {
		resp.Claims = token.Claims
	}
	return c.JSON(resp)
}

// Revoke handles POST /connect/revocation. Unknown or invalid tokens still get 200.
func (h *TokenHandler) Revoke(c *fiber.Ctx) error {
	var form dto.TokenForm
	if err := c.BodyParser(&form); err != nil || form.Token == "" {
		return oauthError(c, http.StatusBadRequest, errInvalidRequest, "token is required")
	}

	if err := h.tokens.Revoke(c.UserContext(), form.Token); err != nil {
		h.logger.Error("revocation failed", zap.Error(err))
		return oauthError(c, http.StatusServiceUnavailable, "temporarily_unavailable", "")
	}
	return c.SendStatus(http.StatusOK)
}

func (h *TokenHandler) issueError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrClientNotFound), errors.Is(err, service.ErrInvalidClientCredentials):
		c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="token"`)
		return oauthError(c, http.StatusUnauthorized, errInvalidClient, "client authentication failed")
	case errors.Is(err, service.ErrUnauthorizedGrant):
		return oauthError(c, http.StatusBadRequest, errUnauthorizedClient, "grant type not allowed for this client")
	case errors.Is(err, service.ErrInvalidResourceOwnerCredentials):
		return oauthError(c, http.StatusBadRequest, errInvalidGrant, "invalid username or password")
	case errors.Is(err, service.ErrScopeResolutionEmpty):
		return oauthError(c, http.StatusBadRequest, errInvalidScope, "none of the requested scopes are available")
	default:
		return oauthError(c, http.StatusInternalServerError, errServerError, "")
	}
}

func oauthError(c *fiber.Ctx, status int, code, description string) error {
	return c.Status(status).JSON(dto.OAuthError{Error: code, ErrorDescription: description})
}

func noStore(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderPragma, "no-cache")
}

// basicCredentials decodes client credentials sent with HTTP Basic authentication.
// Both parts are form-urlencoded before being joined.
func basicCredentials(header string) (string, string, bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	rawID, rawSecret, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", false
	}
	id, err := url.QueryUnescape(rawID)
	if err != nil {
		return "", "", false
	}
	secret, err := url.QueryUnescape(rawSecret)
	if err != nil || id == "" {
		return "", "", false
	}
	return id, secret, true
}
