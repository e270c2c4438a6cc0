package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/service"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// UserInfoHandler returns identity claims for the bearer token's subject.
type UserInfoHandler struct {
	tokens *service.TokenService
}

// NewUserInfoHandler constructs handler.
func NewUserInfoHandler(tokens *service.TokenService) *UserInfoHandler {
	return &UserInfoHandler{tokens: tokens}
}

// Get handles GET /connect/userinfo. Single valued claims are rendered as strings.
func (h *UserInfoHandler) Get(c *fiber.Ctx) error {
	token, ok := auth.TokenFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	claims, err := h.tokens.UserInfo(c.UserContext(), token)
	switch {
	case errors.Is(err, service.ErrInsufficientScope):
		c.Set(fiber.HeaderWWWAuthenticate, `Bearer error="insufficient_scope", scope="openid"`)
		return apperrors.NewForbidden("token lacks the openid scope")
	case errors.Is(err, service.ErrTokenInactive):
		return apperrors.NewUnauthorized("unknown subject")
	case err != nil:
		return apperrors.NewInternalError(err)
	}

	body := make(fiber.Map, len(claims))
	for typ, values := range claims {
		if len(values) == 1 {
			body[typ] = values[0]
		} else {
			body[typ] = values
		}
	}
	return c.JSON(body)
}
