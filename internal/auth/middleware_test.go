package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/authz"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	return s.revoked[id], s.err
}

func errorStatusHandler(c *fiber.Ctx, err error) error {
	de := apperrors.ToDomainError(err)
	return c.Status(de.HTTPStatus).SendString(de.Code)
}

var deniedAt = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type fixture struct {
	tokens *TokenManager
	app    *fiber.App
	denied []events.Event
}

func newFixture(t *testing.T, revocations RevocationChecker) *fixture {
	t.Helper()

	policies, err := authz.NewPolicyRegistry()
	require.NoError(t, err)
	require.NoError(t, policies.RegisterExpression("OfficeNumberUnder400", `"office" in claims && claims["office"].exists(o, int(o) < 400)`))

	f := &fixture{tokens: NewTokenManager("secret", "iss")}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventAccessDenied, func(_ context.Context, e events.Event) error {
		f.denied = append(f.denied, e)
		return nil
	})

	guard := NewGuard(authz.NewEvaluator(policies), dispatcher, nil, zap.NewNop(), fixedClock(deniedAt))
	adminOnly, err := guard.Require(authz.RequireRole("Administrator"), authz.RequirePolicy("OfficeNumberUnder400"))
	require.NoError(t, err)

	mw := NewAuthMiddleware(f.tokens, revocations, zap.NewNop())
	f.app = fiber.New(fiber.Config{ErrorHandler: errorStatusHandler})
	f.app.Get("/open", mw.Handle, func(c *fiber.Ctx) error {
		token, ok := TokenFromContext(c)
		if !ok {
			return errors.New("token missing from context")
		}
		return c.SendString(token.Subject)
	})
	f.app.Get("/admin", mw.Handle, adminOnly, func(c *fiber.Ctx) error { return c.SendString("ok") })
	f.app.Get("/unauthenticated", adminOnly, func(c *fiber.Ctx) error { return c.SendString("ok") })
	return f
}

func (f *fixture) sign(t *testing.T, id string, claims domain.ClaimSet) string {
	t.Helper()
	now := time.Now()
	signed, err := f.tokens.Sign(&domain.IssuedToken{
		ID: id, Subject: "1", ClientID: "myClient", Claims: claims,
		IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	return signed
}

func (f *fixture) get(t *testing.T, path, authorization string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	f := newFixture(t, stubRevocations{revoked: map[string]bool{"revoked": true}})

	status, body := f.get(t, "/open", "Bearer "+f.sign(t, "ok", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1", body)

	status, _ = f.get(t, "/open", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.get(t, "/open", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.get(t, "/open", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.get(t, "/open", "Bearer "+f.sign(t, "revoked", nil))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthMiddlewareRevocationFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, stubRevocations{err: errors.New("redis down")})
	status, body := f.get(t, "/open", "Bearer "+f.sign(t, "x", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", body)
}

func TestGuardDecisions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	tests := []struct {
		name   string
		claims domain.ClaimSet
		want   int
	}{
		{name: "admin office 399", claims: domain.ClaimSet{"role": {"Administrator"}, "office": {"399"}}, want: http.StatusOK},
		{name: "admin office 400", claims: domain.ClaimSet{"role": {"Administrator"}, "office": {"400"}}, want: http.StatusForbidden},
		{name: "manager office 100", claims: domain.ClaimSet{"role": {"Manager"}, "office": {"100"}}, want: http.StatusForbidden},
		{name: "no claims", claims: nil, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		status, _ := f.get(t, "/admin", "Bearer "+f.sign(t, tt.name, tt.claims))
		assert.Equal(t, tt.want, status, tt.name)
	}
	require.Len(t, f.denied, 3)
	assert.Equal(t, "1", f.denied[0].Subject)
	for _, e := range f.denied {
		assert.Equal(t, deniedAt, e.Timestamp)
	}

	status, _ := f.get(t, "/unauthenticated", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGuardRejectsUnknownPolicy(t *testing.T) {
	t.Parallel()

	policies, err := authz.NewPolicyRegistry()
	require.NoError(t, err)
	guard := NewGuard(authz.NewEvaluator(policies), nil, nil, zap.NewNop(), nil)

	_, err = guard.Require(authz.RequirePolicy("OfficeNumberUnder400"))
	assert.ErrorIs(t, err, authz.ErrPolicyNotRegistered)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	token, ok := BearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = BearerToken("abc")
	assert.False(t, ok)
}
