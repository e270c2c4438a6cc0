package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/identity-service/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenManagerRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	tm := NewTokenManager("secret", "https://issuer.test").WithClock(fixedClock(now.Add(time.Minute)))

	issued := &domain.IssuedToken{
		ID:       "tok-1",
		Subject:  "1",
		ClientID: "myClient",
		Scopes:   []string{"roles", "officeOwner"},
		Claims: domain.ClaimSet{
			"role":   {"Administrator", "Manager"},
			"office": {"399"},
			"sub":    {"spoofed"},
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	}

	signed, err := tm.Sign(issued)
	require.NoError(t, err)

	parsed, err := tm.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", parsed.ID)
	assert.Equal(t, "1", parsed.Subject)
	assert.Equal(t, "myClient", parsed.ClientID)
	assert.Equal(t, []string{"roles", "officeOwner"}, parsed.Scopes)
	assert.ElementsMatch(t, []string{"Administrator", "Manager"}, parsed.Claims.Values("role"))
	assert.Equal(t, []string{"399"}, parsed.Claims.Values("office"))
	assert.NotContains(t, parsed.Claims, "sub")
	assert.True(t, parsed.ExpiresAt.Equal(issued.ExpiresAt))
	assert.True(t, parsed.IssuedAt.Equal(issued.IssuedAt))
}

func TestTokenManagerWithoutSubject(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tm := NewTokenManager("secret", "iss")
	signed, err := tm.Sign(&domain.IssuedToken{ID: "x", ClientID: "svc", IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	parsed, err := tm.Parse(signed)
	require.NoError(t, err)
	assert.False(t, parsed.HasSubject())
	assert.Empty(t, parsed.Scopes)
}

func TestTokenManagerRejects(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	token := &domain.IssuedToken{ID: "x", ClientID: "c", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}

	signed, err := NewTokenManager("secret", "iss").Sign(token)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		_, err := NewTokenManager("secret", "iss").WithClock(fixedClock(now.Add(2 * time.Hour))).Parse(signed)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})
	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		_, err := NewTokenManager("other", "iss").WithClock(fixedClock(now)).Parse(signed)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()
		_, err := NewTokenManager("secret", "other").WithClock(fixedClock(now)).Parse(signed)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})
	t.Run("wrong algorithm", func(t *testing.T) {
		t.Parallel()
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"jti": "x", "iss": "iss", "exp": now.Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = NewTokenManager("secret", "iss").WithClock(fixedClock(now)).Parse(none)
		assert.Error(t, err)
	})
	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := NewTokenManager("secret", "iss").Parse("not-a-jwt")
		assert.Error(t, err)
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pw", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "pw"))
	assert.Error(t, ComparePassword(hash, "other"))
}
