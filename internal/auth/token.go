package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/identity-service/internal/domain"
)

var errInvalidClaims = errors.New("invalid token claims")

// reservedClaims are written from IssuedToken fields and never copied from the
// custom claim set.
var reservedClaims = map[string]struct{}{
	domain.ClaimSubject:   {},
	domain.ClaimClientID:  {},
	domain.ClaimScope:     {},
	domain.ClaimTokenID:   {},
	domain.ClaimIssuer:    {},
	domain.ClaimExpiresAt: {},
	domain.ClaimIssuedAt:  {},
	domain.ClaimNotBefore: {},
}

// TokenManager signs issued tokens as HS256 JWTs and validates them back.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// WithClock replaces the clock used for expiry checks.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// Sign serializes the token. Claims with a single value are written as strings,
// multi-valued claims as arrays.
func (tm *TokenManager) Sign(token *domain.IssuedToken) (string, error) {
	claims := jwt.MapClaims{}
	for typ, values := range token.Claims {
		if _, reserved := reservedClaims[typ]; reserved || len(values) == 0 {
			continue
		}
		if len(values) == 1 {
			claims[typ] = values[0]
		} else {
			claims[typ] = values
		}
	}

	claims[domain.ClaimTokenID] = token.ID
	claims[domain.ClaimIssuer] = tm.issuer
	claims[domain.ClaimClientID] = token.ClientID
	claims[domain.ClaimScope] = token.Scopes
	claims[domain.ClaimIssuedAt] = token.IssuedAt.Unix()
	claims[domain.ClaimNotBefore] = token.IssuedAt.Unix()
	claims[domain.ClaimExpiresAt] = token.ExpiresAt.Unix()
	if token.HasSubject() {
		claims[domain.ClaimSubject] = token.Subject
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// Parse validates signature, issuer and expiry and returns the token content.
func (tm *TokenManager) Parse(tokenStr string) (*domain.IssuedToken, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errInvalidClaims
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errInvalidClaims
	}
	token := &domain.IssuedToken{
		ExpiresAt: exp.Time,
		Claims:    domain.ClaimSet{},
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		token.IssuedAt = iat.Time
	}

	for typ, raw := range claims {
		values, err := claimValues(raw)
		if err != nil {
			return nil, fmt.Errorf("claim %s: %w", typ, err)
		}
		switch typ {
		case domain.ClaimSubject:
			token.Subject = first(values)
		case domain.ClaimClientID:
			token.ClientID = first(values)
		case domain.ClaimTokenID:
			token.ID = first(values)
		case domain.ClaimScope:
			token.Scopes = values
		case domain.ClaimIssuer, domain.ClaimExpiresAt, domain.ClaimIssuedAt, domain.ClaimNotBefore:
		default:
			token.Claims.Add(typ, values...)
		}
	}
	if token.ID == "" {
		return nil, errInvalidClaims
	}
	return token, nil
}

func claimValues(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case bool:
		return []string{strconv.FormatBool(v)}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			values, err := claimValues(item)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported claim value type %T", raw)
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
