package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeySpace = "revoked:"

// RevocationStore records revoked access token ids in Redis. Entries expire together
// with the token they describe, so the set never outgrows the live tokens.
type RevocationStore struct {
	client    redis.UniversalClient
	keyPrefix string
	now       func() time.Time
}

// NewRevocationStore creates a store on an existing client.
func NewRevocationStore(client redis.UniversalClient, keyPrefix string) *RevocationStore {
	return &RevocationStore{client: client, keyPrefix: keyPrefix, now: time.Now}
}

// Revoke marks tokenID revoked until expiresAt. Already expired tokens are ignored.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(tokenID), expiresAt.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation for %s: %w", tokenID, err)
	}
	return n > 0, nil
}

func (s *RevocationStore) key(tokenID string) string {
	return s.keyPrefix + revokedKeySpace + tokenID
}
