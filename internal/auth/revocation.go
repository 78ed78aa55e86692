// AngelaMos | 2026
// revocation.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/taxdesk/internal/core"
)

const revokedKeyPrefix = "auth:revoked:"

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=revocation_mock_test.go -package=auth github.com/carterperez-dev/taxdesk/internal/auth Revocations

// Revocations tracks token IDs signed out before they expired.
type Revocations interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RedisRevocations struct {
	client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

// Revoke keeps the entry only as long as the token could still verify.
func (r *RedisRevocations) Revoke(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	if jti == "" {
		return fmt.Errorf("revoke token: missing jti: %w", core.ErrInvalidInput)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, revokedKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}

	return exists > 0, nil
}

// revokedKey hashes the jti so issuer-chosen ids never shape the key.
func revokedKey(jti string) string {
	return revokedKeyPrefix + core.HashToken(jti)
}
