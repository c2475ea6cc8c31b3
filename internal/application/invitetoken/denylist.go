package invitetoken

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "invite:revoked:"

// RedisDenylist keeps one key per revoked jti that expires with the token.
type RedisDenylist struct {
	RDB *redis.Client
	Now func() time.Time
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.RDB.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	ttl := until.Sub(now)
	if ttl <= 0 {
		return nil
	}
	return d.RDB.Set(ctx, denylistPrefix+jti, "1", ttl).Err()
}
