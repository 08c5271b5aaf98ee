package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DenyList stores revoked token ids in Redis until the token would have expired anyway.
type DenyList struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

func NewDenyList(rdb *redis.Client, prefix string) *DenyList {
	if prefix == "" {
		prefix = "roomsched:revoked:"
	}
	return &DenyList{rdb: rdb, prefix: prefix, now: time.Now}
}

// Revoke denies tokenID until expiresAt. Already expired tokens are not stored.
func (d *DenyList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := expiresAt.Sub(d.now())
	if expiresAt.IsZero() {
		ttl = 24 * time.Hour
	}
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, d.prefix+tokenID, "1", ttl).Err()
}

func (d *DenyList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := d.rdb.Exists(ctx, d.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
