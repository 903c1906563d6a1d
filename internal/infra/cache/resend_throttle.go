package cache

import (
	"context"
	"time"

	"authbase/config"
	"authbase/internal/domain/service"
	"authbase/internal/util"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const resendKeyPrefix = "authbase:resend:"

type setNXer interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// redisThrottle allows one resend per address per cooldown. The key holds a digest of the
// address so raw emails never land in Redis.
type redisThrottle struct {
	client   setNXer
	cooldown time.Duration
}

// NewResendThrottle returns a Redis throttle, or one that always allows when client is nil.
func NewResendThrottle(cfg *config.Config, client *redis.Client) service.ResendThrottle {
	if client == nil {
		return allowAll{}
	}

	var cooldown time.Duration
	if cfg.Redis != nil {
		cooldown = cfg.Redis.ResendCooldown
	}

	return &redisThrottle{client: client, cooldown: keyTTL(cooldown)}
}

// Allow claims the cooldown slot for email; only the first caller in a window gets true.
func (t *redisThrottle) Allow(ctx context.Context, email string) (bool, error) {
	ok, err := t.client.SetNX(ctx, resendKey(email), 1, t.cooldown).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to claim resend slot")
	}

	return ok, nil
}

func resendKey(email string) string {
	return resendKeyPrefix + util.SHA256Hex(email)
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string) (bool, error) { return true, nil }
