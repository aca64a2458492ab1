package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// markScript stores the scan-clock expiry (unix ms, 0 for never) as the
// value. An existing mark wins while its expiry is 0 or after now. The key
// TTL only bounds storage.
var markScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local exp = tonumber(cur)
	if exp == 0 or exp > tonumber(ARGV[1]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// Redis stores dedupe marks so several replicas running the deadline scan
// emit each notification once.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Mark(ctx context.Context, key string, now time.Time) (bool, error) {
	var exp int64
	if r.ttl > 0 {
		exp = now.Add(r.ttl).UnixMilli()
	}
	set, err := markScript.Run(ctx, r.client, []string{key},
		now.UnixMilli(), exp, r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("dedupe mark %s: %w", key, err)
	}
	return set == 1, nil
}

func (r *Redis) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("dedupe release %s: %w", key, err)
	}
	return nil
}
