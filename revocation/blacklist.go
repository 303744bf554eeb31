package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable marks transient blacklist I/O failures. Callers must
// not fold it into a revoked/not-revoked answer.
var ErrRedisUnavailable = errors.New("revocation redis unavailable")

// revokeScript writes the blacklist entry without ever shortening an
// existing one: re-revoking the same token id with a smaller remaining
// lifetime must not resurrect it early.
const revokeScript = `
local existing = redis.call("PTTL", KEYS[1])
local ttl = tonumber(ARGV[1])
if existing < ttl then
  redis.call("SET", KEYS[1], "1", "PX", ttl)
end
return 1
`

var revokeLua = redis.NewScript(revokeScript)

// Blacklist is the keyed store of explicitly revoked token ids.
type Blacklist struct {
	redis  redis.UniversalClient
	prefix string
}

// NewBlacklist creates a blacklist under the given key prefix.
func NewBlacklist(client redis.UniversalClient, prefix string) *Blacklist {
	if prefix == "" {
		prefix = "oa"
	}
	return &Blacklist{redis: client, prefix: prefix}
}

func (b *Blacklist) key(tokenID string) string {
	return b.prefix + ":bl:" + tokenID
}

// Revoke records the token id for its remaining lifetime. A non-positive
// remaining lifetime is a no-op: the token is already expired and the codec
// will reject it without our help.
func (b *Blacklist) Revoke(ctx context.Context, tokenID string, remaining time.Duration) error {
	if tokenID == "" {
		return errors.New("empty token id")
	}
	if remaining <= 0 {
		return nil
	}
	if err := revokeLua.Run(ctx, b.redis, []string{b.key(tokenID)}, remaining.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Contains reports whether the token id is currently blacklisted.
func (b *Blacklist) Contains(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := b.redis.Exists(ctx, b.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
