package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestBlacklistRevokeAndContains(t *testing.T) {
	mr, client := newTestRedis(t)
	bl := NewBlacklist(client, "oa")
	ctx := context.Background()

	listed, err := bl.Contains(ctx, "tok-1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if listed {
		t.Fatal("fresh token id should not be listed")
	}

	if err := bl.Revoke(ctx, "tok-1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	listed, err = bl.Contains(ctx, "tok-1")
	if err != nil {
		t.Fatalf("contains after revoke: %v", err)
	}
	if !listed {
		t.Fatal("revoked token id should be listed")
	}

	// Entry disappears with the token's natural lifetime.
	mr.FastForward(2 * time.Hour)
	listed, err = bl.Contains(ctx, "tok-1")
	if err != nil {
		t.Fatalf("contains after expiry: %v", err)
	}
	if listed {
		t.Fatal("expired blacklist entry should be gone")
	}
}

func TestBlacklistRevokeNeverShortensTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	bl := NewBlacklist(client, "oa")
	ctx := context.Background()

	if err := bl.Revoke(ctx, "tok-1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	// Re-revoking with a smaller remaining lifetime must not shorten it.
	if err := bl.Revoke(ctx, "tok-1", time.Minute); err != nil {
		t.Fatalf("re-revoke: %v", err)
	}

	mr.FastForward(30 * time.Minute)
	listed, err := bl.Contains(ctx, "tok-1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !listed {
		t.Fatal("entry expired early; re-revoke shortened the TTL")
	}
}

func TestBlacklistExpiredTokenIsNoOp(t *testing.T) {
	_, client := newTestRedis(t)
	bl := NewBlacklist(client, "oa")
	ctx := context.Background()

	if err := bl.Revoke(ctx, "tok-1", 0); err != nil {
		t.Fatalf("revoke with zero remaining: %v", err)
	}
	if err := bl.Revoke(ctx, "tok-1", -time.Minute); err != nil {
		t.Fatalf("revoke with negative remaining: %v", err)
	}

	listed, err := bl.Contains(ctx, "tok-1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if listed {
		t.Fatal("expired token must not be written to the blacklist")
	}
}

func TestBlacklistUnavailableRedis(t *testing.T) {
	mr, client := newTestRedis(t)
	bl := NewBlacklist(client, "oa")
	ctx := context.Background()
	mr.Close()

	if err := bl.Revoke(ctx, "tok-1", time.Hour); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("revoke on dead redis = %v, want ErrRedisUnavailable", err)
	}
	if _, err := bl.Contains(ctx, "tok-1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("contains on dead redis = %v, want ErrRedisUnavailable", err)
	}
}
