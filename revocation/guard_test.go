package revocation

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fixedVersions struct {
	version uint32
	err     error
}

func (f fixedVersions) TokenVersion(context.Context, string) (uint32, error) {
	return f.version, f.err
}

func TestNewGuardRejectsNoMechanism(t *testing.T) {
	if _, err := NewGuard(nil, nil, false, false); err == nil {
		t.Fatal("expected error when both mechanisms are disabled")
	}
	if _, err := NewGuard(nil, fixedVersions{}, true, true); err == nil {
		t.Fatal("expected error when blacklist enabled without store")
	}
	if _, err := NewGuard(&Blacklist{}, nil, true, true); err == nil {
		t.Fatal("expected error when version check enabled without source")
	}
}

func TestGuardBlacklistReason(t *testing.T) {
	_, client := newTestRedis(t)
	bl := NewBlacklist(client, "oa")
	ctx := context.Background()

	guard, err := NewGuard(bl, fixedVersions{version: 5}, true, true)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	reason, err := guard.Check(ctx, "u1", "tok-1", 5)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if reason != ReasonNone {
		t.Fatalf("reason = %v, want none", reason)
	}

	if err := bl.Revoke(ctx, "tok-1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	reason, err = guard.Check(ctx, "u1", "tok-1", 5)
	if err != nil {
		t.Fatalf("check after revoke: %v", err)
	}
	if reason != ReasonBlacklist {
		t.Fatalf("reason = %v, want blacklist", reason)
	}
}

func TestGuardVersionReason(t *testing.T) {
	guard, err := NewGuard(nil, fixedVersions{version: 6}, false, true)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	reason, err := guard.Check(context.Background(), "u1", "tok-1", 5)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if reason != ReasonVersion {
		t.Fatalf("stale version should flag, got %v", reason)
	}

	revoked, err := guard.IsRevoked(context.Background(), "u1", "tok-1", 6)
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("matching version must not flag")
	}
}

func TestGuardErrorsAreNeverRevoked(t *testing.T) {
	wantErr := errors.New("store down")
	guard, err := NewGuard(nil, fixedVersions{err: wantErr}, false, true)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	reason, err := guard.Check(context.Background(), "u1", "tok-1", 5)
	if !errors.Is(err, wantErr) {
		t.Fatalf("check error = %v, want wrapped store error", err)
	}
	if reason != ReasonNone {
		t.Fatalf("errors must not report revoked, got %v", reason)
	}
}
