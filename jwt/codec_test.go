package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newTestCodec(t *testing.T, mutate func(*Config)) *Codec {
	t.Helper()
	pub, priv := newEdKeys(t)
	cfg := Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	codec, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}

func testClaims(now time.Time, ttl time.Duration) *ClaimSet {
	return &ClaimSet{
		UserID:       "u1",
		Email:        "alice@example.com",
		Role:         "user",
		Permissions:  []string{"posts.read"},
		TokenVersion: 3,
		Origin:       "google",
		OriginClaims: map[string]string{"googleId": "g-123", "picture": "https://p.example/a.png"},
		RegisteredClaims: gjwt.RegisteredClaims{
			ID:        "tok-1",
			IssuedAt:  gjwt.NewNumericDate(now),
			ExpiresAt: gjwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t, nil)
	now := time.Unix(1_700_000_000, 0)

	token, err := codec.Sign(testClaims(now, time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := codec.Verify(token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.UserID != "u1" || got.Email != "alice@example.com" || got.Role != "user" {
		t.Fatalf("identity claims mangled: %+v", got)
	}
	if got.TokenVersion != 3 {
		t.Fatalf("token version = %d, want 3", got.TokenVersion)
	}
	if got.Origin != "google" {
		t.Fatalf("origin = %q, want google", got.Origin)
	}
	if got.TokenID() != "tok-1" {
		t.Fatalf("token id = %q, want tok-1", got.TokenID())
	}
	if len(got.Permissions) != 1 || got.Permissions[0] != "posts.read" {
		t.Fatalf("permissions mangled: %v", got.Permissions)
	}
	if got.OriginClaims["googleId"] != "g-123" || got.OriginClaims["picture"] != "https://p.example/a.png" {
		t.Fatalf("origin claims mangled: %v", got.OriginClaims)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	codec := newTestCodec(t, nil)
	t0 := time.Unix(1_700_000_000, 0)

	token, err := codec.Sign(testClaims(t0, 3600*time.Second))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Verify(token, t0.Add(3599*time.Second)); err != nil {
		t.Fatalf("t0+3599s should verify: %v", err)
	}
	if _, err := codec.Verify(token, t0.Add(3600*time.Second)); !errors.Is(err, ErrExpired) {
		t.Fatalf("now == exp should be expired, got %v", err)
	}
	if _, err := codec.Verify(token, t0.Add(3601*time.Second)); !errors.Is(err, ErrExpired) {
		t.Fatalf("t0+3601s should be expired, got %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	codec := newTestCodec(t, nil)
	now := time.Unix(1_700_000_000, 0)

	token, err := codec.Sign(testClaims(now, time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := codec.Verify(tampered, now); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("tampered signature should be ErrBadSignature, got %v", err)
	}
}

func TestVerifyMalformedInputs(t *testing.T) {
	codec := newTestCodec(t, nil)
	now := time.Unix(1_700_000_000, 0)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := codec.Verify(raw, now); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Verify(%q) = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestVerifyRejectsAlgorithmConfusion(t *testing.T) {
	codec := newTestCodec(t, nil)
	now := time.Unix(1_700_000_000, 0)

	// Token signed with HS256 against an ed25519 verifier.
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, testClaims(now, time.Hour))
	token, err := tok.SignedString([]byte("shared-secret-shared-secret-1234"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}

	if _, err := codec.Verify(token, now); !errors.Is(err, ErrMalformed) {
		t.Fatalf("foreign algorithm should be ErrMalformed, got %v", err)
	}
}

func TestVerifyIssuerAudience(t *testing.T) {
	codec := newTestCodec(t, func(cfg *Config) {
		cfg.Issuer = "originauth"
		cfg.Audience = "api"
	})
	now := time.Unix(1_700_000_000, 0)

	claims := testClaims(now, time.Hour)
	claims.Issuer = "originauth"
	claims.Audience = gjwt.ClaimStrings{"api"}
	token, err := codec.Sign(claims)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := codec.Verify(token, now); err != nil {
		t.Fatalf("matching issuer/audience should verify: %v", err)
	}

	wrong := testClaims(now, time.Hour)
	wrong.Issuer = "someone-else"
	wrong.Audience = gjwt.ClaimStrings{"api"}
	badToken, err := codec.Sign(wrong)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := codec.Verify(badToken, now); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("wrong issuer should be ErrInvalidClaims, got %v", err)
	}
}

func TestVerifyMaxFutureIAT(t *testing.T) {
	codec := newTestCodec(t, func(cfg *Config) {
		cfg.MaxFutureIAT = 10 * time.Minute
	})
	now := time.Unix(1_700_000_000, 0)

	future := testClaims(now.Add(time.Hour), time.Hour)
	token, err := codec.Sign(future)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Verify(token, now); !errors.Is(err, ErrNotYetValid) {
		t.Fatalf("issued an hour in the future should be ErrNotYetValid, got %v", err)
	}
}

func TestVerifyKeyRotation(t *testing.T) {
	oldPub, oldPriv := newEdKeys(t)
	newPub, newPriv := newEdKeys(t)

	oldCodec, err := NewCodec(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    oldPriv,
		KeyID:         "2025-01",
		VerifyKeys:    map[string][]byte{"2025-01": oldPub},
	})
	if err != nil {
		t.Fatalf("old codec: %v", err)
	}

	rotated, err := NewCodec(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    newPriv,
		KeyID:         "2025-07",
		VerifyKeys: map[string][]byte{
			"2025-01": oldPub,
			"2025-07": newPub,
		},
	})
	if err != nil {
		t.Fatalf("rotated codec: %v", err)
	}

	now := time.Unix(1_700_000_000, 0)
	oldToken, err := oldCodec.Sign(testClaims(now, time.Hour))
	if err != nil {
		t.Fatalf("sign with old key: %v", err)
	}
	newToken, err := rotated.Sign(testClaims(now, time.Hour))
	if err != nil {
		t.Fatalf("sign with new key: %v", err)
	}

	if _, err := rotated.Verify(oldToken, now); err != nil {
		t.Fatalf("rotated codec should still accept old-kid tokens: %v", err)
	}
	if _, err := rotated.Verify(newToken, now); err != nil {
		t.Fatalf("rotated codec should accept its own tokens: %v", err)
	}

	// A token with no kid at all fails against a verify key set.
	bare, err := NewCodec(Config{SigningMethod: MethodEd25519, PrivateKey: oldPriv, PublicKey: oldPub})
	if err != nil {
		t.Fatalf("bare codec: %v", err)
	}
	noKid, err := bare.Sign(testClaims(now, time.Hour))
	if err != nil {
		t.Fatalf("sign without kid: %v", err)
	}
	if _, err := rotated.Verify(noKid, now); !errors.Is(err, ErrMalformed) {
		t.Fatalf("kid-less token should be ErrMalformed against key set, got %v", err)
	}
}

func TestHS256RoundTrip(t *testing.T) {
	codec, err := NewCodec(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("shared-secret-shared-secret-1234"),
	})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	now := time.Unix(1_700_000_000, 0)

	token, err := codec.Sign(testClaims(now, time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := codec.Verify(token, now); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestSignRejectsInvertedLifetime(t *testing.T) {
	codec := newTestCodec(t, nil)
	now := time.Unix(1_700_000_000, 0)

	claims := testClaims(now, time.Hour)
	claims.ExpiresAt = gjwt.NewNumericDate(now.Add(-time.Minute))
	if _, err := codec.Sign(claims); err == nil {
		t.Fatal("expected inverted lifetime to be rejected")
	}
}

func TestNewCodecValidation(t *testing.T) {
	pub, priv := newEdKeys(t)

	cases := []struct {
		name string
		cfg  Config
	}{
		{"unsupported method", Config{SigningMethod: "rs256", PrivateKey: priv}},
		{"excessive leeway", Config{SigningMethod: MethodEd25519, PublicKey: pub, Leeway: 3 * time.Minute}},
		{"hs256 without secret", Config{SigningMethod: MethodHS256}},
		{"ed25519 without keys", Config{SigningMethod: MethodEd25519}},
		{"kid missing from verify set", Config{
			SigningMethod: MethodEd25519,
			PrivateKey:    priv,
			KeyID:         "absent",
			VerifyKeys:    map[string][]byte{"present": pub},
		}},
	}
	for _, tc := range cases {
		if _, err := NewCodec(tc.cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestRemaining(t *testing.T) {
	codec := newTestCodec(t, nil)
	now := time.Unix(1_700_000_000, 0)
	claims := testClaims(now, time.Hour)

	if got := codec.Remaining(claims, now.Add(30*time.Minute)); got != 30*time.Minute {
		t.Fatalf("remaining = %v, want 30m", got)
	}
	if got := codec.Remaining(claims, now.Add(2*time.Hour)); got != 0 {
		t.Fatalf("remaining after expiry = %v, want 0", got)
	}
}
