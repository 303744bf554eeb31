package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the signature scheme for the codec.
type SigningMethod string

const (
	// MethodEd25519 signs with a private key and verifies with a
	// distributable public key set. Required when independent services
	// verify tokens without sharing the signing secret.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 uses one shared secret for both paths. Acceptable for a
	// single-service deployment only.
	MethodHS256 SigningMethod = "hs256"
)

var (
	// ErrMalformed covers structurally invalid tokens and tokens declaring
	// a signing algorithm other than the configured one.
	ErrMalformed = errors.New("malformed token")
	// ErrBadSignature is returned when the signature does not verify.
	ErrBadSignature = errors.New("bad token signature")
	// ErrExpired is returned when now >= expiresAt.
	ErrExpired = errors.New("token expired")
	// ErrNotYetValid is returned for issued-in-future tokens when the iat
	// policy is enforced.
	ErrNotYetValid = errors.New("token not yet valid")
	// ErrInvalidClaims covers issuer/audience mismatches and claim sets
	// that fail structural validation.
	ErrInvalidClaims = errors.New("invalid token claims")
)

// ClaimSet is the decoded content of a session token. It exists only inside
// a signed token and, transiently, in verification-path memory; it is never
// persisted.
//
// OriginClaims keys are drawn from a fixed closed set per origin — the
// claim-set builder at the root enforces the whitelist before Sign is
// called.
type ClaimSet struct {
	UserID       string            `json:"uid"`
	Email        string            `json:"email,omitempty"`
	Role         string            `json:"role,omitempty"`
	Permissions  []string          `json:"perms,omitempty"`
	TokenVersion uint32            `json:"tv"`
	Origin       string            `json:"origin"`
	OriginClaims map[string]string `json:"oc,omitempty"`
	jwt.RegisteredClaims
}

// TokenID returns the jti claim, the blacklist key for single-token
// revocation.
func (c *ClaimSet) TokenID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

// Config holds the codec's key material and validation policy.
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration

	// KeyID, when set, is stamped into the token header so verifiers can
	// select the matching public key during rotation.
	KeyID string
	// VerifyKeys maps kid -> public key. Old keys stay in the map until
	// every token signed under them has expired.
	VerifyKeys map[string][]byte
}

// Codec signs claim sets into compact tokens and verifies incoming tokens
// back into claim sets. It is immutable after construction and safe for
// unlimited parallel use.
type Codec struct {
	config Config
}

// NewCodec validates the configuration and key material up front so that
// Sign and Verify never fail on configuration problems at request time.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key or verify key set")
		}
		for kid, key := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("invalid ed25519 verify key for kid %q: %w", kid, err)
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}

	return &Codec{config: cfg}, nil
}

// Sign serializes and signs the claim set. The claim set must already carry
// issuedAt, expiresAt, and a token id; Sign refuses inverted lifetimes
// rather than emitting a token that can never verify.
func (c *Codec) Sign(claims *ClaimSet) (string, error) {
	if claims == nil {
		return "", errors.New("nil claim set")
	}
	if claims.UserID == "" {
		return "", errors.New("claim set missing user id")
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return "", errors.New("claim set missing issuedAt or expiresAt")
	}
	if !claims.ExpiresAt.Time.After(claims.IssuedAt.Time) {
		return "", errors.New("claim set expiresAt must be after issuedAt")
	}

	token := jwt.NewWithClaims(c.method(), claims)
	if c.config.KeyID != "" {
		token.Header["kid"] = c.config.KeyID
	}

	signKey, err := c.signKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(signKey)
}

// Verify parses and signature-checks the token against the configured
// algorithm and key set, evaluating expiry against the supplied now. Errors
// are always one of the package sentinels (wrapped with detail).
func (c *Codec) Verify(tokenStr string, now time.Time) (*ClaimSet, error) {
	options := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	if c.config.Audience != "" {
		options = append(options, jwt.WithAudience(c.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &ClaimSet{}, c.keyFunc)
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*ClaimSet)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: claim decode", ErrInvalidClaims)
	}
	if claims.IssuedAt != nil && c.config.MaxFutureIAT > 0 {
		if claims.IssuedAt.Time.After(now.Add(c.config.MaxFutureIAT)) {
			return nil, fmt.Errorf("%w: issuedAt too far in the future", ErrNotYetValid)
		}
	}
	return claims, nil
}

// Remaining returns the lifetime left on the claim set at now, clamped at
// zero. It is the TTL for a blacklist entry written on revocation.
func (c *Codec) Remaining(claims *ClaimSet, now time.Time) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	d := claims.ExpiresAt.Time.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	// The algorithm check lives here rather than in WithValidMethods so a
	// token declaring a foreign algorithm classifies as malformed, not as a
	// signature failure.
	if t.Method.Alg() != c.method().Alg() {
		return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrMalformed, t.Method.Alg())
	}

	if len(c.config.VerifyKeys) > 0 {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid", ErrMalformed)
		}
		key, ok := c.config.VerifyKeys[kid]
		if !ok {
			return nil, fmt.Errorf("%w: unknown kid", ErrMalformed)
		}
		return c.verifyKeyBytes(key)
	}

	if c.config.KeyID != "" {
		kid, _ := t.Header["kid"].(string)
		if kid != c.config.KeyID {
			return nil, fmt.Errorf("%w: unknown kid", ErrMalformed)
		}
	}

	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		return parseEdPublicKey(c.config.PublicKey)
	}
}

// classify folds golang-jwt's error tree into the package sentinels. Order
// matters: a tampered signature must surface as ErrBadSignature, never as
// ErrMalformed.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (c *Codec) signKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(c.config.PrivateKey)
	}
}

func (c *Codec) verifyKeyBytes(key []byte) (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return key, nil
	default:
		return parseEdPublicKey(key)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
