package originauth

import (
	"errors"
	"time"

	"github.com/originauth/originauth/jwt"
)

// Config defines the engine's full configuration surface.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	Token      TokenConfig
	Linking    LinkingConfig
	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig holds signing material and token validation policy.
//
// The signing scheme is an explicit deployment choice: ed25519 when
// independent services verify tokens without sharing the signing secret,
// hs256 for a single-service deployment. It is never inferred.
type TokenConfig struct {
	TTL           time.Duration
	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration

	// KeyID and VerifyKeys support rotation: the current kid is stamped
	// into new tokens while old public keys stay in VerifyKeys until every
	// token signed under them has expired.
	KeyID      string
	VerifyKeys map[string][]byte
}

/*
====================================
LINKING CONFIG
====================================
*/

// LinkingConfig controls identity resolution.
type LinkingConfig struct {
	Policy      LinkPolicy
	DefaultRole string
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig selects the revocation mechanisms. Both default on;
// disabling one is a product decision with documented tradeoffs (see the
// revocation package).
type RevocationConfig struct {
	RedisPrefix        string
	EnableBlacklist    bool
	EnableVersionCheck bool
}

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the engine defaults: 15-minute ed25519 tokens,
// auto-link-by-email, both revocation mechanisms enabled, audit and metrics
// off. Key material must still be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL:           15 * time.Minute,
			SigningMethod: "ed25519",
			MaxFutureIAT:  10 * time.Minute,
		},
		Linking: LinkingConfig{
			Policy:      LinkByEmail,
			DefaultRole: "user",
		},
		Revocation: RevocationConfig{
			RedisPrefix:        "oa",
			EnableBlacklist:    true,
			EnableVersionCheck: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = append([]byte(nil), cfg.Token.PrivateKey...)
	out.Token.PublicKey = append([]byte(nil), cfg.Token.PublicKey...)
	if cfg.Token.VerifyKeys != nil {
		out.Token.VerifyKeys = make(map[string][]byte, len(cfg.Token.VerifyKeys))
		for kid, key := range cfg.Token.VerifyKeys {
			out.Token.VerifyKeys[kid] = append([]byte(nil), key...)
		}
	}
	return out
}

// Validate checks cross-field consistency. Key-material validation is
// delegated to the jwt codec at Build time.
func (c *Config) Validate() error {
	if c.Token.TTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	switch jwt.SigningMethod(c.Token.SigningMethod) {
	case jwt.MethodEd25519, jwt.MethodHS256:
	default:
		return errors.New("unsupported signing method")
	}
	if !c.Linking.Policy.Valid() {
		return errors.New("invalid linking policy")
	}
	if c.Linking.DefaultRole == "" {
		return errors.New("default role must not be empty")
	}
	if !c.Revocation.EnableBlacklist && !c.Revocation.EnableVersionCheck {
		return errors.New("at least one revocation mechanism must be enabled")
	}
	if c.Revocation.EnableBlacklist && c.Revocation.RedisPrefix == "" {
		return errors.New("revocation redis prefix must not be empty")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}
	return nil
}

func (c *Config) codecConfig() jwt.Config {
	return jwt.Config{
		SigningMethod: jwt.SigningMethod(c.Token.SigningMethod),
		PrivateKey:    c.Token.PrivateKey,
		PublicKey:     c.Token.PublicKey,
		Issuer:        c.Token.Issuer,
		Audience:      c.Token.Audience,
		Leeway:        c.Token.Leeway,
		RequireIAT:    c.Token.RequireIAT,
		MaxFutureIAT:  c.Token.MaxFutureIAT,
		KeyID:         c.Token.KeyID,
		VerifyKeys:    c.Token.VerifyKeys,
	}
}
