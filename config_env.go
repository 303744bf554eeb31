package originauth

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is the flat environment surface mapped onto [Config]. Key
// material is accepted either inline (base64 or PEM) or as file paths so
// the rotation procedure can swap files without re-exporting variables.
type envConfig struct {
	SigningMethod  string        `env:"ORIGINAUTH_SIGNING_METHOD" envDefault:"ed25519"`
	TTL            time.Duration `env:"ORIGINAUTH_TOKEN_TTL" envDefault:"15m"`
	Issuer         string        `env:"ORIGINAUTH_ISSUER"`
	Audience       string        `env:"ORIGINAUTH_AUDIENCE"`
	Leeway         time.Duration `env:"ORIGINAUTH_LEEWAY" envDefault:"0"`
	PrivateKey     string        `env:"ORIGINAUTH_PRIVATE_KEY"`
	PrivateKeyFile string        `env:"ORIGINAUTH_PRIVATE_KEY_FILE"`
	PublicKey      string        `env:"ORIGINAUTH_PUBLIC_KEY"`
	PublicKeyFile  string        `env:"ORIGINAUTH_PUBLIC_KEY_FILE"`
	KeyID          string        `env:"ORIGINAUTH_KEY_ID"`

	LinkPolicy  string `env:"ORIGINAUTH_LINK_POLICY" envDefault:"auto-link-by-email"`
	DefaultRole string `env:"ORIGINAUTH_DEFAULT_ROLE" envDefault:"user"`

	RedisPrefix        string `env:"ORIGINAUTH_REDIS_PREFIX" envDefault:"oa"`
	EnableBlacklist    bool   `env:"ORIGINAUTH_ENABLE_BLACKLIST" envDefault:"true"`
	EnableVersionCheck bool   `env:"ORIGINAUTH_ENABLE_VERSION_CHECK" envDefault:"true"`

	AuditEnabled   bool `env:"ORIGINAUTH_AUDIT_ENABLED" envDefault:"false"`
	MetricsEnabled bool `env:"ORIGINAUTH_METRICS_ENABLED" envDefault:"false"`
}

// ConfigFromEnv builds a [Config] from ORIGINAUTH_* environment variables,
// starting from the same defaults as [New].
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg := defaultConfig()
	cfg.Token.SigningMethod = ec.SigningMethod
	cfg.Token.TTL = ec.TTL
	cfg.Token.Issuer = ec.Issuer
	cfg.Token.Audience = ec.Audience
	cfg.Token.Leeway = ec.Leeway
	cfg.Token.KeyID = ec.KeyID
	cfg.Linking.DefaultRole = ec.DefaultRole
	cfg.Revocation.RedisPrefix = ec.RedisPrefix
	cfg.Revocation.EnableBlacklist = ec.EnableBlacklist
	cfg.Revocation.EnableVersionCheck = ec.EnableVersionCheck
	cfg.Audit.Enabled = ec.AuditEnabled
	cfg.Metrics.Enabled = ec.MetricsEnabled

	switch ec.LinkPolicy {
	case "auto-link-by-email":
		cfg.Linking.Policy = LinkByEmail
	case "never-link":
		cfg.Linking.Policy = LinkNever
	default:
		return Config{}, fmt.Errorf("unknown link policy %q", ec.LinkPolicy)
	}

	var err error
	if cfg.Token.PrivateKey, err = keyMaterial(ec.PrivateKey, ec.PrivateKeyFile); err != nil {
		return Config{}, fmt.Errorf("private key: %w", err)
	}
	if cfg.Token.PublicKey, err = keyMaterial(ec.PublicKey, ec.PublicKeyFile); err != nil {
		return Config{}, fmt.Errorf("public key: %w", err)
	}

	return cfg, nil
}

// keyMaterial resolves inline-vs-file key sources. Inline values are
// treated as PEM when they look like it and base64 otherwise.
func keyMaterial(inline, file string) ([]byte, error) {
	if inline != "" && file != "" {
		return nil, fmt.Errorf("inline value and file path are mutually exclusive")
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	if inline == "" {
		return nil, nil
	}
	if len(inline) > 10 && inline[:10] == "-----BEGIN" {
		return []byte(inline), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(inline)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return decoded, nil
}
