package originauth

import (
	"errors"
	"time"

	"github.com/originauth/originauth/identity"
	"github.com/originauth/originauth/jwt"
	"github.com/originauth/originauth/revocation"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use: Build consumes it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store CredentialStore
	sink  AuditSink
	now   func() time.Time

	built bool
}

// New returns a builder preloaded with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration with a deep copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the revocation blacklist.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore sets the durable user store. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithAuditSink sets the sink that receives audit events when auditing is
// enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics recorder.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histogram recording.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the engine's time source. Tests use this to pin token
// lifetimes; production builds leave it unset.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates configuration and dependencies and constructs the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if cfg.Revocation.EnableBlacklist && b.redis == nil {
		return nil, errors.New("blacklist revocation requires redis client")
	}

	codec, err := jwt.NewCodec(cfg.codecConfig())
	if err != nil {
		return nil, err
	}

	resolver, err := identity.NewResolver(b.store, cfg.Linking.Policy, cfg.Linking.DefaultRole)
	if err != nil {
		return nil, err
	}

	var blacklist *revocation.Blacklist
	if cfg.Revocation.EnableBlacklist {
		blacklist = revocation.NewBlacklist(b.redis, cfg.Revocation.RedisPrefix)
	}
	var versions revocation.VersionSource
	if cfg.Revocation.EnableVersionCheck {
		versions = storeVersionSource{store: b.store}
	}
	guard, err := revocation.NewGuard(blacklist, versions,
		cfg.Revocation.EnableBlacklist, cfg.Revocation.EnableVersionCheck)
	if err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:    cfg,
		codec:     codec,
		resolver:  resolver,
		guard:     guard,
		blacklist: blacklist,
		store:     b.store,
		audit:     newAuditDispatcher(cfg.Audit, b.sink),
		metrics:   NewMetrics(cfg.Metrics),
		now:       now,
	}

	b.built = true

	return engine, nil
}
