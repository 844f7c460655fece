package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"embedding-harmonizer/internal/app/discovery"
	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/persistence"
	"embedding-harmonizer/internal/app/standardizer"
	"embedding-harmonizer/internal/app/storage/vector"
)

// Config is the complete harmonizer configuration.
type Config struct {
	Policy      PolicyConfig      `mapstructure:"policy"`
	Discovery   DiscoveryConfig   `mapstructure:"discovery"`
	Endpoints   EndpointsConfig   `mapstructure:"endpoints"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Sink        SinkConfig        `mapstructure:"sink"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
}

// PolicyConfig is the standardization policy. Only the padding strategy may
// change while the process runs.
type PolicyConfig struct {
	TargetDimension int    `mapstructure:"target_dimension" validate:"min=1,max=65536"`
	PaddingStrategy string `mapstructure:"padding_strategy" validate:"oneof=zeros repeat random"`
}

// DiscoveryConfig tunes discovery cycles and their schedule.
type DiscoveryConfig struct {
	Interval            string        `mapstructure:"interval"`
	ProbeTimeout        time.Duration `mapstructure:"probe_timeout"`
	CycleTimeout        time.Duration `mapstructure:"cycle_timeout"`
	MaxConcurrentProbes int           `mapstructure:"max_concurrent_probes"`
	SampleText          string        `mapstructure:"sample_text" validate:"required"`
	Providers           []string      `mapstructure:"providers" validate:"min=1,dive,oneof=openai gemini ollama mock"`
	RunOnStart          bool          `mapstructure:"run_on_start"`
}

// EndpointsConfig overrides provider endpoints.
type EndpointsConfig struct {
	OpenAIBaseURL string `mapstructure:"openai_base_url" validate:"omitempty,url"`
	GeminiBaseURL string `mapstructure:"gemini_base_url" validate:"omitempty,url"`
	OllamaURL     string `mapstructure:"ollama_url" validate:"omitempty,url"`
}

// PersistenceConfig selects the snapshot store.
type PersistenceConfig struct {
	Backend     string      `mapstructure:"backend" validate:"oneof=file sqlite postgres minio redis"`
	Retention   int         `mapstructure:"retention"`
	Dir         string      `mapstructure:"dir" validate:"required_if=Backend file"`
	SQLitePath  string      `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
	PostgresDSN string      `mapstructure:"postgres_dsn" validate:"required_if=Backend postgres"`
	Minio       MinioConfig `mapstructure:"minio"`
	Redis       RedisConfig `mapstructure:"redis"`
}

// MinioConfig configures the object-store backend.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"min=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SinkConfig selects the vector store harmonized embeddings go to.
type SinkConfig struct {
	Backend     string       `mapstructure:"backend" validate:"oneof=memory pgvector qdrant"`
	PostgresDSN string       `mapstructure:"postgres_dsn" validate:"required_if=Backend pgvector"`
	Table       string       `mapstructure:"table"`
	Metric      string       `mapstructure:"metric" validate:"oneof=cosine euclidean l2"`
	Qdrant      QdrantConfig `mapstructure:"qdrant"`
}

// QdrantConfig configures the Qdrant sink.
type QdrantConfig struct {
	Addr       string `mapstructure:"addr"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"api_key"`
}

// LogConfig configures zap.
type LogConfig struct {
	Development bool `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("policy.target_dimension", DefaultTargetDimension)
	v.SetDefault("policy.padding_strategy", DefaultPaddingStrategy)

	v.SetDefault("discovery.interval", DefaultDiscoveryInterval)
	v.SetDefault("discovery.probe_timeout", DefaultProbeTimeout)
	v.SetDefault("discovery.cycle_timeout", DefaultCycleTimeout)
	v.SetDefault("discovery.max_concurrent_probes", DefaultMaxConcurrentProbes)
	v.SetDefault("discovery.sample_text", DefaultSampleText)
	v.SetDefault("discovery.providers", []string{"openai", "gemini", "ollama"})
	v.SetDefault("discovery.run_on_start", false)

	v.SetDefault("endpoints.openai_base_url", "")
	v.SetDefault("endpoints.gemini_base_url", "")
	v.SetDefault("endpoints.ollama_url", "")

	v.SetDefault("persistence.backend", DefaultPersistenceBackend)
	v.SetDefault("persistence.retention", persistence.DefaultRetention)
	v.SetDefault("persistence.dir", DefaultPersistenceDir)
	v.SetDefault("persistence.sqlite_path", DefaultSQLitePath)
	v.SetDefault("persistence.postgres_dsn", "")
	v.SetDefault("persistence.minio.endpoint", "")
	v.SetDefault("persistence.minio.access_key", "")
	v.SetDefault("persistence.minio.secret_key", "")
	v.SetDefault("persistence.minio.bucket", DefaultMinioBucket)
	v.SetDefault("persistence.minio.prefix", "registry")
	v.SetDefault("persistence.minio.use_ssl", false)
	v.SetDefault("persistence.redis.addr", "")
	v.SetDefault("persistence.redis.password", "")
	v.SetDefault("persistence.redis.db", 0)
	v.SetDefault("persistence.redis.key_prefix", persistence.DefaultRedisPrefix)

	v.SetDefault("sink.backend", DefaultSinkBackend)
	v.SetDefault("sink.postgres_dsn", "")
	v.SetDefault("sink.table", vector.DefaultTable)
	v.SetDefault("sink.metric", vector.MetricCosine)
	v.SetDefault("sink.qdrant.addr", vector.DefaultQdrantAddr)
	v.SetDefault("sink.qdrant.collection", "harmonized")
	v.SetDefault("sink.qdrant.api_key", "")

	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultHTTPPort)
	v.SetDefault("server.environment", DefaultEnvironment)

	v.SetDefault("log.development", false)
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Policy.PaddingStrategy = strings.ToLower(strings.TrimSpace(c.Policy.PaddingStrategy))
	c.Persistence.Backend = strings.ToLower(strings.TrimSpace(c.Persistence.Backend))
	c.Sink.Backend = strings.ToLower(strings.TrimSpace(c.Sink.Backend))
	c.Sink.Metric = strings.ToLower(strings.TrimSpace(c.Sink.Metric))
	c.Server.Environment = strings.ToLower(strings.TrimSpace(c.Server.Environment))
	providers := c.Discovery.Providers[:0]
	for _, p := range c.Discovery.Providers {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			providers = append(providers, p)
		}
	}
	c.Discovery.Providers = providers
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules tags cannot express.
// Every failure wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, describeValidation(err))
	}

	var errs []error
	if err := ValidateTimeout(c.Discovery.ProbeTimeout, "discovery.probe"); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateTimeout(c.Discovery.CycleTimeout, "discovery.cycle"); err != nil {
		errs = append(errs, err)
	}
	if c.Discovery.ProbeTimeout > c.Discovery.CycleTimeout {
		errs = append(errs, fmt.Errorf("discovery.probe_timeout exceeds discovery.cycle_timeout"))
	}
	if err := ValidateConcurrency(c.Discovery.MaxConcurrentProbes, "discovery.max_concurrent_probes"); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := discovery.ScheduleSpec(c.Discovery.Interval); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateRetention(c.Persistence.Retention, "persistence"); err != nil {
		errs = append(errs, err)
	}
	switch c.Persistence.Backend {
	case persistence.BackendMinio:
		if c.Persistence.Minio.Endpoint == "" {
			errs = append(errs, apperrors.RequiredField("persistence.minio.endpoint"))
		}
		if c.Persistence.Minio.Bucket == "" {
			errs = append(errs, apperrors.RequiredField("persistence.minio.bucket"))
		}
	case persistence.BackendRedis:
		if c.Persistence.Redis.Addr == "" {
			errs = append(errs, apperrors.RequiredField("persistence.redis.addr"))
		}
	}
	if c.Sink.Backend == vector.BackendQdrant && c.Sink.Qdrant.Collection == "" {
		errs = append(errs, apperrors.RequiredField("sink.qdrant.collection"))
	}
	if c.Sink.Backend != vector.BackendMemory && c.Sink.Metric != vector.MetricCosine {
		errs = append(errs, fmt.Errorf("sink.metric %s is only supported by the memory sink", c.Sink.Metric))
	}

	if len(errs) > 0 {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, errors.Join(errs...).Error())
	}
	return nil
}

// describeValidation renders validator errors with the config key names.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := configKey(fe.Namespace())
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value())))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s is out of range (%s %s)", field, fe.Tag(), fe.Param()))
		case "url":
			msgs = append(msgs, field+" must be a URL")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// configKey turns "Config.Policy.TargetDimension" into "policy.targetdimension".
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

// StandardizerPolicy builds the validated standardization policy.
func (c *Config) StandardizerPolicy() (standardizer.Policy, error) {
	strategy, err := standardizer.ParsePaddingStrategy(c.Policy.PaddingStrategy)
	if err != nil {
		return standardizer.Policy{}, err
	}
	return standardizer.NewPolicy(c.Policy.TargetDimension, strategy)
}

// DiscoveryService returns the discovery cycle settings.
func (c *Config) DiscoveryService() discovery.Config {
	return discovery.Config{
		ProbeTimeout:        c.Discovery.ProbeTimeout,
		CycleTimeout:        c.Discovery.CycleTimeout,
		MaxConcurrentProbes: c.Discovery.MaxConcurrentProbes,
		SampleText:          c.Discovery.SampleText,
	}
}

// Store returns the persistence backend settings.
func (c *Config) Store() persistence.Config {
	p := c.Persistence
	return persistence.Config{
		Backend:     p.Backend,
		Retention:   p.Retention,
		Dir:         p.Dir,
		SQLitePath:  p.SQLitePath,
		PostgresDSN: p.PostgresDSN,
		Minio: persistence.MinioConfig{
			Endpoint:  p.Minio.Endpoint,
			AccessKey: p.Minio.AccessKey,
			SecretKey: p.Minio.SecretKey,
			Bucket:    p.Minio.Bucket,
			Prefix:    p.Minio.Prefix,
			UseSSL:    p.Minio.UseSSL,
		},
		Redis: persistence.RedisConfig{
			Addr:      p.Redis.Addr,
			Password:  p.Redis.Password,
			DB:        p.Redis.DB,
			KeyPrefix: p.Redis.KeyPrefix,
		},
	}
}

// VectorSink returns the sink settings.
func (c *Config) VectorSink() vector.Config {
	return vector.Config{
		Backend:     c.Sink.Backend,
		PostgresDSN: c.Sink.PostgresDSN,
		Table:       c.Sink.Table,
		Metric:      c.Sink.Metric,
		Qdrant: vector.QdrantConfig{
			Addr:       c.Sink.Qdrant.Addr,
			Collection: c.Sink.Qdrant.Collection,
			APIKey:     c.Sink.Qdrant.APIKey,
		},
	}
}
