package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/standardizer"
)

// Loader reads the configuration with viper and keeps the last valid
// version. Environment variables prefixed HARMONIZER_ override the file,
// e.g. HARMONIZER_POLICY_PADDING_STRATEGY.
type Loader struct {
	v      *viper.Viper
	logger logging.Logger

	mu      sync.RWMutex
	current *Config
}

// NewLoader loads path, or harmonizer.yaml from the working directory or
// $HOME/.config/harmonizer when path is empty. A missing file is only an
// error when path was given explicitly.
func NewLoader(path string, logger logging.Logger) (*Loader, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/harmonizer")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, "read config: "+err.Error())
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	l := &Loader{v: v, logger: logging.OrNop(logger), current: cfg}
	l.logger.Infow("Configuration loaded",
		"file", v.ConfigFileUsed(),
		"target_dimension", cfg.Policy.TargetDimension,
		"padding_strategy", cfg.Policy.PaddingStrategy,
		"persistence", cfg.Persistence.Backend,
		"sink", cfg.Sink.Backend)
	return l, nil
}

// Load is NewLoader without a logger, for one-shot commands.
func Load(path string) (*Config, error) {
	l, err := NewLoader(path, nil)
	if err != nil {
		return nil, err
	}
	return l.Config(), nil
}

// Config returns the last valid configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// File returns the config file in use, or "" when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the file whenever it changes and calls onChange with the
// previous and the new configuration. An invalid edit is logged and the
// previous configuration stays in effect. Without a config file Watch does
// nothing.
func (l *Loader) Watch(onChange func(prev, next *Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(l.v)
		if err != nil {
			l.logger.Warnw("Ignoring invalid configuration change", "file", e.Name, "op", e.Op.String(), "error", err)
			return
		}

		l.mu.Lock()
		prev := l.current
		l.current = next
		l.mu.Unlock()

		l.logger.Infow("Configuration reloaded", "file", e.Name)
		if onChange != nil {
			onChange(prev, next)
		}
	})
	l.v.WatchConfig()
}

// PolicySetter is the part of the standardizer a reload touches.
type PolicySetter interface {
	SetPolicy(p standardizer.Policy) error
}

// ReloadPolicy returns a Watch callback that applies a changed padding
// strategy. A changed target dimension is refused by the setter and logged;
// it requires a restart.
func ReloadPolicy(setter PolicySetter, logger logging.Logger) func(prev, next *Config) {
	logger = logging.OrNop(logger)
	return func(prev, next *Config) {
		if prev.Policy == next.Policy {
			return
		}
		policy, err := next.StandardizerPolicy()
		if err == nil {
			err = setter.SetPolicy(policy)
		}
		if err != nil {
			logger.Errorw("Standardization policy not reloaded",
				"target_dimension", next.Policy.TargetDimension,
				"padding_strategy", next.Policy.PaddingStrategy,
				"error", err)
			return
		}
		logger.Infow("Standardization policy reloaded",
			"from", prev.Policy.PaddingStrategy,
			"to", next.Policy.PaddingStrategy)
	}
}
