package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrConfigInvalid = errors.New("config is invalid")
)

var (
	_k      *koanf.Koanf
	_config *Config
	once    sync.Once
)

func GetConfig() *Config {
	if _config == nil {
		log.Info().Msg("config is nil trying to init")
		if err := InitConfig(); err != nil {
			log.Error().Msgf("error initializing config: %v", err)
		}
	}

	return _config
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// InitConfig loads the toml file named by CONFIG_FILE, then .env, on top of the
// struct defaults. It runs once per process.
func InitConfig() error {
	var err error
	once.Do(func() {
		_k = koanf.New(".")
		cfg := &Config{}

		configFile := GetEnv("CONFIG_FILE", ".env.toml")
		if loadErr := _k.Load(file.Provider(configFile), toml.Parser()); loadErr != nil {
			log.Debug().Err(loadErr).Str("file", configFile).Msg("config file not loaded, using defaults")
		}

		_ = _k.Load(file.Provider(".env"), dotenv.Parser())

		if err = defaults.Set(cfg); err != nil {
			return
		}

		if err = _k.Unmarshal("", cfg); err != nil {
			return
		}

		if err = Validate(cfg); err != nil {
			return
		}

		_config = cfg
		log.Trace().Msgf("k: %+v", _config)

		zerolog.SetGlobalLevel(_config.APP.LogLevel)
	})

	return err
}

// Validate checks the validate tags of every section.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return nil
}

// Default returns a config holding only the struct defaults.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		log.Error().Err(err).Msg("failed to apply config defaults")
	}
	return cfg
}

func IsDevMode() bool {
	if _config == nil {
		return true
	}

	return (_config.APP.Environtment == "development")
}

// IsSiteEnabled reports whether the site is enabled.
// An empty list enables every site.
func (c *SitesConfig) IsSiteEnabled(name string) bool {
	if len(c.EnabledSites) == 0 {
		return true
	}

	return slices.Contains(c.EnabledSites, name)
}

// PollInterval returns the configured interval override for a site.
func (c *SitesConfig) PollInterval(name string) (time.Duration, bool) {
	raw, ok := c.PollIntervals[name]
	if !ok {
		return 0, false
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Err(err).Str("site", name).Str("value", raw).Msg("invalid poll interval, ignoring")
		return 0, false
	}

	return d, true
}
