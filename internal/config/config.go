package config

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Scheme string `koanf:"scheme" default:"http"`
	Port   int    `koanf:"port" default:"8082" validate:"min=1,max=65535"`
	Host   string `koanf:"host" default:"localhost"`

	ReadTimeout     time.Duration `koanf:"read_timeout" default:"5s"`
	WriteTimeout    time.Duration `koanf:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" default:"30s"`

	AllowOrigins []string `koanf:"alloworigins" default:"[]"`
	HealthCheck  bool     `koanf:"health_check" default:"true"`
}

func (s *ServerConfig) GetServerURL() string {
	return s.Scheme + "://" + s.Host + ":" + strconv.Itoa(s.Port)
}

type StorageConfig struct {
	Backend     string `koanf:"backend" default:"badger" validate:"oneof=badger sqlite redis"`
	BadgerPath  string `koanf:"badger_path" default:"./data/badger"`
	InMemory    bool   `koanf:"in_memory" default:"false"`
	SQLitePath  string `koanf:"sqlite_path" default:"./data/entrylist.db"`
	RedisAddr   string `koanf:"redis_addr" default:"localhost:6379"`
	RedisDB     int    `koanf:"redis_db" default:"0"`
	RedisPrefix string `koanf:"redis_prefix" default:"entrylist:"`
	UseBloom    bool   `koanf:"use_bloom" default:"true"`
}

type APPConfig struct {
	Environtment string        `koanf:"environtment" default:"development"`
	LogLevel     zerolog.Level `koanf:"log_level" default:"debug"`
}

type EngineConfig struct {
	PollInterval       time.Duration `koanf:"poll_interval" default:"1s"`
	MinInterval        time.Duration `koanf:"min_interval" default:"100ms"`
	LoadListsAtStartup bool          `koanf:"load_lists_at_startup" default:"true"`
	SkipUnidentified   bool          `koanf:"skip_unidentified" default:"false"`
}

type RefreshConfig struct {
	Concurrency    int           `koanf:"concurrency" default:"4" validate:"min=1"`
	Timeout        time.Duration `koanf:"timeout" default:"30s"`
	RetryCount     int           `koanf:"retry_count" default:"2" validate:"min=0"`
	StoreResponses bool          `koanf:"store_responses" default:"false"`
	StorePath      string        `koanf:"store_path" default:"./responses"`
	MaxAge         time.Duration `koanf:"max_age" default:"24h"`

	// Schedules maps a site to a six-field cron schedule for `serve`.
	Schedules map[string]string `koanf:"schedules"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled" default:"false"`
	Endpoint    string `koanf:"endpoint" default:"localhost:4317"`
	ServiceName string `koanf:"service_name" default:"entrylist"`

	ExecTrace      bool   `koanf:"exec_trace" default:"false"`
	ExecTraceScope string `koanf:"exec_trace_scope"` // empty traces every refresh
	ExecTraceDir   string `koanf:"exec_trace_dir" default:"./traces"`
}

type CollyConfig struct {
	MaxRedirects int           `koanf:"max_redirects" default:"10"`
	MaxSize      int           `koanf:"max_size" default:"10485760"`
	UserAgent    string        `koanf:"user_agent" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	TimeOut      time.Duration `koanf:"timeout" default:"1m"`
}

type SitesConfig struct {
	EnabledSites  []string          `koanf:"enabled_sites"` // empty means every registered site
	PollIntervals map[string]string `koanf:"poll_intervals"`
}

type Config struct {
	APP       APPConfig
	Server    ServerConfig
	Storage   StorageConfig
	Engine    EngineConfig
	Refresh   RefreshConfig
	Colly     CollyConfig
	Sites     SitesConfig
	Telemetry TelemetryConfig
}
