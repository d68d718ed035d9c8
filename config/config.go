package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"generalize-service/generalize"
)

// Config of the generalize service and CLI.
type Config struct {
	HTTP    ListenConfig  `yaml:"http"`
	GRPC    ListenConfig  `yaml:"grpc"`
	Request RequestConfig `yaml:"request"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
}

type ListenConfig struct {
	// Listen is the listen address. Empty disables the listener.
	Listen string `yaml:"listen"`
}

type RequestConfig struct {
	// Deadline bounds every request. Zero disables the server side deadline.
	Deadline time.Duration `yaml:"deadline"`
}

type EngineConfig struct {
	// Workers limits parallel weeding. Zero uses GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Defaults apply to requests without options and to the weed command.
	Defaults generalize.Options `yaml:"defaults"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SessionConfig struct {
	// MaxEntries per session. Zero means no limit.
	MaxEntries int `yaml:"maxEntries"`
	// MaxSessions kept at once, least recently used dropped first. Zero
	// means no limit.
	MaxSessions int `yaml:"maxSessions"`
}

// Default returns the configuration used without a file.
func Default() Config {
	return Config{
		HTTP:    ListenConfig{Listen: ":8080"},
		GRPC:    ListenConfig{Listen: ":9090"},
		Request: RequestConfig{Deadline: 2 * time.Minute},
		Engine:  EngineConfig{Defaults: generalize.DefaultOptions()},
		Log:     LogConfig{Level: "info", Format: "text"},
		Session: SessionConfig{MaxEntries: 16, MaxSessions: 256},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "loading config %s", path)
		}
	}
	loadEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("GENERALIZE_HTTP_LISTEN"); v != "" {
		cfg.HTTP.Listen = v
	}
	if v := os.Getenv("GENERALIZE_GRPC_LISTEN"); v != "" {
		cfg.GRPC.Listen = v
	}
	if v := os.Getenv("GENERALIZE_REQUEST_DEADLINE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Request.Deadline = d
		}
	}
	if v := os.Getenv("GENERALIZE_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = i
		}
	}
	if v := os.Getenv("GENERALIZE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate rejects values the service cannot run with. Servers additionally
// need ValidateServe.
func (c Config) Validate() error {
	if c.Engine.Workers < 0 {
		return errors.Newf("engine.workers must not be negative, got %d", c.Engine.Workers)
	}
	if c.Request.Deadline < 0 {
		return errors.Newf("request.deadline must not be negative, got %s", c.Request.Deadline)
	}
	if c.Session.MaxEntries < 0 {
		return errors.Newf("session.maxEntries must not be negative, got %d", c.Session.MaxEntries)
	}
	if c.Session.MaxSessions < 0 {
		return errors.Newf("session.maxSessions must not be negative, got %d", c.Session.MaxSessions)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.Newf("log.format must be text or json, got %q", c.Log.Format)
	}
	return c.Engine.Defaults.Validate()
}

// ValidateServe checks that at least one listener is configured.
func (c Config) ValidateServe() error {
	if c.HTTP.Listen == "" && c.GRPC.Listen == "" {
		return errors.New("http.listen and grpc.listen are both empty")
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, errors.Wrapf(err, "log.level %q", l.Level)
	}
	return level, nil
}

// Logger builds the process logger writing to w.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
