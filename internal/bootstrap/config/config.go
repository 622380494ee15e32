package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Search    SearchConfig    `mapstructure:"search"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Sentiment SentimentConfig `mapstructure:"sentiment"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	StreamInterval  time.Duration `mapstructure:"stream_interval"`
}

type CacheConfig struct {
	// Backend is memory or sqlite. The sqlite backend stores entries in the
	// application database whichever driver it uses.
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type SearchConfig struct {
	PageSize           int `mapstructure:"page_size"`
	SuggestionLimit    int `mapstructure:"suggestion_limit"`
	MinSuggestionChars int `mapstructure:"min_suggestion_chars"`
}

type AuthConfig struct {
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type SentimentConfig struct {
	// LexiconFile replaces the built-in word list when set.
	LexiconFile string `mapstructure:"lexicon_file"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := newViper(configFile)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("cache_backend", cfg.Cache.Backend),
	)

	return cfg, nil
}

// Watch re-reads configFile whenever it changes on disk and passes each
// valid result to onChange. Invalid edits are logged and skipped. Changes
// arriving after ctx is done are ignored.
func Watch(ctx context.Context, configFile string, onChange func(Config)) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if strings.TrimSpace(configFile) == "" {
		return errors.New("config file is required")
	}
	if onChange == nil {
		return errors.New("change handler is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := newViper(configFile)
	if err := v.ReadInConfig(); err != nil {
		return errs.Wrap(err, "read config")
	}

	var mu sync.Mutex
	v.OnConfigChange(func(event fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		cfg, err := decode(v)
		if err != nil {
			logging.Warn(logCtx, "ignoring invalid config change",
				slog.String("path", event.Name),
				slog.Any("err", errs.Loggable(err)),
			)
			return
		}
		logging.Debug(logCtx, "config changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func newViper(configFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APPREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errs.Wrap(err, "log.level")
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("cache.backend must be memory or sqlite, got %q", c.Cache.Backend)
	}
	if c.Search.PageSize < 0 || c.Search.SuggestionLimit < 0 || c.Search.MinSuggestionChars < 0 {
		return errors.New("search limits must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "appreview")
	v.SetDefault("app.env", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".data/appreview.sqlite")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.stream_interval", 2*time.Second)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("search.page_size", 20)
	v.SetDefault("search.suggestion_limit", 10)
	v.SetDefault("search.min_suggestion_chars", 3)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("sentiment.lexicon_file", "")
}
