package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fr0gg/fr0gg/gallery/redishost"
	"github.com/fr0gg/fr0gg/internal/logctx"
	"github.com/joeshaw/envdecode"
)

// Config is the process configuration. Every field can be set from the
// environment; command-line flags take precedence.
type Config struct {
	LogFormat string `env:"FR0GG_LOG_FORMAT,default=text"`
	LogLevel  string `env:"FR0GG_LOG_LEVEL,default=info"`

	// CategoriesFile replaces the built-in category lists and is watched for
	// changes by long-running commands.
	CategoriesFile string `env:"FR0GG_CATEGORIES_FILE"`

	Addr            string        `env:"FR0GG_ADDR,default=127.0.0.1:8080"`
	ShutdownTimeout time.Duration `env:"FR0GG_SHUTDOWN_TIMEOUT,default=10s"`
	MaxPageSize     int           `env:"FR0GG_MAX_PAGE_SIZE,default=100"`

	// Store selects the gallery backend: "memory" or "redis".
	Store string `env:"FR0GG_STORE,default=memory"`
	Redis redishost.Config

	OIDCIssuer   string `env:"OIDC_ISSUER"`
	OIDCAudience string `env:"OIDC_AUDIENCE"`
	// OIDCJWKSURL skips discovery when set.
	OIDCJWKSURL  string `env:"OIDC_JWKS_URL"`
	PublishScope string `env:"FR0GG_PUBLISH_SCOPE,default=frogs:publish"`
	Realm        string `env:"FR0GG_REALM,default=fr0gg"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.Store {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want memory or redis)", c.Store))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat))
	}
	if c.OIDCIssuer != "" && c.OIDCAudience == "" {
		errs = append(errs, errors.New("OIDC_AUDIENCE is required when OIDC_ISSUER is set"))
	}
	if c.OIDCIssuer == "" && c.OIDCJWKSURL != "" {
		errs = append(errs, errors.New("OIDC_JWKS_URL requires OIDC_ISSUER"))
	}
	return errors.Join(errs...)
}

// newLogger builds the process logger. Records carry request, user, session
// and tool context.
func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text", "":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return logctx.New(slog.New(h)), nil
}
