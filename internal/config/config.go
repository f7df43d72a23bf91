// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, command-line flags, and the DATABASE_URL environment variable,
// in that order of precedence (later wins).
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Mail     MailConfig     `koanf:"mail"`
	Invite   InviteConfig   `koanf:"invite"`
}

// ServerConfig holds the HTTP listener addresses.
type ServerConfig struct {
	Addr        string `koanf:"addr"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MailConfig holds outbound mail delivery settings.
type MailConfig struct {
	APIKey    string `koanf:"api_key"`
	FromEmail string `koanf:"from_email"`
	FromName  string `koanf:"from_name"`
	Endpoint  string `koanf:"endpoint"`
}

// InviteConfig holds invitation settings.
type InviteConfig struct {
	// URLPattern is the invite link template with {id}, {token}, {email},
	// and {role} placeholders.
	URLPattern string `koanf:"url_pattern"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":         ":8080",
		"server.metrics_addr": ":9090",
		"log.level":           "info",
		"log.format":          "text",
		"mail.endpoint":       "https://api.mailersend.com/v1/email",
		"mail.from_email":     "no-reply@assoconnect.local",
		"mail.from_name":      "AssoConnect",
		"invite.url_pattern":  "http://localhost:8080/register?invitation={token}",
	}
}

// Load builds the configuration. path may be empty, in which case no file is
// read. flags may be nil. DATABASE_URL, when set, overrides database.url
// regardless of source.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "load defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("operation", "load config file").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal config").Wrap(err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	return &cfg, nil
}

// Validate checks that the settings a running server cannot do without are
// present.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url (or DATABASE_URL) is required")
	}
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if c.Invite.URLPattern == "" {
		return oops.Code("CONFIG_INVALID").Errorf("invite.url_pattern is required")
	}
	return nil
}
