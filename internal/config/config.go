// Package config loads surveycore runtime configuration from defaults, an
// optional YAML file, and SURVEYCORE_-prefixed environment variables, in
// ascending priority.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"surveycore/internal/artifact"
	"surveycore/internal/rawstore"
	"surveycore/internal/sources"
)

// RawConfig selects and parameterizes the raw table store backend.
type RawConfig struct {
	Driver string `koanf:"driver"` // memory|sqlite|postgres
	Path   string `koanf:"path"`   // sqlite file path
	DSN    string `koanf:"dsn"`    // postgres DSN
}

// S3Config parameterizes the S3 artifact driver.
type S3Config struct {
	Region          string `koanf:"region"`
	Bucket          string `koanf:"bucket"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	SessionToken    string `koanf:"session_token"`
	PathStyle       bool   `koanf:"path_style"`
}

// ArtifactConfig selects and parameterizes the artifact store backend.
type ArtifactConfig struct {
	Driver string   `koanf:"driver"` // fs|s3|memory
	Root   string   `koanf:"root"`   // fs directory root
	S3     S3Config `koanf:"s3"`
}

// Config is the full surveycore runtime configuration.
type Config struct {
	Raw      RawConfig         `koanf:"raw"`
	Artifact ArtifactConfig    `koanf:"artifact"`
	Sources  map[string]string `koanf:"sources"` // year -> archive location, overrides the default registry
	Seed     *int64            `koanf:"seed"`    // age-jitter seed; unset reproduces unseeded reference behavior
}

// FileName is the default configuration file looked up in the working directory.
const FileName = "surveycore.yaml"

// Load builds the configuration. path may be empty, in which case FileName is
// used when present and silently skipped otherwise.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"raw.driver":      string(rawstore.DriverSQLite),
		"raw.path":        "surveycore.db",
		"artifact.driver": string(artifact.DriverFilesystem),
		"artifact.root":   "./artifacts",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	if path == "" {
		path = FileName
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider("SURVEYCORE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "SURVEYCORE_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Registry merges the configured source overrides over the default registry.
func (c *Config) Registry() (sources.Registry, error) {
	registry := sources.DefaultRegistry()
	for key, loc := range c.Sources {
		year, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("sources key %q is not a year", key)
		}
		registry[year] = loc
	}
	return registry, nil
}

// ArtifactStoreConfig converts the artifact section for artifact.Open.
func (c *Config) ArtifactStoreConfig() artifact.Config {
	return artifact.Config{
		Driver: artifact.Driver(c.Artifact.Driver),
		Root:   c.Artifact.Root,
		S3: artifact.S3Config{
			Region:          c.Artifact.S3.Region,
			Bucket:          c.Artifact.S3.Bucket,
			Endpoint:        c.Artifact.S3.Endpoint,
			AccessKeyID:     c.Artifact.S3.AccessKeyID,
			SecretAccessKey: c.Artifact.S3.SecretAccessKey,
			SessionToken:    c.Artifact.S3.SessionToken,
			PathStyle:       c.Artifact.S3.PathStyle,
		},
	}
}

// RawStorePath returns the backend parameter for rawstore.Open.
func (c *Config) RawStorePath() string {
	if rawstore.Driver(c.Raw.Driver) == rawstore.DriverPostgres {
		return c.Raw.DSN
	}
	return c.Raw.Path
}
