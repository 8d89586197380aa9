// Package config loads essaycore settings from defaults, an optional YAML
// file, a per-environment dotenv file and ESSAYCORE_* variables, in
// increasing order of precedence.
package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"essaycore/internal/backup"
	"essaycore/internal/blob"
	"essaycore/internal/core"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix namespaces every environment variable.
	EnvPrefix = "ESSAYCORE"
	// DefaultEnv is used when ESSAYCORE_ENV is unset.
	DefaultEnv = "dev"
	// DefaultAssistantDelay approximates the typing pause of the writing assistant.
	DefaultAssistantDelay = 1500 * time.Millisecond
)

// Config is the resolved runtime configuration.
type Config struct {
	Env            string
	Blob           blob.Config
	Prefix         string
	LogLevel       slog.Level
	Backup         BackupConfig
	AssistantDelay time.Duration
	// MetricsAddr is where the backup daemon serves /metrics. Empty disables it.
	MetricsAddr string
}

// BackupConfig drives the cron backup scheduler.
type BackupConfig struct {
	Schedule string
	Retain   int
}

// Storage returns the settings core.OpenService needs.
func (c Config) Storage() core.StorageConfig {
	return core.StorageConfig{Blob: c.Blob, Prefix: c.Prefix}
}

// File is the YAML config layout. Unknown keys are rejected.
type File struct {
	Blob struct {
		Driver string `yaml:"driver"`
		Prefix string `yaml:"prefix"`
		FS     struct {
			Root string `yaml:"root"`
		} `yaml:"fs"`
		S3 struct {
			Bucket          string `yaml:"bucket"`
			Region          string `yaml:"region"`
			Endpoint        string `yaml:"endpoint"`
			PathStyle       bool   `yaml:"path_style"`
			AccessKeyID     string `yaml:"access_key_id"`
			SecretAccessKey string `yaml:"secret_access_key"`
		} `yaml:"s3"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
		Redis struct {
			URL       string `yaml:"url"`
			Namespace string `yaml:"namespace"`
		} `yaml:"redis"`
	} `yaml:"blob"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Backup struct {
		Schedule string `yaml:"schedule"`
		Retain   int    `yaml:"retain"`
	} `yaml:"backup"`
	Assistant struct {
		Delay string `yaml:"delay"`
	} `yaml:"assistant"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Options controls where Load looks for files.
type Options struct {
	// ConfigPath overrides ESSAYCORE_CONFIG.
	ConfigPath string
	// DotEnvDir is searched for .env.<env>. Defaults to the working directory.
	DotEnvDir string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("blob.driver", string(blob.DriverFilesystem))
	v.SetDefault("blob.prefix", "")
	v.SetDefault("blob.fs.root", "./blobdata")
	v.SetDefault("blob.s3.bucket", "")
	v.SetDefault("blob.s3.region", "us-east-1")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.path_style", false)
	v.SetDefault("blob.s3.access_key_id", "")
	v.SetDefault("blob.s3.secret_access_key", "")
	v.SetDefault("blob.sqlite.path", "essaycore.db")
	v.SetDefault("blob.postgres.dsn", "")
	v.SetDefault("blob.redis.url", "redis://localhost:6379/0")
	v.SetDefault("blob.redis.namespace", "essaycore")
	v.SetDefault("log.level", "info")
	v.SetDefault("backup.schedule", backup.DefaultSchedule)
	v.SetDefault("backup.retain", 7)
	v.SetDefault("assistant.delay", DefaultAssistantDelay.String())
	v.SetDefault("metrics.addr", "")
}

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = DefaultEnv
	}

	envFile := filepath.Join(opts.DotEnvDir, ".env."+env)
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, errors.Wrapf(err, "load %s", envFile)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		settings, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return Config{}, errors.Wrapf(err, "merge %s", path)
		}
	}

	return build(v, env)
}

// readFile checks path against File and returns its settings as a map for
// viper to merge. Keys absent from the file keep their defaults.
func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	settings := map[string]any{}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return settings, nil
}

func build(v *viper.Viper, env string) (Config, error) {
	cfg := Config{
		Env:    env,
		Prefix: v.GetString("blob.prefix"),
		Blob: blob.Config{
			Driver:      blob.Driver(v.GetString("blob.driver")),
			FSRoot:      v.GetString("blob.fs.root"),
			SQLitePath:  v.GetString("blob.sqlite.path"),
			PostgresDSN: v.GetString("blob.postgres.dsn"),
			RedisURL:    v.GetString("blob.redis.url"),
			RedisPrefix: v.GetString("blob.redis.namespace"),
			S3: blob.S3Config{
				Bucket:          v.GetString("blob.s3.bucket"),
				Region:          v.GetString("blob.s3.region"),
				Endpoint:        v.GetString("blob.s3.endpoint"),
				PathStyle:       v.GetBool("blob.s3.path_style"),
				AccessKeyID:     v.GetString("blob.s3.access_key_id"),
				SecretAccessKey: v.GetString("blob.s3.secret_access_key"),
			},
		},
		Backup: BackupConfig{
			Schedule: v.GetString("backup.schedule"),
			Retain:   v.GetInt("backup.retain"),
		},
		MetricsAddr: v.GetString("metrics.addr"),
	}

	switch cfg.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverMemory, blob.DriverSQLite,
		blob.DriverPostgres, blob.DriverRedis, blob.DriverS3:
	default:
		return Config{}, errors.Errorf("blob.driver: unknown driver %q", cfg.Blob.Driver)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return Config{}, errors.Wrap(err, "log.level")
	}

	delay, err := time.ParseDuration(v.GetString("assistant.delay"))
	if err != nil {
		return Config{}, errors.Wrap(err, "assistant.delay")
	}
	if delay < 0 {
		return Config{}, errors.New("assistant.delay: must not be negative")
	}
	cfg.AssistantDelay = delay

	if cfg.Backup.Retain < 1 {
		return Config{}, errors.New("backup.retain: must be at least 1")
	}
	return cfg, nil
}
