package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/apollo-music/songvault/database"
	songhttp "github.com/apollo-music/songvault/http"
	"github.com/apollo-music/songvault/storage"
)

const envPrefix = "SONGVAULT"

type ctxKey struct{}

// WithContext attaches cfg to ctx for subcommands.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the Config stored by WithContext.
func FromContext(ctx context.Context) (*Config, error) {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok && cfg != nil {
		return cfg, nil
	}
	return nil, errors.New("config not found in context")
}

// Config is the full songvault server configuration.
type Config struct {
	Server   ServerConfig        `mapstructure:"server"`
	Service  ServiceConfig       `mapstructure:"service"`
	Database database.Config     `mapstructure:"database"`
	Storage  storage.Config      `mapstructure:"storage"`
	CORS     songhttp.CORSConfig `mapstructure:"cors"`
	Metrics  MetricsConfig       `mapstructure:"metrics"`
	Log      LogConfig           `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" validate:"min=1"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// ServiceConfig tunes the song service.
type ServiceConfig struct {
	// CompensateFailedUploads deletes the stored blob when the metadata
	// insert that follows it fails.
	CompensateFailedUploads bool          `mapstructure:"compensate_failed_uploads"`
	CleanupTimeout          time.Duration `mapstructure:"cleanup_timeout" validate:"gt=0"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// flagKeys maps server flag names onto configuration keys. Flags missing
// from the map bind under their own name.
var flagKeys = map[string]string{
	"port":         "server.port",
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"db-name":      "database.name",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// defaults holds a value for every key. AutomaticEnv only resolves keys
// viper already knows about.
var defaults = map[string]any{
	"server.port":             8080,
	"server.max_upload_bytes": 50 << 20,
	"server.shutdown_timeout": 30 * time.Second,

	"service.compensate_failed_uploads": false,
	"service.cleanup_timeout":           30 * time.Second,

	"database.type":         "sqlite",
	"database.dsn":          "songvault.db",
	"database.name":         "songvault",
	"database.tables.songs": "songs",

	"storage.type":             "filesystem",
	"storage.path":             "./data",
	"storage.base_url":         "",
	"storage.minio.endpoint":   "localhost:9000",
	"storage.minio.access_key": "",
	"storage.minio.secret_key": "",
	"storage.minio.use_ssl":    false,
	"storage.minio.region":     "",
	"storage.minio.bucket":     "songs",
	"storage.minio.public_url": "",

	"cors.enabled":           false,
	"cors.allowed_origins":   []string{"*"},
	"cors.allowed_methods":   []string{"GET", "POST", "DELETE", "OPTIONS"},
	"cors.allowed_headers":   []string{"Accept", "Content-Type", "X-Request-Id"},
	"cors.exposed_headers":   []string{"Content-Disposition"},
	"cors.allow_credentials": false,
	"cors.max_age":           300,

	"metrics.enabled": false,

	"log.level":  "info",
	"log.format": "text",
}

// Load builds the configuration from defaults, then configFiles merged in
// order, then SONGVAULT_* environment variables, then the flags in flags
// that were set explicitly. With no files, ./config.yaml is read when present.
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	readConfigFiles(v, configFiles)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		flags.Visit(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				key = f.Name
			}
			_ = v.BindPFlag(key, f)
		})
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// readConfigFiles loads files into v. Unreadable files are logged and
// skipped so that defaults and the environment still apply.
func readConfigFiles(v *viper.Viper, files []string) {
	if len(files) == 0 {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "err", err)
		}
		return
	}

	for i, file := range files {
		v.SetConfigFile(file)

		read := v.MergeInConfig
		if i == 0 {
			read = v.ReadInConfig
		}
		if err := read(); err != nil {
			slog.Warn("error reading config file", "file", file, "err", err)
		}
	}
}

// Validate checks field constraints, the backend specific settings and the
// table names.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterStructValidation(validateStorage, storage.Config{})

	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Database.Tables.Validate()
}

func validateStorage(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(storage.Config)

	switch cfg.Type {
	case "filesystem":
		if cfg.Path == "" {
			sl.ReportError(cfg.Path, "Path", "path", "required_for_filesystem", "")
		}
	case "minio":
		if cfg.Minio.Endpoint == "" {
			sl.ReportError(cfg.Minio.Endpoint, "Endpoint", "endpoint", "required_for_minio", "")
		}
		if cfg.Minio.Bucket == "" {
			sl.ReportError(cfg.Minio.Bucket, "Bucket", "bucket", "required_for_minio", "")
		}
	}
}
