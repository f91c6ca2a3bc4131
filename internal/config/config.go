// Package config builds the run configuration from environment variables
// (populated from .env in main.go) and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StagingMinIO  = "minio"
	StagingGridFS = "gridfs"
)

// Config holds every setting a pipeline run needs. It is passed
// explicitly to each component instead of being read at call time.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Staging   StagingConfig   `yaml:"staging"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Tasks     TaskConfig      `yaml:"tasks"`
	Log       LogConfig       `yaml:"log"`
}

type SourceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StagingConfig struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`

	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOAccessKey string `yaml:"minio_access_key"`
	MinIOSecretKey string `yaml:"minio_secret_key"`
	MinIOUseSSL    bool   `yaml:"minio_use_ssl"`

	MongoConnString string `yaml:"mongo_connection_string"`
	MongoDatabase   string `yaml:"mongo_database"`
}

type WarehouseConfig struct {
	Driver    string `yaml:"driver"`
	DSN       string `yaml:"dsn"`
	Schema    string `yaml:"schema"`
	Procedure string `yaml:"procedure"`
}

type TaskConfig struct {
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the settings the docker-compose deployment uses.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL: "http://sap-api:8000",
			Timeout: 30 * time.Second,
		},
		Staging: StagingConfig{
			Backend:       StagingMinIO,
			Bucket:        "staging",
			MinIOEndpoint: "minio:9000",
			MongoDatabase: "staging",
		},
		Warehouse: WarehouseConfig{
			Driver:    "postgres",
			Schema:    "bronze",
			Procedure: "process_dim_products",
		},
		Tasks: TaskConfig{
			Retries:    1,
			RetryDelay: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads application settings from environment variables on top
// of the defaults. It does not validate; call Validate once overlays are
// applied.
func LoadConfig() (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("SOURCE_API_URL", &c.Source.BaseURL)
	dur("SOURCE_TIMEOUT", &c.Source.Timeout)

	str("STAGING_BACKEND", &c.Staging.Backend)
	str("STAGING_BUCKET", &c.Staging.Bucket)
	str("MINIO_ENDPOINT", &c.Staging.MinIOEndpoint)
	str("MINIO_ROOT_USER", &c.Staging.MinIOAccessKey)
	str("MINIO_ROOT_PASSWORD", &c.Staging.MinIOSecretKey)
	if v, ok := lookup("MINIO_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("MINIO_USE_SSL: %w", err))
		}
		c.Staging.MinIOUseSSL = b
	}
	str("MONGO_CONNECTION_STRING", &c.Staging.MongoConnString)
	str("MONGO_DATABASE", &c.Staging.MongoDatabase)

	str("WAREHOUSE_DRIVER", &c.Warehouse.Driver)
	str("WAREHOUSE_DSN", &c.Warehouse.DSN)
	str("WAREHOUSE_SCHEMA", &c.Warehouse.Schema)
	str("WAREHOUSE_PROCEDURE", &c.Warehouse.Procedure)

	if v, ok := lookup("TASK_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TASK_RETRIES: %w", err))
		}
		c.Tasks.Retries = n
	}
	dur("TASK_RETRY_DELAY", &c.Tasks.RetryDelay)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)

	return errors.Join(errs...)
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	return errors.Join(c.validateSource(), c.validateStaging(), c.ValidateWarehouse())
}

// ValidateWarehouse checks only what a warehouse-only command needs.
func (c *Config) ValidateWarehouse() error {
	var errs []error
	if c.Warehouse.DSN == "" {
		errs = append(errs, errors.New("WAREHOUSE_DSN environment variable not set"))
	}
	if c.Warehouse.Schema == "" {
		errs = append(errs, errors.New("WAREHOUSE_SCHEMA is not set"))
	}
	if c.Tasks.Retries < 0 {
		errs = append(errs, fmt.Errorf("TASK_RETRIES must be >= 0, got %d", c.Tasks.Retries))
	}
	return errors.Join(errs...)
}

func (c *Config) validateSource() error {
	if c.Source.BaseURL == "" {
		return errors.New("SOURCE_API_URL is not set")
	}
	return nil
}

func (c *Config) validateStaging() error {
	var errs []error
	if c.Staging.Bucket == "" {
		errs = append(errs, errors.New("STAGING_BUCKET is not set"))
	}
	switch c.Staging.Backend {
	case StagingMinIO:
		if c.Staging.MinIOAccessKey == "" || c.Staging.MinIOSecretKey == "" {
			errs = append(errs, errors.New("MinIO credentials are missing: set MINIO_ROOT_USER and MINIO_ROOT_PASSWORD"))
		}
	case StagingGridFS:
		if c.Staging.MongoConnString == "" {
			errs = append(errs, errors.New("MONGO_CONNECTION_STRING environment variable not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STAGING_BACKEND %q", c.Staging.Backend))
	}
	return errors.Join(errs...)
}
