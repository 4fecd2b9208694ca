package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/erazemk/rootbeer/internal/storage"
	"github.com/erazemk/rootbeer/internal/upload"
)

// Config is the service configuration.
type Config struct {
	Server struct {
		Addr        string   `yaml:"addr"`
		PublicDir   string   `yaml:"public_dir"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Storage storage.Config `yaml:"storage"`

	Upload struct {
		MaxSize int64  `yaml:"max_size"`
		TempDir string `yaml:"temp_dir"`
	} `yaml:"upload"`

	Log struct {
		Path string `yaml:"path"`
	} `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":4000"
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Database.Path = "rootbeer.sqlite3"
	cfg.Storage.Type = storage.TypeLocal
	cfg.Storage.BasePath = "public"
	cfg.Upload.MaxSize = upload.DefaultMaxSize
	return cfg
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and ROOTBEER_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv loads variables from a .env file into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"ROOTBEER_ADDR":          &c.Server.Addr,
		"ROOTBEER_PUBLIC_DIR":    &c.Server.PublicDir,
		"ROOTBEER_DB":            &c.Database.Path,
		"ROOTBEER_STORAGE_TYPE":  &c.Storage.Type,
		"ROOTBEER_STORAGE_PATH":  &c.Storage.BasePath,
		"ROOTBEER_S3_BUCKET":     &c.Storage.Bucket,
		"ROOTBEER_S3_REGION":     &c.Storage.Region,
		"ROOTBEER_S3_ENDPOINT":   &c.Storage.Endpoint,
		"ROOTBEER_S3_ACCESS_KEY": &c.Storage.AccessKey,
		"ROOTBEER_S3_SECRET_KEY": &c.Storage.SecretKey,
		"ROOTBEER_UPLOAD_TMP":    &c.Upload.TempDir,
		"ROOTBEER_LOG":           &c.Log.Path,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("ROOTBEER_CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}

	if v, ok := os.LookupEnv("ROOTBEER_MAX_UPLOAD"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing ROOTBEER_MAX_UPLOAD: %w", err)
		}
		c.Upload.MaxSize = n
	}
	return nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload max size must be positive, got %d", c.Upload.MaxSize)
	}
	switch c.Storage.Type {
	case storage.TypeLocal:
	case storage.TypeS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for s3")
		}
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}
	return nil
}

// String renders the configuration as YAML with secrets masked.
func (c *Config) String() string {
	masked := *c
	if masked.Storage.SecretKey != "" {
		masked.Storage.SecretKey = "***"
	}
	out, err := yaml.Marshal(&masked)
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
