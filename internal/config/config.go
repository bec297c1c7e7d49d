package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	DBDSN    string `yaml:"db_dsn"`
	MediaDir string `yaml:"media_dir"`
	LogFile  string `yaml:"log_file"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	TreeCacheTTL  time.Duration `yaml:"tree_cache_ttl"`

	S3Endpoint  string `yaml:"s3_endpoint"`
	S3Region    string `yaml:"s3_region"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3PublicURL string `yaml:"s3_public_url"`

	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	// DemoData seeds a small catalog into an empty store.
	DemoData bool `yaml:"demo_data"`
}

func Defaults() Config {
	return Config{
		Port:         "8080",
		DBDSN:        "pitchside.db", // sqlite file in project root
		MediaDir:     "./web/media",
		LogFile:      "./pitchside.log",
		TreeCacheTTL: 10 * time.Minute,
		S3Region:     "us-east-1",
		DemoData:     true,
	}
}

// Load layers defaults, the YAML file named by CONFIG_FILE, a .env file and
// finally the process environment. Later layers win.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}
	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	log.Printf("[config] %s", cfg)
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("DB_DSN", &cfg.DBDSN)
	str("MEDIA_DIR", &cfg.MediaDir)
	str("LOG_FILE", &cfg.LogFile)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	str("S3_ENDPOINT", &cfg.S3Endpoint)
	str("S3_REGION", &cfg.S3Region)
	str("S3_ACCESS_KEY", &cfg.S3AccessKey)
	str("S3_SECRET_KEY", &cfg.S3SecretKey)
	str("S3_BUCKET", &cfg.S3Bucket)
	str("S3_PUBLIC_URL", &cfg.S3PublicURL)
	str("ADMIN_EMAIL", &cfg.AdminEmail)
	str("ADMIN_PASSWORD", &cfg.AdminPassword)

	if v, ok := lookup("TREE_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TREE_CACHE_TTL: %w", err)
		}
		cfg.TreeCacheTTL = d
	}
	if v, ok := lookup("DEMO_DATA"); ok && v != "" {
		cfg.DemoData = v == "1" || v == "true"
	}
	return nil
}

// String masks secrets.
func (c Config) String() string {
	return fmt.Sprintf("PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s REDIS_ADDR=%s REDIS_PASSWORD=%s TREE_CACHE_TTL=%s "+
		"S3_ENDPOINT=%s S3_BUCKET=%s S3_ACCESS_KEY=%s S3_SECRET_KEY=%s ADMIN_EMAIL=%s ADMIN_PASSWORD=%s DEMO_DATA=%t",
		c.Port, c.DBDSN, c.MediaDir, c.LogFile, c.RedisAddr, mask(c.RedisPassword), c.TreeCacheTTL,
		c.S3Endpoint, c.S3Bucket, mask(c.S3AccessKey), mask(c.S3SecretKey), c.AdminEmail, mask(c.AdminPassword), c.DemoData)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
