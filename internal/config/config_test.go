package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pitchside.yaml")
	yml := "port: \"9000\"\ndb_dsn: from-yaml.db\ntree_cache_ttl: 30s\ns3_bucket: yaml-bucket\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_DSN", "from-env.db")
	t.Setenv("ADMIN_PASSWORD", "s3cret!")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" {
		t.Errorf("port from yaml: got %s", cfg.Port)
	}
	if cfg.DBDSN != "from-env.db" {
		t.Errorf("env should win: got %s", cfg.DBDSN)
	}
	if cfg.TreeCacheTTL != 30*time.Second {
		t.Errorf("ttl: got %s", cfg.TreeCacheTTL)
	}
	if cfg.MediaDir != "./web/media" {
		t.Errorf("default media dir lost: got %s", cfg.MediaDir)
	}
	if strings.Contains(cfg.String(), "s3cret!") {
		t.Error("String leaks the admin password")
	}
}

func TestApplyEnvRejectsBadTTL(t *testing.T) {
	cfg := Defaults()
	err := applyEnv(&cfg, func(k string) (string, bool) {
		if k == "TREE_CACHE_TTL" {
			return "soon", true
		}
		return "", false
	})
	if err == nil {
		t.Fatal("bad duration accepted")
	}
}
