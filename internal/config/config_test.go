package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"essaycore/internal/backup"
	"essaycore/internal/blob"
)

// isolate points Load at an empty directory and clears the variables a
// developer shell might carry.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"ESSAYCORE_ENV", "ESSAYCORE_CONFIG", "ESSAYCORE_BLOB_DRIVER",
		"ESSAYCORE_BLOB_PREFIX", "ESSAYCORE_BLOB_FS_ROOT", "ESSAYCORE_LOG_LEVEL",
		"ESSAYCORE_BACKUP_RETAIN", "ESSAYCORE_ASSISTANT_DELAY", "ESSAYCORE_METRICS_ADDR",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return t.TempDir()
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load(Options{DotEnvDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != DefaultEnv {
		t.Fatalf("expected env %s, got %s", DefaultEnv, cfg.Env)
	}
	if cfg.Blob.Driver != blob.DriverFilesystem || cfg.Blob.FSRoot != "./blobdata" {
		t.Fatalf("unexpected blob defaults: %+v", cfg.Blob)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.Backup.Schedule != backup.DefaultSchedule || cfg.Backup.Retain != 7 {
		t.Fatalf("unexpected backup defaults: %+v", cfg.Backup)
	}
	if cfg.AssistantDelay != DefaultAssistantDelay {
		t.Fatalf("unexpected delay %v", cfg.AssistantDelay)
	}
	if cfg.MetricsAddr != "" {
		t.Fatalf("expected metrics disabled by default, got %q", cfg.MetricsAddr)
	}
	if storage := cfg.Storage(); storage.Blob.Driver != blob.DriverFilesystem || storage.Prefix != "" {
		t.Fatalf("unexpected storage config: %+v", storage)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "essaycore.yaml", `
blob:
  driver: s3
  prefix: tenant-a/
  s3:
    bucket: essays
    endpoint: http://localhost:9000
    path_style: true
log:
  level: debug
backup:
  retain: 3
assistant:
  delay: 0s
metrics:
  addr: 127.0.0.1:9464
`)
	cfg, err := Load(Options{ConfigPath: path, DotEnvDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Blob.Driver != blob.DriverS3 || cfg.Prefix != "tenant-a/" {
		t.Fatalf("unexpected blob config: %+v prefix=%q", cfg.Blob, cfg.Prefix)
	}
	if cfg.Blob.S3.Bucket != "essays" || !cfg.Blob.S3.PathStyle || cfg.Blob.S3.Endpoint != "http://localhost:9000" {
		t.Fatalf("unexpected s3 config: %+v", cfg.Blob.S3)
	}
	if cfg.Blob.S3.Region != "us-east-1" {
		t.Fatalf("expected region default to survive merge, got %q", cfg.Blob.S3.Region)
	}
	if cfg.MetricsAddr != "127.0.0.1:9464" {
		t.Fatalf("unexpected metrics addr %q", cfg.MetricsAddr)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.Backup.Retain != 3 || cfg.AssistantDelay != 0 {
		t.Fatalf("unexpected merged values: %+v", cfg)
	}
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "c.yaml", "blob:\n  driver: memory\n")
	t.Setenv("ESSAYCORE_CONFIG", path)
	cfg, err := Load(Options{DotEnvDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Blob.Driver != blob.DriverMemory {
		t.Fatalf("expected memory driver, got %s", cfg.Blob.Driver)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "c.yaml", "blob:\n  driver: memory\n  fs:\n    root: /from/file\n")
	t.Setenv("ESSAYCORE_BLOB_DRIVER", "sqlite")
	t.Setenv("ESSAYCORE_BACKUP_RETAIN", "2")
	cfg, err := Load(Options{ConfigPath: path, DotEnvDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Blob.Driver != blob.DriverSQLite {
		t.Fatalf("expected env to win, got %s", cfg.Blob.Driver)
	}
	if cfg.Blob.FSRoot != "/from/file" {
		t.Fatalf("expected file value for fs root, got %q", cfg.Blob.FSRoot)
	}
	if cfg.Backup.Retain != 2 {
		t.Fatalf("expected retain 2, got %d", cfg.Backup.Retain)
	}
}

func TestLoadDotEnvForEnvironment(t *testing.T) {
	dir := isolate(t)
	t.Setenv("ESSAYCORE_ENV", "test")
	writeFile(t, dir, ".env.test", "ESSAYCORE_BLOB_FS_ROOT=/from/dotenv\n")
	writeFile(t, dir, ".env.dev", "ESSAYCORE_BLOB_FS_ROOT=/wrong/env\n")
	t.Cleanup(func() { os.Unsetenv("ESSAYCORE_BLOB_FS_ROOT") })

	cfg, err := Load(Options{DotEnvDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "test" {
		t.Fatalf("expected env test, got %s", cfg.Env)
	}
	if cfg.Blob.FSRoot != "/from/dotenv" {
		t.Fatalf("expected dotenv value, got %q", cfg.Blob.FSRoot)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{name: "unknown key", yaml: "blob:\n  bogus: 1\n", want: "bogus"},
		{name: "driver", yaml: "blob:\n  driver: ftp\n", want: "blob.driver"},
		{name: "level", yaml: "log:\n  level: loud\n", want: "log.level"},
		{name: "delay", yaml: "assistant:\n  delay: soon\n", want: "assistant.delay"},
		{name: "negative delay", yaml: "assistant:\n  delay: -1s\n", want: "assistant.delay"},
		{name: "retain", yaml: "backup:\n  retain: 0\n", want: "backup.retain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeFile(t, dir, "c.yaml", tc.yaml)
			_, err := Load(Options{ConfigPath: path, DotEnvDir: dir})
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(Options{ConfigPath: filepath.Join(dir, "absent.yaml"), DotEnvDir: dir}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestAssistantDelayFromEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("ESSAYCORE_ASSISTANT_DELAY", "250ms")
	cfg, err := Load(Options{DotEnvDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AssistantDelay != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", cfg.AssistantDelay)
	}
}
