package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StoreBackend != BackendMemory || cfg.StateBackend != BackendMemory {
		t.Errorf("expected memory backends, got %s/%s", cfg.StoreBackend, cfg.StateBackend)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.WorkerCount != 10 || cfg.QueueSize != 1000 {
		t.Errorf("unexpected worker settings %d/%d", cfg.WorkerCount, cfg.QueueSize)
	}
	if cfg.OperationTimeout != 5*time.Second || cfg.LockTTL != 10*time.Second {
		t.Errorf("unexpected durations %s/%s", cfg.OperationTimeout, cfg.LockTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_BACKEND", "mysql")
	t.Setenv("STATE_BACKEND", "redis")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("LOCK_WAIT", "250ms")
	t.Setenv("TELEGRAM_DEBUG", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StoreBackend != BackendMySQL || cfg.StateBackend != BackendRedis {
		t.Errorf("expected mysql/redis, got %s/%s", cfg.StoreBackend, cfg.StateBackend)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.LockWait != 250*time.Millisecond {
		t.Errorf("expected 250ms lock wait, got %s", cfg.LockWait)
	}
	if !cfg.TelegramDebug {
		t.Error("expected telegram debug on")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "HTTP_ADDR: \":9090\"\nLOG_LEVEL: debug\nQUEUE_SIZE: 64\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.LogLevel != "debug" || cfg.QueueSize != 64 {
		t.Errorf("config file not applied: %+v", cfg)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		LogLevel:         "info",
		StoreBackend:     BackendMemory,
		StateBackend:     BackendRedis,
		WorkerCount:      1,
		QueueSize:        1,
		LockTTL:          10 * time.Second,
		OperationTimeout: 5 * time.Second,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}

	cases := map[string]func(c *Config){
		"STORE_BACKEND":     func(c *Config) { c.StoreBackend = "postgres" },
		"STATE_BACKEND":     func(c *Config) { c.StateBackend = "etcd" },
		"WORKER_COUNT":      func(c *Config) { c.WorkerCount = 0 },
		"QUEUE_SIZE":        func(c *Config) { c.QueueSize = 0 },
		"OPERATION_TIMEOUT": func(c *Config) { c.OperationTimeout = 0 },
		"LOCK_TTL":          func(c *Config) { c.LockTTL = time.Second },
		"LOG_LEVEL":         func(c *Config) { c.LogLevel = "loud" },
	}
	for key, mutate := range cases {
		c := valid
		mutate(&c)
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), key) {
			t.Errorf("%s: expected validation error naming the key, got: %v", key, err)
		}
	}
}

func TestNewLogger(t *testing.T) {
	prod := Config{Env: "production", LogLevel: "warn"}.NewLogger()
	if _, ok := prod.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("expected JSON formatter in production, got %T", prod.Formatter)
	}
	if prod.GetLevel() != logrus.WarnLevel {
		t.Errorf("expected warn level, got %s", prod.GetLevel())
	}

	dev := Config{Env: "development", LogLevel: "debug"}.NewLogger()
	if _, ok := dev.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("expected text formatter in development, got %T", dev.Formatter)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}
