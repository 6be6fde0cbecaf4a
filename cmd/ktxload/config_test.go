package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/urfave/cli/v3"
)

func resetEngineFlags(t *testing.T) {
	t.Helper()
	prev := []any{capabilities, engineName, enginePath, engineArgs, workers}
	capabilities, engineName, enginePath, engineArgs, workers = "", "none", "", nil, 0
	t.Cleanup(func() {
		capabilities = prev[0].(string)
		engineName = prev[1].(string)
		enginePath = prev[2].(string)
		engineArgs = prev[3].([]string)
		workers = prev[4].(int64)
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("missing file is zero config", func(t *testing.T) {
		cfg := loadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if cfg.Engine != "" || len(cfg.Capabilities) != 0 || cfg.Workers != nil {
			t.Fatalf("expected zero config, got %+v", cfg)
		}
	})

	t.Run("parses fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := "capabilities: [astc, dxt]\n" +
			"engine: process\n" +
			"engine_path: /usr/local/bin/basisu-stdio\n" +
			"engine_args: [--threads, \"2\"]\n" +
			"workers: 4\n" +
			"log_level: debug\n" +
			"server_address: 0.0.0.0:9000\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		cfg := loadConfigFile(path)
		if !slices.Equal(cfg.Capabilities, []string{"astc", "dxt"}) {
			t.Fatalf("capabilities: got %v", cfg.Capabilities)
		}
		if cfg.Engine != "process" || cfg.EnginePath != "/usr/local/bin/basisu-stdio" {
			t.Fatalf("engine: got %q %q", cfg.Engine, cfg.EnginePath)
		}
		if !slices.Equal(cfg.EngineArgs, []string{"--threads", "2"}) {
			t.Fatalf("engine args: got %v", cfg.EngineArgs)
		}
		if cfg.Workers == nil || *cfg.Workers != 4 {
			t.Fatalf("workers: got %v", cfg.Workers)
		}
		if cfg.LogLevel != "debug" || cfg.ServerAddress != "0.0.0.0:9000" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})

	t.Run("invalid yaml is zero config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("capabilities: [astc\n"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if cfg := loadConfigFile(path); cfg.Capabilities != nil {
			t.Fatalf("expected zero config, got %+v", cfg)
		}
	})
}

func TestApplyServeConfig(t *testing.T) {
	resetEngineFlags(t)

	n := int64(3)
	cfg := Config{
		Capabilities:  []string{"bptc", "etc1"},
		Engine:        "process",
		EnginePath:    "/opt/transcoder",
		EngineArgs:    []string{"-v"},
		Workers:       &n,
		ServerAddress: "127.0.0.1:9999",
	}
	addr := "127.0.0.1:8080"
	applyServeConfig(&cli.Command{Name: "serve"}, cfg, &addr)

	if capabilities != "bptc,etc1" {
		t.Fatalf("capabilities: got %q", capabilities)
	}
	if engineName != "process" || enginePath != "/opt/transcoder" {
		t.Fatalf("engine: got %q %q", engineName, enginePath)
	}
	if !slices.Equal(engineArgs, []string{"-v"}) || workers != 3 {
		t.Fatalf("engine args/workers: got %v %d", engineArgs, workers)
	}
	if addr != "127.0.0.1:9999" {
		t.Fatalf("addr: got %q", addr)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	p := configPath()
	if filepath.Base(p) != "config.yaml" || filepath.Base(filepath.Dir(p)) != "ktxload" {
		t.Fatalf("unexpected config path %q", p)
	}
}
