package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"no frames", func(c *Config) { c.Frames = 0 }, "frames"},
		{"empty image", func(c *Config) { c.Image.Width = 0 }, "image.width"},
		{"no levels", func(c *Config) { c.Image.MipLevels = 0 }, "mip_levels"},
		{"zero pool", func(c *Config) { c.Pools.QueryPoolSize = 0 }, "pool sizes"},
		{"sets exceed pool", func(c *Config) { c.Pools.SetsPerFrame = 200 }, "sets_per_frame"},
		{"no vertices", func(c *Config) { c.LineLoop.Vertices = 0 }, "line_loop"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v; want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.yaml")
	data := "frames: 9\npools:\n  max_sets_per_pool: 16\n  sets_per_frame: 5\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Frames != 9 || cfg.Pools.MaxSetsPerPool != 16 || cfg.Pools.SetsPerFrame != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Image.Width != 64 {
		t.Errorf("image width = %d; want default 64", cfg.Image.Width)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v; want debug", cfg.LogLevel())
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("VKRESTRACE_FRAMES", "2")
	t.Setenv("VKRESTRACE_LINE_LOOP_VERTICES", "5")
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Frames != 2 || cfg.LineLoop.Vertices != 5 {
		t.Errorf("frames = %d, vertices = %d; want 2, 5", cfg.Frames, cfg.LineLoop.Vertices)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.yaml")
	if err := os.WriteFile(path, []byte("frames: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(viper.New(), path); err == nil {
		t.Error("Load accepted frames: 0")
	}
}
