// Package config loads vkrestrace settings from a file, the environment and
// defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Config is the vkrestrace configuration.
type Config struct {
	Backend  string         `mapstructure:"backend"`
	Frames   int            `mapstructure:"frames"`
	Trace    bool           `mapstructure:"trace"`
	Image    ImageConfig    `mapstructure:"image"`
	Pools    PoolConfig     `mapstructure:"pools"`
	LineLoop LineLoopConfig `mapstructure:"line_loop"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ImageConfig sizes the image used by the upload scenarios.
type ImageConfig struct {
	Width             uint32 `mapstructure:"width"`
	Height            uint32 `mapstructure:"height"`
	MipLevels         uint32 `mapstructure:"mip_levels"`
	StagingBufferSize uint64 `mapstructure:"staging_buffer_size"`
}

// PoolConfig sizes the descriptor, query and semaphore pools.
type PoolConfig struct {
	MaxSetsPerPool     uint32 `mapstructure:"max_sets_per_pool"`
	SetsPerFrame       uint32 `mapstructure:"sets_per_frame"`
	QueryPoolSize      uint32 `mapstructure:"query_pool_size"`
	QueriesPerFrame    uint32 `mapstructure:"queries_per_frame"`
	SemaphorePoolSize  uint32 `mapstructure:"semaphore_pool_size"`
	SemaphoresPerFrame uint32 `mapstructure:"semaphores_per_frame"`
}

// LineLoopConfig sizes the line loop scenario.
type LineLoopConfig struct {
	Vertices   uint32 `mapstructure:"vertices"`
	BufferSize uint64 `mapstructure:"buffer_size"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend: "nativetest",
		Frames:  4,
		Trace:   true,
		Image: ImageConfig{
			Width:             64,
			Height:            32,
			MipLevels:         4,
			StagingBufferSize: 16 * 1024,
		},
		Pools: PoolConfig{
			MaxSetsPerPool:     128,
			SetsPerFrame:       48,
			QueryPoolSize:      8,
			QueriesPerFrame:    6,
			SemaphorePoolSize:  8,
			SemaphoresPerFrame: 3,
		},
		LineLoop: LineLoopConfig{
			Vertices:   16,
			BufferSize: 1024 * 1024,
		},
		Logging: LoggingConfig{Level: "warn"},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("frames", cfg.Frames)
	v.SetDefault("trace", cfg.Trace)
	v.SetDefault("image.width", cfg.Image.Width)
	v.SetDefault("image.height", cfg.Image.Height)
	v.SetDefault("image.mip_levels", cfg.Image.MipLevels)
	v.SetDefault("image.staging_buffer_size", cfg.Image.StagingBufferSize)
	v.SetDefault("pools.max_sets_per_pool", cfg.Pools.MaxSetsPerPool)
	v.SetDefault("pools.sets_per_frame", cfg.Pools.SetsPerFrame)
	v.SetDefault("pools.query_pool_size", cfg.Pools.QueryPoolSize)
	v.SetDefault("pools.queries_per_frame", cfg.Pools.QueriesPerFrame)
	v.SetDefault("pools.semaphore_pool_size", cfg.Pools.SemaphorePoolSize)
	v.SetDefault("pools.semaphores_per_frame", cfg.Pools.SemaphoresPerFrame)
	v.SetDefault("line_loop.vertices", cfg.LineLoop.Vertices)
	v.SetDefault("line_loop.buffer_size", cfg.LineLoop.BufferSize)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Load loads configuration from cfgFile, VKRESTRACE_* environment variables
// and defaults. An empty cfgFile searches for vkrestrace.yaml in the
// working directory; a missing file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("vkrestrace")
	}

	v.SetEnvPrefix("VKRESTRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Frames < 1 {
		return errors.New("frames must be at least 1")
	}
	if c.Image.Width == 0 || c.Image.Height == 0 {
		return errors.New("image.width and image.height must be positive")
	}
	if c.Image.MipLevels == 0 {
		return errors.New("image.mip_levels must be at least 1")
	}
	if c.Pools.MaxSetsPerPool == 0 || c.Pools.QueryPoolSize == 0 || c.Pools.SemaphorePoolSize == 0 {
		return errors.New("pool sizes must be positive")
	}
	if c.Pools.SetsPerFrame > c.Pools.MaxSetsPerPool {
		return fmt.Errorf("pools.sets_per_frame %d exceeds pools.max_sets_per_pool %d",
			c.Pools.SetsPerFrame, c.Pools.MaxSetsPerPool)
	}
	if c.LineLoop.Vertices == 0 {
		return errors.New("line_loop.vertices must be at least 1")
	}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}
	return nil
}

// LogLevel returns the slog level for Logging.Level.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
