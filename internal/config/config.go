// Package config loads the runtime configuration from TOML files.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "pulse"

type Config struct {
	Pipeline PipelineConfig `koanf:"pipeline"`
	Surface  SurfaceConfig  `koanf:"surface"`
	Audio    AudioConfig    `koanf:"audio"`
	Log      LogConfig      `koanf:"log"`
}

// PipelineConfig holds the preparation and seek timing knobs, in
// milliseconds. Defaults are seeded into the koanf layer in Load, so an
// explicit zero (no retries, no waits) is honoured.
type PipelineConfig struct {
	PrepareTimeoutMS  int `koanf:"prepare_timeout_ms"`   // per-attempt ready/error wait (default: 3000)
	MaxRetries        int `koanf:"max_retries"`          // retries after the first attempt (default: 2)
	RetryDelayMS      int `koanf:"retry_delay_ms"`       // wait between attempts (default: 500)
	PreDelayMS        int `koanf:"pre_delay_ms"`         // delay before touching the slot (default: 0)
	SettleDelayMS     int `koanf:"settle_delay_ms"`      // delay after forcing the slot idle (default: 50)
	SeekSettleMS      int `koanf:"seek_settle_ms"`       // yield after applying a seek (default: 100)
	SeekReadyBudgetMS int `koanf:"seek_ready_budget_ms"` // wait for the slot to become seekable (default: 1000)
}

// SurfaceConfig holds the render surface allocation settings.
type SurfaceConfig struct {
	Width  int    `koanf:"width"`  // default: 1920
	Height int    `koanf:"height"` // default: 1080
	Format string `koanf:"format"` // "rgba" or "rgb" (default: "rgba")
}

// AudioConfig holds the shared speaker settings.
type AudioConfig struct {
	SampleRate int `koanf:"sample_rate"` // default: 44100
	BufferMS   int `koanf:"buffer_ms"`   // default: 100
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"` // zerolog level name (default: "info")
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Defaults go in first so a key a config file sets to zero stays zero
	// instead of being mistaken for unset.
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"pipeline.prepare_timeout_ms":   3000,
		"pipeline.max_retries":          2,
		"pipeline.retry_delay_ms":       500,
		"pipeline.pre_delay_ms":         0,
		"pipeline.settle_delay_ms":      50,
		"pipeline.seek_settle_ms":       100,
		"pipeline.seek_ready_budget_ms": 1000,
		"surface.width":                 1920,
		"surface.height":                1080,
		"surface.format":                "rgba",
		"audio.sample_rate":             44100,
		"audio.buffer_ms":               100,
		"log.level":                     "info",
	}
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/pulse/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

// GetPipelineConfig returns the pipeline timings with invalid values
// clamped. Defaults come from the confmap layer in Load; zero is a valid
// setting for max_retries and the delays, so only negatives are rejected.
func (c *Config) GetPipelineConfig() PipelineConfig {
	cfg := c.Pipeline

	if cfg.PrepareTimeoutMS <= 0 {
		cfg.PrepareTimeoutMS = 3000
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelayMS < 0 {
		cfg.RetryDelayMS = 500
	}
	if cfg.PreDelayMS < 0 {
		cfg.PreDelayMS = 0
	}
	if cfg.SettleDelayMS < 0 {
		cfg.SettleDelayMS = 50
	}
	if cfg.SeekSettleMS < 0 {
		cfg.SeekSettleMS = 100
	}
	if cfg.SeekReadyBudgetMS <= 0 {
		cfg.SeekReadyBudgetMS = 1000
	}

	return cfg
}

// Durations maps the millisecond knobs onto time.Durations.
func (pc PipelineConfig) Durations() (prepareTimeout, retryDelay, preDelay, settleDelay, seekSettle, seekReadyBudget time.Duration) {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return ms(pc.PrepareTimeoutMS), ms(pc.RetryDelayMS), ms(pc.PreDelayMS),
		ms(pc.SettleDelayMS), ms(pc.SeekSettleMS), ms(pc.SeekReadyBudgetMS)
}

// GetSurfaceConfig returns the surface settings with defaults applied.
func (c *Config) GetSurfaceConfig() SurfaceConfig {
	cfg := c.Surface

	if cfg.Width <= 0 {
		cfg.Width = 1920
	}
	if cfg.Height <= 0 {
		cfg.Height = 1080
	}
	if cfg.Format == "" {
		cfg.Format = "rgba"
	}

	return cfg
}

// GetAudioConfig returns the audio settings with defaults applied.
func (c *Config) GetAudioConfig() AudioConfig {
	cfg := c.Audio

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.BufferMS <= 0 {
		cfg.BufferMS = 100
	}

	return cfg
}
