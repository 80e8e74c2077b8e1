// Package config loads nowcast settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		Listen         string  `mapstructure:"listen"`
		PollIntervalMs int     `mapstructure:"poll_interval_ms"`
		SendBuffer     int     `mapstructure:"send_buffer"`
		CommandRate    float64 `mapstructure:"command_rate"`
		CommandBurst   int     `mapstructure:"command_burst"`
		PingIntervalMs int     `mapstructure:"ping_interval_ms"`
	} `mapstructure:"server"`
	Client struct {
		URL            string `mapstructure:"url"`
		RetryDelayMs   int    `mapstructure:"retry_delay_ms"`
		PingIntervalMs int    `mapstructure:"ping_interval_ms"`
	} `mapstructure:"client"`
	Animation struct {
		CoverFadeMs      int     `mapstructure:"cover_fade_ms"`
		GradientMs       int     `mapstructure:"gradient_ms"`
		FrameMs          int     `mapstructure:"frame_ms"`
		Palette          string  `mapstructure:"palette"`
		TopMultiplier    float64 `mapstructure:"top_multiplier"`
		BottomMultiplier float64 `mapstructure:"bottom_multiplier"`
	} `mapstructure:"animation"`
	UI struct {
		MaxWidth     int `mapstructure:"max_width"`
		CoverColumns int `mapstructure:"cover_columns"`
		CoverRows    int `mapstructure:"cover_rows"`
	} `mapstructure:"ui"`
	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// PollInterval is the poller cadence.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Server.PollIntervalMs) * time.Millisecond
}

// RetryDelay is the fixed reconnect delay of the display.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Client.RetryDelayMs) * time.Millisecond
}

func (c Config) ServerPingInterval() time.Duration {
	return time.Duration(c.Server.PingIntervalMs) * time.Millisecond
}

func (c Config) ClientPingInterval() time.Duration {
	return time.Duration(c.Client.PingIntervalMs) * time.Millisecond
}

func (c Config) CoverFade() time.Duration {
	return time.Duration(c.Animation.CoverFadeMs) * time.Millisecond
}

func (c Config) GradientFade() time.Duration {
	return time.Duration(c.Animation.GradientMs) * time.Millisecond
}

func (c Config) FrameInterval() time.Duration {
	return time.Duration(c.Animation.FrameMs) * time.Millisecond
}

// Level maps log.level onto a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// SafeConfig wraps Config with thread-safe access
type SafeConfig struct {
	mu  sync.RWMutex
	cfg Config
}

// Get returns a copy of the current config (thread-safe read)
func (sc *SafeConfig) Get() Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cfg
}

// Set updates the config (thread-safe write)
func (sc *SafeConfig) Set(cfg Config) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cfg = cfg
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8765")
	v.SetDefault("server.poll_interval_ms", 1000)
	v.SetDefault("server.send_buffer", 16)
	v.SetDefault("server.command_rate", 5.0)
	v.SetDefault("server.command_burst", 5)
	v.SetDefault("server.ping_interval_ms", 10000)
	v.SetDefault("client.url", "ws://127.0.0.1:8765/")
	v.SetDefault("client.retry_delay_ms", 2000)
	v.SetDefault("client.ping_interval_ms", 10000)
	v.SetDefault("animation.cover_fade_ms", 350)
	v.SetDefault("animation.gradient_ms", 600)
	v.SetDefault("animation.frame_ms", 33)
	v.SetDefault("animation.palette", "quantize")
	v.SetDefault("animation.top_multiplier", 1.0)
	v.SetDefault("animation.bottom_multiplier", 0.28)
	v.SetDefault("ui.max_width", 60)
	v.SetDefault("ui.cover_columns", 16)
	v.SetDefault("ui.cover_rows", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Loader owns the viper instance behind a SafeConfig.
type Loader struct {
	v    *viper.Viper
	safe *SafeConfig
}

// Load reads configuration. With an empty path it looks for config.yaml under
// $XDG_CONFIG_HOME/nowcast (or ~/.config/nowcast); a missing file is not an
// error. overrides are applied last, so command-line flags win.
func Load(path string, overrides map[string]any) (*Loader, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	// Environment variable support with NOWCAST_ prefix
	v.SetEnvPrefix("NOWCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path == "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	for key, val := range overrides {
		v.Set(key, val)
	}

	l := &Loader{v: v, safe: &SafeConfig{}}
	cfg, err := l.unmarshal()
	if err != nil {
		return nil, err
	}
	l.safe.Set(cfg)
	return l, nil
}

func configDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "nowcast")
}

func (l *Loader) unmarshal() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Config returns the live, thread-safe configuration.
func (l *Loader) Config() *SafeConfig {
	return l.safe
}

// File is the config file in use, empty when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the file on change and calls onChange with the new snapshot.
// Reloads that fail to parse keep the previous configuration.
func (l *Loader) Watch(onChange func(Config)) {
	if l.File() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.unmarshal()
		if err != nil {
			slog.Warn("config reload failed", "file", e.Name, "error", err)
			return
		}
		l.safe.Set(cfg)
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
}
