// Package config loads the optional bake.toml configuration file.
//
// Settings are layered: built-in defaults, then the file, then command-line
// flags (applied by the CLI). The file is found via --config, then the
// BAKE_CONFIG environment variable; without either, defaults are used.
//
//	[engine]
//	max_jumps        = 10000
//	fork_parallelism = 4
//	magic_depth      = 3
//	magic_fanout     = 10
//	breakpoints      = false
//	timeout          = "30s"
//
//	[log]
//	level = "info"
//	file  = "/var/log/bake.json"
//
//	[store]
//	database = "bake.db"
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/roach88/bake/internal/engine"
)

// EnvConfigPath names the environment variable holding a config path.
const EnvConfigPath = "BAKE_CONFIG"

// Config is the whole configuration file.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Log    LogConfig    `toml:"log"`
	Store  StoreConfig  `toml:"store"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// EngineConfig tunes the bake engine.
type EngineConfig struct {
	MaxJumps        int      `toml:"max_jumps"`
	ForkParallelism int      `toml:"fork_parallelism"`
	MagicDepth      int      `toml:"magic_depth"`
	MagicFanout     int      `toml:"magic_fanout"`
	Breakpoints     bool     `toml:"breakpoints"`
	Timeout         Duration `toml:"timeout"`
}

// LogConfig selects the log level and an optional JSON log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// StoreConfig points at the bake log database. Empty disables logging.
type StoreConfig struct {
	Database string `toml:"database"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxJumps:        engine.DefaultMaxJumps,
			ForkParallelism: runtime.GOMAXPROCS(0),
			MagicDepth:      engine.DefaultMagicDepth,
			MagicFanout:     engine.DefaultMagicFanout,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Resolve returns the config file path to use: flagPath if set, else
// $BAKE_CONFIG, else "" for defaults only.
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	return os.Getenv(EnvConfigPath)
}

// Load reads the config file at path over the defaults. An empty path
// returns the defaults. Unknown keys are an error so typos do not pass
// silently.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.ForkParallelism < 1 {
		errs = append(errs, fmt.Errorf("engine.fork_parallelism must be at least 1, got %d", c.Engine.ForkParallelism))
	}
	if c.Engine.MagicDepth < 0 || c.Engine.MagicDepth > engine.MaxMagicDepth {
		errs = append(errs, fmt.Errorf("engine.magic_depth must be between 0 and %d, got %d", engine.MaxMagicDepth, c.Engine.MagicDepth))
	}
	if c.Engine.MagicFanout < 1 {
		errs = append(errs, fmt.Errorf("engine.magic_fanout must be at least 1, got %d", c.Engine.MagicFanout))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses the configured level (debug, info, warn, error).
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// EngineOptions converts the engine section to engine options.
// MaxJumps <= 0 means unlimited.
func (c *Config) EngineOptions() []engine.EngineOption {
	return []engine.EngineOption{
		engine.WithMaxJumps(c.Engine.MaxJumps),
		engine.WithForkParallelism(c.Engine.ForkParallelism),
		engine.WithMagicDepth(c.Engine.MagicDepth),
		engine.WithMagicFanout(c.Engine.MagicFanout),
		engine.WithBreakpoints(c.Engine.Breakpoints),
	}
}
