package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Content ContentConfig `toml:"content"`
	Logging LoggingConfig `toml:"logging"`
}

type EngineConfig struct {
	FrameRate   time.Duration `toml:"frame_rate"`
	MaxFrames   uint64        `toml:"max_frames"`   // 0 = run until signalled
	WriterLimit int           `toml:"writer_limit"` // concurrent RunWriters functions, 0 = unlimited
}

type ContentConfig struct {
	Templates  string   `toml:"templates"`   // YAML template table
	ScriptsDir string   `toml:"scripts_dir"` // Lua trigger scripts
	Spawn      []string `toml:"spawn"`       // template names instantiated at startup
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML over the defaults. name is only used in errors.
func Parse(data []byte, name string) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.FrameRate <= 0 {
		return fmt.Errorf("engine.frame_rate must be positive, got %s", c.Engine.FrameRate)
	}
	if c.Engine.WriterLimit < 0 {
		return fmt.Errorf("engine.writer_limit must not be negative, got %d", c.Engine.WriterLimit)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			FrameRate:   50 * time.Millisecond,
			MaxFrames:   0,
			WriterLimit: 0,
		},
		Content: ContentConfig{
			Templates:  "data/templates.yaml",
			ScriptsDir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
