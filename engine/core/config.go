package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/delta/engine/math"
)

// DefaultConfigFile is looked up at the project root when no path is given.
const DefaultConfigFile = "delta.toml"

const (
	defaultTextureWorkers   = 2
	maxTextureWorkers       = 8
	defaultTextureQueueSize = 64
)

type ProjectConfig struct {
	/** @brief Asset directory, relative to the project root unless absolute. */
	AssetDir string `toml:"asset_dir"`
}

type TextureConfig struct {
	/** @brief Number of decode workers. Clamped to [1, 8]. */
	Workers int `toml:"workers"`
	/** @brief Initial capacity of the load queue. */
	QueueSize int `toml:"queue_size"`
}

type WatchConfig struct {
	Enabled bool `toml:"enabled"`
}

type ShaderConfig struct {
	/** @brief "glslc" shells out to glslc, "none" only validates sources. */
	Compiler string `toml:"compiler"`
}

/** @brief Project configuration, stored as TOML. */
type Config struct {
	Project  ProjectConfig `toml:"project"`
	Log      LogConfig     `toml:"log"`
	Textures TextureConfig `toml:"textures"`
	Watch    WatchConfig   `toml:"watch"`
	Shaders  ShaderConfig  `toml:"shaders"`
}

func DefaultConfig() *Config {
	return &Config{
		Project:  ProjectConfig{AssetDir: "assets"},
		Log:      LogConfig{Level: "info", Prefix: defaultLogPrefix},
		Textures: TextureConfig{Workers: defaultTextureWorkers, QueueSize: defaultTextureQueueSize},
		Watch:    WatchConfig{Enabled: true},
		Shaders:  ShaderConfig{Compiler: "none"},
	}
}

// LoadConfig reads the TOML file at path on top of the defaults. A missing
// file is not an error; a malformed one is reported as ErrParseError.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: config %s: %v", ErrParseError, path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Project.AssetDir == "" {
		c.Project.AssetDir = "assets"
	}
	if c.Textures.Workers == 0 {
		c.Textures.Workers = defaultTextureWorkers
	}
	c.Textures.Workers = math.Clamp(c.Textures.Workers, 1, maxTextureWorkers)
	if c.Textures.QueueSize <= 0 {
		c.Textures.QueueSize = defaultTextureQueueSize
	}
	if c.Shaders.Compiler == "" {
		c.Shaders.Compiler = "none"
	}
}
