package engine

import (
	"path/filepath"
	"time"
)

const DefaultTickInterval = 50 * time.Millisecond

type ApplicationConfig struct {
	// Name printed in the log prefix.
	Name string
	// Project root. The asset directory and the config file are resolved
	// against it.
	ProjectDir string
	// Config file, relative to ProjectDir unless absolute.
	ConfigFile string
	// How often Run ticks the asset database.
	TickInterval time.Duration
	// Overrides the watch setting of the config file when set.
	Watch *bool
	// Overrides the log level of the config file when not empty.
	LogLevel string
}

func (ac *ApplicationConfig) configPath() string {
	if filepath.IsAbs(ac.ConfigFile) {
		return ac.ConfigFile
	}
	return filepath.Join(ac.ProjectDir, ac.ConfigFile)
}

func (ac *ApplicationConfig) assetPath(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(ac.ProjectDir, dir)
}
