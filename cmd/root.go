package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/delta/engine"
	"github.com/spaghettifunk/delta/engine/core"
)

var (
	configFile string
	projectDir string
	logLevel   string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "delta",
	Short: "Asset database for delta projects",
	Long: `delta keeps track of every asset of a project: it assigns stable ids,
imports models, textures, materials and shaders, and reimports them when
files change on disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		l := core.NewLogger(os.Stderr, core.LogConfig{Level: "error"})
		l.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", core.DefaultConfigFile, "project config file, relative to the project")
	RootCmd.PersistentFlags().StringVar(&projectDir, "project", ".", "project root")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// openEditor boots an editor session for one-shot commands. The watcher is
// off: the command reads the tree once and exits.
func openEditor(hooks *engine.Hooks) (*engine.Editor, error) {
	watch := false
	ed, err := engine.New(&engine.ApplicationConfig{
		Name:       "delta",
		ProjectDir: projectDir,
		ConfigFile: configFile,
		Watch:      &watch,
		LogLevel:   logLevel,
	}, hooks, os.Stderr)
	if err != nil {
		return nil, err
	}
	if err := ed.Initialize(); err != nil {
		_ = ed.Shutdown()
		return nil, fmt.Errorf("open project %s: %w", projectDir, err)
	}
	return ed, nil
}
