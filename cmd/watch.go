package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/delta/engine"
	"github.com/spaghettifunk/delta/engine/assets"
)

var tickInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the asset database in sync with the project",
	Long:  `Scans the project, then follows file changes and reimports and recompiles until interrupted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch := true
		var ed *engine.Editor
		ed, err := engine.New(&engine.ApplicationConfig{
			Name:         "delta",
			ProjectDir:   projectDir,
			ConfigFile:   configFile,
			TickInterval: tickInterval,
			Watch:        &watch,
			LogLevel:     logLevel,
		}, &engine.Hooks{
			FnTick: func(stats assets.TickStats) {
				ed.Logger().Info("assets updated",
					"moves", stats.Moves,
					"reimports", stats.Reimports,
					"uploads", stats.Uploads,
					"recompiled", stats.Recompiled)
			},
		}, os.Stderr)
		if err != nil {
			return err
		}
		if err := ed.Initialize(); err != nil {
			_ = ed.Shutdown()
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// signal channel to capture system calls
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		defer signal.Stop(sigCh)
		go func() {
			select {
			case <-sigCh:
				ed.Logger().Info("shutting down")
				cancel()
			case <-ctx.Done():
			}
		}()

		ed.Logger().Info("watching", "project", ed.ProjectDir())
		if err := ed.Run(ctx); err != nil {
			_ = ed.Shutdown()
			return err
		}
		return ed.Shutdown()
	},
}

func init() {
	watchCmd.Flags().DurationVar(&tickInterval, "tick", engine.DefaultTickInterval, "how often pending changes are processed")
	RootCmd.AddCommand(watchCmd)
}
