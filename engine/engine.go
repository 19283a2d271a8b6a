package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/spaghettifunk/delta/engine/assets"
	"github.com/spaghettifunk/delta/engine/assets/shaders"
	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer"
)

type Stage uint8

const (
	// Editor is in an uninitialized state
	EditorStageUninitialized Stage = iota
	// Config and logger are loaded
	EditorStageBootComplete
	// Database is open and the project was scanned
	EditorStageInitialized
	// Run is ticking the database
	EditorStageRunning
	// Editor is in the process of shutting down
	EditorStageShuttingDown
	EditorStageStopped
)

// Editor is one project session: config, logger, asset database and the tick
// loop that drives it.
type Editor struct {
	currentStage Stage
	app          *ApplicationConfig
	hooks        *Hooks
	config       *core.Config
	logger       *log.Logger
	backend      renderer.Backend
	database     *assets.AssetDatabase
}

// New loads the project config and builds the logger. Nothing is opened yet.
func New(app *ApplicationConfig, hooks *Hooks, logOutput io.Writer) (*Editor, error) {
	if app == nil {
		return nil, errors.New("application config is required")
	}
	if app.ConfigFile == "" {
		app.ConfigFile = core.DefaultConfigFile
	}
	if app.ProjectDir == "" {
		app.ProjectDir = "."
	}
	if app.TickInterval <= 0 {
		app.TickInterval = DefaultTickInterval
	}
	if hooks == nil {
		hooks = &Hooks{}
	}

	cfg, err := core.LoadConfig(app.configPath())
	if err != nil {
		return nil, err
	}
	if app.Watch != nil {
		cfg.Watch.Enabled = *app.Watch
	}
	if app.LogLevel != "" {
		cfg.Log.Level = app.LogLevel
	}
	if app.Name != "" && cfg.Log.Prefix == "" {
		cfg.Log.Prefix = app.Name
	}

	return &Editor{
		currentStage: EditorStageBootComplete,
		app:          app,
		hooks:        hooks,
		config:       cfg,
		logger:       core.NewLogger(logOutput, cfg.Log),
		backend:      renderer.NewHeadlessBackend(),
	}, nil
}

// Initialize opens the asset database and scans the whole project once.
func (e *Editor) Initialize() error {
	if e.currentStage != EditorStageBootComplete {
		return fmt.Errorf("cannot initialize editor in stage %d", e.currentStage)
	}
	compiler, err := shaders.NewCompiler(e.config.Shaders.Compiler)
	if err != nil {
		return err
	}
	db, err := assets.New(assets.Options{
		AssetDir:         e.app.assetPath(e.config.Project.AssetDir),
		Logger:           e.logger,
		Backend:          e.backend,
		Compiler:         compiler,
		TextureWorkers:   e.config.Textures.Workers,
		TextureQueueSize: e.config.Textures.QueueSize,
		Watch:            e.config.Watch.Enabled,
	})
	if err != nil {
		return err
	}
	e.database = db

	report, err := db.ReimportAll()
	if err != nil {
		return err
	}
	for path, ferr := range report.Failed {
		e.logger.Warn("asset failed to load", "path", path, "err", ferr)
	}
	if e.hooks.FnInitialize != nil {
		if err := e.hooks.FnInitialize(db, report); err != nil {
			return err
		}
	}
	e.currentStage = EditorStageInitialized
	return nil
}

// Run ticks the database until ctx is done.
func (e *Editor) Run(ctx context.Context) error {
	if e.currentStage != EditorStageInitialized {
		return fmt.Errorf("cannot run editor in stage %d", e.currentStage)
	}
	e.currentStage = EditorStageRunning

	var watchErrors <-chan error
	if l := e.database.Listener(); l != nil {
		watchErrors = l.Errors()
	}

	ticker := time.NewTicker(e.app.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// leave nothing half done in the queue
			e.tick()
			return nil
		case err := <-watchErrors:
			e.logger.Error("watcher", "err", err)
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Editor) tick() {
	stats := e.database.Tick()
	if stats == (assets.TickStats{}) {
		return
	}
	e.logger.Debug("tick", "moves", stats.Moves, "reimports", stats.Reimports, "uploads", stats.Uploads, "recompiled", stats.Recompiled)
	if e.hooks.FnTick != nil {
		e.hooks.FnTick(stats)
	}
}

func (e *Editor) Shutdown() error {
	if e.currentStage == EditorStageStopped {
		return nil
	}
	e.currentStage = EditorStageShuttingDown
	var errs []error
	if e.hooks.FnShutdown != nil {
		errs = append(errs, e.hooks.FnShutdown())
	}
	if e.database != nil {
		errs = append(errs, e.database.Close())
	}
	e.currentStage = EditorStageStopped
	e.logger.Info("editor stopped")
	return errors.Join(errs...)
}

func (e *Editor) Stage() Stage {
	return e.currentStage
}

func (e *Editor) Config() *core.Config {
	return e.config
}

func (e *Editor) Logger() *log.Logger {
	return e.logger
}

// Database returns the open asset database, nil before Initialize.
func (e *Editor) Database() *assets.AssetDatabase {
	return e.database
}

// ProjectDir returns the absolute project root.
func (e *Editor) ProjectDir() string {
	if abs, err := filepath.Abs(e.app.ProjectDir); err == nil {
		return abs
	}
	return e.app.ProjectDir
}
