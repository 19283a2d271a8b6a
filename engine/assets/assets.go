// Package assets is the asset database: it discovers, identifies, loads and
// hot-reloads every file below the project's asset directory and hands out
// typed, generation-checked references to them.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/spaghettifunk/delta/engine/assets/identity"
	"github.com/spaghettifunk/delta/engine/assets/listener"
	"github.com/spaghettifunk/delta/engine/assets/loaders"
	"github.com/spaghettifunk/delta/engine/assets/registry"
	"github.com/spaghettifunk/delta/engine/assets/reimport"
	"github.com/spaghettifunk/delta/engine/assets/shaders"
	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer"
	"github.com/spaghettifunk/delta/engine/systems"
)

type Options struct {
	/** @brief Root of the asset tree. */
	AssetDir string
	Logger   *log.Logger
	/** @brief GPU boundary. Without one textures and shaders stay unbuilt. */
	Backend renderer.Backend
	/** @brief Defaults to shaders.SyntaxCompiler. */
	Compiler shaders.Compiler
	/** @brief Texture decode workers, at least one. */
	TextureWorkers   int
	TextureQueueSize int
	/** @brief Watch the asset directory for changes. */
	Watch bool

	Models    ModelImporter
	Materials MaterialIO
	Scenes    SceneReader
	Sources   ShaderSourceReader
	Images    ImageDecoder
}

/**
 * @brief The asset database of one project session. All methods except
 * HandleEvent must be called from the goroutine that owns it.
 */
type AssetDatabase struct {
	logger  *log.Logger
	root    string
	backend renderer.Backend

	registry     *registry.Registry
	queue        *reimport.Queue
	fingerprints *reimport.Fingerprints
	listener     *listener.DirectoryListener
	textures     *systems.TextureSystem
	shaders      *shaders.Library

	models    ModelImporter
	materials MaterialIO
	scenes    SceneReader
	sources   ShaderSourceReader

	// moves reported by the listener, applied on the next Tick
	movesMu sync.Mutex
	moves   []listener.Event

	// paths whose last reimport failed; they keep their previous payload
	stale   map[string]error
	removed map[string]struct{}
}

func New(opts Options) (*AssetDatabase, error) {
	logger := core.LoggerOrDefault(opts.Logger)
	root, err := filepath.Abs(opts.AssetDir)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: asset directory %s", core.ErrFileNotFound, root)
	}

	db := &AssetDatabase{
		logger:       logger,
		root:         root,
		backend:      opts.Backend,
		registry:     registry.New(),
		queue:        reimport.NewQueue(),
		fingerprints: reimport.NewFingerprints(),
		models:       opts.Models,
		materials:    opts.Materials,
		scenes:       opts.Scenes,
		sources:      opts.Sources,
		stale:        map[string]error{},
		removed:      map[string]struct{}{},
	}
	if db.models == nil {
		db.models = &loaders.ModelLoader{}
	}
	if db.materials == nil {
		db.materials = &loaders.MaterialLoader{}
	}
	if db.scenes == nil {
		db.scenes = &loaders.SceneLoader{}
	}
	if db.sources == nil {
		db.sources = &loaders.ShaderLoader{}
	}
	images := opts.Images
	if images == nil {
		images = &loaders.ImageLoader{}
	}

	workers := opts.TextureWorkers
	if workers < 1 {
		workers = 1
	}
	db.textures, err = systems.NewTextureSystem(systems.TextureSystemConfig{
		Workers:   workers,
		QueueSize: opts.TextureQueueSize,
	}, opts.Backend, db.registry, images, logger)
	if err != nil {
		return nil, err
	}
	db.shaders = shaders.NewLibrary(opts.Backend, opts.Compiler, db.readShaderSource, logger)

	if opts.Watch {
		l, err := listener.New(root, logger)
		if err != nil {
			db.textures.Shutdown()
			return nil, err
		}
		l.RegisterAddCallback(db.HandleEvent)
		l.RegisterModifyCallback(db.HandleEvent)
		l.RegisterRemoveCallback(db.HandleEvent)
		l.RegisterMoveCallback(db.HandleEvent)
		db.listener = l
	}
	logger.Info("asset database ready", "root", root, "watch", opts.Watch, "texture_workers", workers)
	return db, nil
}

// Close stops the listener and the texture workers and releases GPU
// resources.
func (db *AssetDatabase) Close() error {
	var err error
	if db.listener != nil {
		err = db.listener.Close()
	}
	if terr := db.textures.Shutdown(); err == nil {
		err = terr
	}
	for _, p := range registry.View[*registry.TexturePayload](db.registry) {
		db.textures.Release(p)
	}
	db.shaders.Shutdown()
	return err
}

func (db *AssetDatabase) GetRegistry() *registry.Registry {
	return db.registry
}

func (db *AssetDatabase) GetAssetDirectoryPath() string {
	return db.root
}

func (db *AssetDatabase) Shaders() *shaders.Library {
	return db.shaders
}

func (db *AssetDatabase) Textures() *systems.TextureSystem {
	return db.textures
}

// Listener returns nil when watching is disabled.
func (db *AssetDatabase) Listener() *listener.DirectoryListener {
	return db.listener
}

// resolve turns a path relative to the asset directory into the registry key.
func (db *AssetDatabase) resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(db.root, path)
	}
	return registry.NormalizePath(path)
}

// ignored reports paths that are never assets: sidecars and hidden files.
func ignored(path string) bool {
	return identity.IsMetadataPath(path) || strings.HasPrefix(filepath.Base(path), ".")
}

// HandleEvent receives listener notifications. It runs on the watcher
// goroutine and only enqueues work for the next Tick.
func (db *AssetDatabase) HandleEvent(e listener.Event) {
	switch e.Kind {
	case listener.EventMoved:
		db.movesMu.Lock()
		db.moves = append(db.moves, e)
		db.movesMu.Unlock()
	default:
		if ignored(e.Path) {
			return
		}
		db.queue.QueueReimport(registry.NormalizePath(e.Path))
	}
}

// QueueReimport schedules path for the next Tick.
func (db *AssetDatabase) QueueReimport(path string) bool {
	return db.queue.QueueReimport(db.resolve(path))
}

/** @brief What one Tick did. */
type TickStats struct {
	Moves      int
	Reimports  int
	Uploads    int
	Recompiled int
}

// Tick runs the main-thread half of the pipeline: pending moves, the reimport
// queue, texture uploads and shader recompiles, in that order.
func (db *AssetDatabase) Tick() TickStats {
	var stats TickStats

	db.movesMu.Lock()
	moves := db.moves
	db.moves = nil
	db.movesMu.Unlock()
	for _, m := range moves {
		db.applyMove(m)
	}
	stats.Moves = len(moves)

	stats.Reimports = db.queue.DrainAndProcess(db.processQueued)
	stats.Uploads = db.textures.ProcessTextureJobs()

	recompiled := db.shaders.Recompile()
	db.applyRecompiles(recompiled)
	stats.Recompiled = len(recompiled)
	return stats
}

// Idle reports whether nothing is waiting for a Tick.
func (db *AssetDatabase) Idle() bool {
	db.movesMu.Lock()
	moves := len(db.moves)
	db.movesMu.Unlock()
	return moves == 0 && db.queue.Pending() == 0 && db.textures.InFlight() == 0
}

// readShaderSource serves the shader library: the imported text when the
// source is a registered asset, the file otherwise.
func (db *AssetDatabase) readShaderSource(path string) (string, error) {
	if h, ok := db.registry.FindByPath(path); ok {
		e, _ := db.registry.Get(h)
		if p, ok := e.Payload.(*registry.ShaderSourcePayload); ok && p.Source != "" {
			return p.Source, nil
		}
	}
	return db.sources.LoadSource(path)
}
