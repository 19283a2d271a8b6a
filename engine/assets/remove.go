package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/delta/engine/assets/identity"
	"github.com/spaghettifunk/delta/engine/assets/listener"
	"github.com/spaghettifunk/delta/engine/assets/registry"
	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

// Remove drops the asset at path from the database. Files on disk are left
// alone.
func (db *AssetDatabase) Remove(path string) error {
	h, err := db.Handle(path)
	if err != nil {
		return err
	}
	return db.removeEntry(h)
}

func (db *AssetDatabase) RemoveID(id identity.AssetId) error {
	h, ok := db.registry.FindById(id)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrAssetNotFound, id)
	}
	return db.removeEntry(h)
}

func (db *AssetDatabase) removeEntry(h registry.Handle) error {
	e, err := db.registry.Get(h)
	if err != nil {
		return err
	}
	path := e.Path
	db.releasePayload(e)
	if err := db.registry.Destroy(h); err != nil {
		return err
	}
	db.queue.Cancel(path)
	db.fingerprints.Forget(path)
	delete(db.stale, path)
	db.removed[path] = struct{}{}
	return nil
}

// releasePayload frees what the payload owns outside the registry.
func (db *AssetDatabase) releasePayload(e *registry.AssetEntry) {
	switch p := e.Payload.(type) {
	case *registry.TexturePayload:
		db.textures.CancelPending(e.Path)
		db.textures.Release(p)
	case *registry.MaterialPayload:
		db.shaders.Unwatch(e.Handle)
		db.shaders.Destroy(p.Shader)
	case *registry.ModelPayload, *registry.ScenePayload, *registry.ShaderSourcePayload, *registry.UnknownPayload:
	}
}

// Rename moves an imported asset to a new path, moving the file when it is
// still at the old location. GUID and handle are kept.
func (db *AssetDatabase) Rename(from, to string) error {
	from, to = db.resolve(from), db.resolve(to)
	h, ok := db.registry.FindByPath(from)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrAssetNotFound, from)
	}
	if _, ok := db.registry.FindByPath(to); ok {
		return fmt.Errorf("%w: %s", core.ErrDuplicatePath, to)
	}
	if err := moveFile(from, to); err != nil {
		return err
	}
	return db.renameEntry(h, to)
}

// RenameDirectory rewrites the path of every asset below fromDir to sit below
// toDir, moving the directory when it has not been moved yet.
func (db *AssetDatabase) RenameDirectory(fromDir, toDir string) error {
	fromDir, toDir = db.resolve(fromDir), db.resolve(toDir)
	if fromDir == toDir {
		return nil
	}
	if strings.HasPrefix(toDir, fromDir+string(filepath.Separator)) {
		return fmt.Errorf("cannot move %s into itself", fromDir)
	}
	handles := db.registry.Under(fromDir)
	for _, h := range handles {
		e, _ := db.registry.Get(h)
		rel, _ := filepath.Rel(fromDir, e.Path)
		if _, ok := db.registry.FindByPath(filepath.Join(toDir, rel)); ok {
			return fmt.Errorf("%w: %s", core.ErrDuplicatePath, filepath.Join(toDir, rel))
		}
	}
	if err := moveFile(fromDir, toDir); err != nil {
		return err
	}
	var errs []error
	for _, h := range handles {
		e, _ := db.registry.Get(h)
		rel, _ := filepath.Rel(fromDir, e.Path)
		if err := db.renameEntry(h, filepath.Join(toDir, rel)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// moveFile renames from to to unless that already happened.
func moveFile(from, to string) error {
	if _, err := os.Stat(from); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if _, err := os.Stat(to); err == nil {
				return nil
			}
			return fmt.Errorf("%w: %s", core.ErrFileNotFound, from)
		}
		return err
	}
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("%w: %s exists", core.ErrDuplicatePath, to)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	return os.Rename(from, to)
}

// renameEntry updates the registry and every side table keyed by path.
func (db *AssetDatabase) renameEntry(h registry.Handle, to string) error {
	e, err := db.registry.Get(h)
	if err != nil {
		return err
	}
	from := e.Path
	if err := db.registry.Rename(h, to); err != nil {
		return err
	}
	db.fingerprints.Move(from, to)
	if db.queue.Cancel(from) {
		db.queue.QueueReimport(to)
	}
	if err, ok := db.stale[from]; ok {
		delete(db.stale, from)
		db.stale[to] = err
	}
	if e.Kind.IsShaderSource() {
		db.shaders.RenameSource(from, to)
	}

	if kind := metadata.KindForPath(to); kind != e.Kind {
		// new extension, new payload kind
		db.releasePayload(e)
		e.Kind = kind
		e.Payload = registry.NewPayload(kind)
		if err := db.load(h, true); err != nil && !errors.Is(err, errDeferred) {
			db.logger.Warn("reload after rename failed", "path", to, "err", err)
			e.Payload = &registry.UnknownPayload{Reason: err.Error()}
		}
	}
	db.logger.Info("renamed", "from", from, "to", to)
	return nil
}

// applyMove handles a Moved event from the listener. Moves the database made
// itself arrive here too and are no-ops by then.
func (db *AssetDatabase) applyMove(m listener.Event) {
	from, to := registry.NormalizePath(m.From), registry.NormalizePath(m.Path)
	if _, ok := db.registry.FindByPath(to); ok {
		// saved over a tracked file (write a temp file, rename it into place):
		// the destination keeps its identity and reloads
		if _, ok := db.registry.FindByPath(from); ok {
			db.removeMissing(from)
		}
		db.queue.QueueReimport(to)
		return
	}
	if _, ok := db.registry.FindByPath(from); ok {
		if ignored(to) {
			db.removeMissing(from)
			return
		}
		if err := db.Rename(from, to); err != nil {
			db.logger.Warn("cannot follow move", "from", from, "to", to, "err", err)
		}
		return
	}
	if len(db.registry.Under(from)) > 0 {
		if err := db.RenameDirectory(from, to); err != nil {
			db.logger.Warn("cannot follow directory move", "from", from, "to", to, "err", err)
		}
		return
	}
	// moved in from outside the tree, or an untracked file moved over
	// tracked ones: let the queue sort out what is new and what changed
	filepath.WalkDir(to, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || ignored(path) {
			return nil
		}
		db.queue.QueueReimport(registry.NormalizePath(path))
		return nil
	})
}
