package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/delta/engine/assets/identity"
	"github.com/spaghettifunk/delta/engine/assets/registry"
	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
	"github.com/spaghettifunk/delta/engine/systems"
)

// errDeferred marks a reimport that must wait for the next Tick.
var errDeferred = errors.New("reimport deferred")

// Import registers path and loads its payload. Relative paths are taken from
// the asset directory. A path that is already imported fails with
// ErrDuplicatePath. Errors loading the payload do not fail the import: the
// entry is kept with an UnknownPayload and the error is logged.
func (db *AssetDatabase) Import(path string) (identity.AssetId, error) {
	path = db.resolve(path)
	if identity.IsMetadataPath(path) {
		return identity.NilId, fmt.Errorf("%w: %s is a metadata file", core.ErrImportError, path)
	}
	if _, ok := db.registry.FindByPath(path); ok {
		return identity.NilId, fmt.Errorf("%w: %s", core.ErrDuplicatePath, path)
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return identity.NilId, fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
		}
		return identity.NilId, err
	}
	if fi.IsDir() {
		return identity.NilId, fmt.Errorf("%w: %s is a directory", core.ErrImportError, path)
	}

	h, err := db.create(path, metadata.KindForPath(path))
	if err != nil {
		return identity.NilId, err
	}
	delete(db.removed, path)
	e, _ := db.registry.Get(h)

	if err := db.load(h, true); err != nil && !errors.Is(err, errDeferred) {
		db.logger.Warn("import failed, keeping asset as unknown", "path", path, "err", err)
		db.registry.SetPayload(h, &registry.UnknownPayload{Reason: err.Error()})
		return e.ID, nil
	}
	if err := db.fingerprints.Record(path); err != nil {
		db.logger.Debug("cannot fingerprint", "path", path, "err", err)
	}
	db.logger.Debug("imported", "path", path, "kind", e.Kind, "id", e.ID)
	return e.ID, nil
}

// create makes the registry entry, repairing unusable sidecars: a corrupt one
// or one copied from another asset gets a fresh GUID.
func (db *AssetDatabase) create(path string, kind metadata.AssetKind) (registry.Handle, error) {
	id, err := identity.GetOrCreateId(path)
	if errors.Is(err, core.ErrMetadataCorrupt) {
		db.logger.Warn("metadata corrupt, assigning a new id", "path", path, "err", err)
		id, err = identity.RegenerateId(path)
	}
	if err != nil {
		return registry.InvalidHandle, err
	}
	h, err := db.registry.CreateWithID(path, kind, id)
	if errors.Is(err, core.ErrDuplicateID) {
		db.logger.Warn("id already in use, assigning a new one", "path", path, "err", err)
		if id, err = identity.RegenerateId(path); err != nil {
			return registry.InvalidHandle, err
		}
		h, err = db.registry.CreateWithID(path, kind, id)
	}
	return h, err
}

// Reimport reloads the payload of an imported asset in place. The handle and
// the GUID are kept, so references stay valid.
func (db *AssetDatabase) Reimport(path string) error {
	path = db.resolve(path)
	h, ok := db.registry.FindByPath(path)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrAssetNotFound, path)
	}
	db.queue.Cancel(path)
	return db.reimport(h)
}

func (db *AssetDatabase) reimport(h registry.Handle) error {
	e, err := db.registry.Get(h)
	if err != nil {
		return err
	}
	err = db.load(h, false)
	switch {
	case errors.Is(err, errDeferred):
		db.queue.QueueReimport(e.Path)
		return nil
	case err != nil:
		db.stale[e.Path] = err
		db.logger.Warn("reimport failed, keeping previous payload", "path", e.Path, "err", err)
		return err
	}
	delete(db.stale, e.Path)
	if err := db.fingerprints.Record(e.Path); err != nil {
		db.logger.Debug("cannot fingerprint", "path", e.Path, "err", err)
	}
	db.logger.Debug("reimported", "path", e.Path)
	return nil
}

// load reads the file behind h into its payload. On error the payload is left
// as it was.
func (db *AssetDatabase) load(h registry.Handle, first bool) error {
	e, err := db.registry.Get(h)
	if err != nil {
		return err
	}
	switch e.Kind {
	case metadata.AssetKindTexture:
		p, ok := e.Payload.(*registry.TexturePayload)
		if !ok {
			p = &registry.TexturePayload{}
			e.Payload = p
			first = true
		}
		if first {
			db.textures.BindPlaceholder(p)
		}
		if !db.textures.RequestTextureLoad(systems.TextureLoadRequest{Target: h, Path: e.Path}) {
			return errDeferred
		}
		return nil

	case metadata.AssetKindModel:
		meshes, err := db.models.Import(e.Path)
		if err != nil {
			return err
		}
		e.Payload = &registry.ModelPayload{Meshes: meshes}
		return nil

	case metadata.AssetKindMaterial:
		return db.loadMaterial(e)

	case metadata.AssetKindScene:
		doc, err := db.scenes.Load(e.Path)
		if err != nil {
			return err
		}
		e.Payload = &registry.ScenePayload{Document: doc}
		return nil

	case metadata.AssetKindVertexShader,
		metadata.AssetKindFragmentShader,
		metadata.AssetKindGeometryShader,
		metadata.AssetKindComputeShader,
		metadata.AssetKindTessControlShader,
		metadata.AssetKindTessEvaluationShader,
		metadata.AssetKindHlslShader:
		src, err := db.sources.LoadSource(e.Path)
		if err != nil {
			return err
		}
		e.Payload = &registry.ShaderSourcePayload{SourceKind: e.Kind, Source: src}
		if !first {
			if mats := db.shaders.OnSourceModified(e.Path); len(mats) > 0 {
				db.logger.Info("shader source changed", "path", e.Path, "materials", len(mats))
			}
		}
		return nil

	case metadata.AssetKindUnknown:
		e.Payload = &registry.UnknownPayload{Reason: "unsupported extension " + filepath.Ext(e.Path)}
		return nil

	default:
		return fmt.Errorf("%w: no loader for %s", core.ErrImportError, e.Kind)
	}
}

// processQueued handles one drained path: import it, reimport it, or remove
// what was there if the file is gone.
func (db *AssetDatabase) processQueued(path string) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			db.removeMissing(path)
			return
		}
		db.logger.Warn("cannot stat", "path", path, "err", err)
		return
	}
	if fi.IsDir() {
		return
	}
	h, ok := db.registry.FindByPath(path)
	if !ok {
		if _, err := db.Import(path); err != nil {
			db.logger.Warn("import failed", "path", path, "err", err)
		}
		return
	}
	if changed, err := db.fingerprints.Changed(path); err == nil && !changed {
		db.logger.Debug("unchanged, skipping reimport", "path", path)
		return
	}
	db.reimport(h)
}

// removeMissing drops the entry of a deleted file, or every entry below a
// deleted directory, and cleans up sidecars left behind.
func (db *AssetDatabase) removeMissing(path string) {
	handles := db.registry.Under(path)
	if h, ok := db.registry.FindByPath(path); ok {
		handles = append(handles, h)
	}
	for _, h := range handles {
		e, err := db.registry.Get(h)
		if err != nil {
			continue
		}
		p := e.Path
		if err := db.removeEntry(h); err != nil {
			db.logger.Warn("remove failed", "path", p, "err", err)
			continue
		}
		if err := identity.DeleteMetadata(p); err != nil {
			db.logger.Debug("cannot delete orphan metadata", "path", p, "err", err)
		}
		db.logger.Info("removed", "path", p)
	}
}

/** @brief Outcome of a ReimportAll pass. */
type Report struct {
	Imported   []string
	Reimported []string
	Removed    []string
	/** @brief Path -> error for assets that failed to load. */
	Failed map[string]error
}

// ReimportAll walks the asset directory, imports every file not yet known and
// reimports every known one. Materials go last so their shader sources are
// already current. Entries whose file vanished are removed. A failing asset
// never stops the pass.
func (db *AssetDatabase) ReimportAll() (*Report, error) {
	report := &Report{Failed: map[string]error{}}

	var files []string
	err := filepath.WalkDir(db.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != db.root && len(d.Name()) > 0 && d.Name()[0] == '.' {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || ignored(path) {
			return nil
		}
		files = append(files, registry.NormalizePath(path))
		return nil
	})
	if err != nil {
		return report, err
	}

	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f] = struct{}{}
	}
	var gone []registry.Handle
	db.registry.Each(func(e *registry.AssetEntry) bool {
		if _, ok := present[e.Path]; !ok {
			gone = append(gone, e.Handle)
		}
		return true
	})
	for _, h := range gone {
		e, _ := db.registry.Get(h)
		p := e.Path
		if err := db.removeEntry(h); err == nil {
			report.Removed = append(report.Removed, p)
		}
	}

	// stable order with materials last
	slices.SortStableFunc(files, func(a, b string) int {
		ma := metadata.KindForPath(a) == metadata.AssetKindMaterial
		mb := metadata.KindForPath(b) == metadata.AssetKindMaterial
		switch {
		case ma && !mb:
			return 1
		case mb && !ma:
			return -1
		}
		return strings.Compare(a, b)
	})
	for _, f := range files {
		db.queue.Cancel(f)
		if h, ok := db.registry.FindByPath(f); ok {
			if err := db.reimport(h); err != nil {
				report.Failed[f] = err
				continue
			}
			report.Reimported = append(report.Reimported, f)
			continue
		}
		if _, err := db.Import(f); err != nil {
			report.Failed[f] = err
			continue
		}
		if h, ok := db.registry.FindByPath(f); ok {
			e, _ := db.registry.Get(h)
			if u, ok := e.Payload.(*registry.UnknownPayload); ok && e.Kind != metadata.AssetKindUnknown {
				report.Failed[f] = fmt.Errorf("%w: %s", core.ErrImportError, u.Reason)
			}
		}
		report.Imported = append(report.Imported, f)
	}
	db.logger.Info("reimport all done",
		"imported", len(report.Imported),
		"reimported", len(report.Reimported),
		"removed", len(report.Removed),
		"failed", len(report.Failed))
	return report, nil
}
