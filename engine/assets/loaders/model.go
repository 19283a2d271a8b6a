package loaders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

/** @brief Imports mesh containers: Wavefront OBJ and glTF (text or binary). */
type ModelLoader struct{}

// Import returns the meshes stored in path. Malformed geometry fails with
// ErrImportError.
func (ml *ModelLoader) Import(path string) ([]*metadata.Mesh, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
		}
		return nil, err
	}
	switch filepath.Ext(path) {
	case ".obj":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		base := filepath.Base(path)
		meshes, err := parseOBJ(f, base[:len(base)-len(filepath.Ext(base))])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return meshes, nil
	case ".gltf", ".glb":
		return loadGLTF(path)
	default:
		return nil, fmt.Errorf("%w: %s: no importer for %s", core.ErrImportError, path, filepath.Ext(path))
	}
}
