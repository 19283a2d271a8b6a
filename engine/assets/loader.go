package assets

import (
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

// Collaborators the database loads payloads through. The loaders package
// provides the default implementations.

/** @brief Imports mesh containers. Malformed geometry is an ErrImportError. */
type ModelImporter interface {
	Import(path string) ([]*metadata.Mesh, error)
}

/** @brief Reads and writes .dmat files. */
type MaterialIO interface {
	Load(path string) (*metadata.MaterialDocument, error)
	Save(doc *metadata.MaterialDocument, path string) error
}

type SceneReader interface {
	Load(path string) (*metadata.SceneDocument, error)
}

type ShaderSourceReader interface {
	LoadSource(path string) (string, error)
}

type ImageDecoder interface {
	Decode(path string) (*metadata.TextureContainer, error)
}
