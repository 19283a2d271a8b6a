// Package identity assigns every asset a GUID that outlives renames and
// restarts. The GUID lives in a JSON sidecar next to the asset:
// <asset>.dmeta containing {"guid": "<uuid>"}.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/spaghettifunk/delta/engine/core"
)

// MetadataExtension is reserved: files carrying it are never assets.
const MetadataExtension = ".dmeta"

// AssetId is a 128-bit identifier persisted in the sidecar.
type AssetId = uuid.UUID

var NilId = uuid.Nil

type sidecar struct {
	GUID string `json:"guid"`
}

// MetadataPath returns the sidecar path for an asset.
func MetadataPath(path string) string {
	return path + MetadataExtension
}

// IsMetadataPath reports whether path is a sidecar file.
func IsMetadataPath(path string) bool {
	return filepath.Ext(path) == MetadataExtension
}

// ReadId returns the GUID stored next to path without minting one.
// ErrFileNotFound when there is no sidecar, ErrMetadataCorrupt when it cannot
// be used.
func ReadId(path string) (AssetId, error) {
	meta := MetadataPath(path)
	data, err := os.ReadFile(meta)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NilId, fmt.Errorf("%w: %s", core.ErrFileNotFound, meta)
		}
		return NilId, err
	}
	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return NilId, fmt.Errorf("%w: %s: %v", core.ErrMetadataCorrupt, meta, err)
	}
	if sc.GUID == "" {
		return NilId, fmt.Errorf("%w: %s: missing guid", core.ErrMetadataCorrupt, meta)
	}
	id, err := uuid.Parse(sc.GUID)
	if err != nil {
		return NilId, fmt.Errorf("%w: %s: %v", core.ErrMetadataCorrupt, meta, err)
	}
	return id, nil
}

// GetOrCreateId returns the persisted GUID for path, minting and writing a new
// one when no sidecar exists. A sidecar that exists but cannot be parsed is
// reported as ErrMetadataCorrupt; the caller decides whether to regenerate.
func GetOrCreateId(path string) (AssetId, error) {
	id, err := ReadId(path)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, core.ErrFileNotFound) {
		return NilId, err
	}
	id = uuid.New()
	if err := WriteId(path, id); err != nil {
		return NilId, err
	}
	return id, nil
}

// RegenerateId overwrites the sidecar with a freshly minted GUID.
func RegenerateId(path string) (AssetId, error) {
	id := uuid.New()
	if err := WriteId(path, id); err != nil {
		return NilId, err
	}
	return id, nil
}

// WriteId persists id as the GUID of path. The sidecar is written to a
// temporary file first and renamed into place.
func WriteId(path string, id AssetId) error {
	data, err := json.MarshalIndent(sidecar{GUID: id.String()}, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	meta := MetadataPath(path)
	tmp, err := os.CreateTemp(filepath.Dir(meta), ".dmeta-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), meta)
}

// RenameMetadata moves the sidecar of from so that it tracks to. When the
// sidecar already sits at the destination (the whole directory was moved) it
// is left alone. The GUID is never touched.
func RenameMetadata(from, to string) error {
	src, dst := MetadataPath(from), MetadataPath(to)
	if _, err := os.Stat(src); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if _, err := os.Stat(dst); err == nil {
			return nil
		}
		return fmt.Errorf("%w: %s", core.ErrFileNotFound, src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

// DeleteMetadata removes the sidecar of path. Missing sidecars are ignored.
func DeleteMetadata(path string) error {
	err := os.Remove(MetadataPath(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
