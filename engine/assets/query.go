package assets

import (
	"fmt"

	"github.com/spaghettifunk/delta/engine/assets/identity"
	"github.com/spaghettifunk/delta/engine/assets/registry"
	"github.com/spaghettifunk/delta/engine/core"
)

/** @brief Lifecycle of an asset path as seen by the database. */
type AssetState int

const (
	/** @brief Never imported. */
	StateUnknown AssetState = iota
	/** @brief Registered, payload degraded or still loading. */
	StateImported
	/** @brief Registered with a fully loaded payload. */
	StateValid
	/** @brief A change is waiting for the next Tick, or the last reimport failed. */
	StateStale
	/** @brief Was imported, then removed. */
	StateRemoved
)

func (s AssetState) String() string {
	switch s {
	case StateImported:
		return "imported"
	case StateValid:
		return "valid"
	case StateStale:
		return "stale"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// State reports where path is in its lifecycle.
func (db *AssetDatabase) State(path string) AssetState {
	path = db.resolve(path)
	h, ok := db.registry.FindByPath(path)
	if !ok {
		if _, ok := db.removed[path]; ok {
			return StateRemoved
		}
		return StateUnknown
	}
	if db.queue.Contains(path) {
		return StateStale
	}
	if _, ok := db.stale[path]; ok {
		return StateStale
	}
	e, _ := db.registry.Get(h)
	if db.payloadReady(e) {
		return StateValid
	}
	return StateImported
}

func (db *AssetDatabase) payloadReady(e *registry.AssetEntry) bool {
	switch p := e.Payload.(type) {
	case *registry.TexturePayload:
		return !p.Placeholder
	case *registry.MaterialPayload:
		program, ok := db.shaders.Get(p.Shader)
		return ok && program.IsCompiled()
	case *registry.ModelPayload, *registry.ScenePayload, *registry.ShaderSourcePayload:
		return true
	case *registry.UnknownPayload:
		return false
	}
	return false
}

// Exists reports whether path is imported.
func (db *AssetDatabase) Exists(path string) bool {
	_, ok := db.registry.FindByPath(db.resolve(path))
	return ok
}

func (db *AssetDatabase) ExistsID(id identity.AssetId) bool {
	_, ok := db.registry.FindById(id)
	return ok
}

// Handle returns the registry handle of an imported path.
func (db *AssetDatabase) Handle(path string) (registry.Handle, error) {
	path = db.resolve(path)
	h, ok := db.registry.FindByPath(path)
	if !ok {
		return registry.InvalidHandle, fmt.Errorf("%w: %s", core.ErrAssetNotFound, path)
	}
	return h, nil
}

// Entry returns the registry entry of an imported path.
func (db *AssetDatabase) Entry(path string) (*registry.AssetEntry, error) {
	h, err := db.Handle(path)
	if err != nil {
		return nil, err
	}
	return db.registry.Get(h)
}

// Retrieve returns a typed weak reference to the asset at path. It fails with
// ErrAssetNotFound when nothing is imported there and ErrKindMismatch when
// the payload is not a T.
func Retrieve[T registry.Payload](db *AssetDatabase, path string) (registry.Reference[T], error) {
	h, err := db.Handle(path)
	if err != nil {
		return registry.Reference[T]{}, err
	}
	return registry.NewReference[T](db.registry, h)
}

func RetrieveByID[T registry.Payload](db *AssetDatabase, id identity.AssetId) (registry.Reference[T], error) {
	h, ok := db.registry.FindById(id)
	if !ok {
		return registry.Reference[T]{}, fmt.Errorf("%w: %s", core.ErrAssetNotFound, id)
	}
	return registry.NewReference[T](db.registry, h)
}
