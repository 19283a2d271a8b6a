// Package registry stores every imported asset in a generational arena. Each
// entry carries its identity (GUID, path, name) and exactly one payload.
//
// The registry has no internal lock. It is owned by the editor's main loop and
// mutated only there; other goroutines hand work over through queues.
package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/delta/engine/assets/identity"
	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

/** @brief The unit of storage: identity components plus one payload. */
type AssetEntry struct {
	Handle Handle
	ID     identity.AssetId
	/** @brief Absolute, cleaned filesystem path. */
	Path string
	/** @brief Display name, the stem of Path. */
	Name string
	/** @brief Kind implied by the extension of Path. */
	Kind    metadata.AssetKind
	Payload Payload
}

type slot struct {
	generation uint32
	entry      *AssetEntry
}

type Registry struct {
	slots  []slot
	free   []uint32
	byPath map[string]Handle
	byID   map[identity.AssetId]Handle
}

func New() *Registry {
	return &Registry{
		byPath: map[string]Handle{},
		byID:   map[identity.AssetId]Handle{},
	}
}

// NormalizePath returns the key under which path is stored.
func NormalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Create allocates an entry for path with the default payload of kind. The
// GUID is read from the sidecar or minted; ErrMetadataCorrupt is returned
// untouched so the caller can choose a recovery policy.
func (r *Registry) Create(path string, kind metadata.AssetKind) (Handle, error) {
	path = NormalizePath(path)
	if _, ok := r.byPath[path]; ok {
		return InvalidHandle, fmt.Errorf("%w: %s", core.ErrDuplicatePath, path)
	}
	id, err := identity.GetOrCreateId(path)
	if err != nil {
		return InvalidHandle, err
	}
	return r.CreateWithID(path, kind, id)
}

// CreateWithID is Create with a GUID the caller already resolved.
func (r *Registry) CreateWithID(path string, kind metadata.AssetKind, id identity.AssetId) (Handle, error) {
	path = NormalizePath(path)
	if _, ok := r.byPath[path]; ok {
		return InvalidHandle, fmt.Errorf("%w: %s", core.ErrDuplicatePath, path)
	}
	if other, ok := r.byID[id]; ok {
		return InvalidHandle, fmt.Errorf("%w: %s already used by %s", core.ErrDuplicateID, id, r.slots[other.Index].entry.Path)
	}

	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{generation: 1})
		index = uint32(len(r.slots) - 1)
	}
	s := &r.slots[index]
	h := Handle{Index: index, Generation: s.generation}
	s.entry = &AssetEntry{
		Handle:  h,
		ID:      id,
		Path:    path,
		Name:    Stem(path),
		Kind:    kind,
		Payload: NewPayload(kind),
	}
	r.byPath[path] = h
	r.byID[id] = h
	return h, nil
}

// Get returns the live entry for h or ErrStaleHandle.
func (r *Registry) Get(h Handle) (*AssetEntry, error) {
	if e, ok := r.TryGet(h); ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", core.ErrStaleHandle, h)
}

func (r *Registry) TryGet(h Handle) (*AssetEntry, bool) {
	if !h.IsValid() || int(h.Index) >= len(r.slots) {
		return nil, false
	}
	s := r.slots[h.Index]
	if s.entry == nil || s.generation != h.Generation {
		return nil, false
	}
	return s.entry, true
}

// IsAlive reports whether h still refers to a live entry.
func (r *Registry) IsAlive(h Handle) bool {
	_, ok := r.TryGet(h)
	return ok
}

func (r *Registry) FindByPath(path string) (Handle, bool) {
	h, ok := r.byPath[NormalizePath(path)]
	return h, ok
}

func (r *Registry) FindById(id identity.AssetId) (Handle, bool) {
	h, ok := r.byID[id]
	return h, ok
}

// Destroy releases the entry. The slot's generation is bumped so h and every
// copy of it report stale from now on, even after the slot is reused.
func (r *Registry) Destroy(h Handle) error {
	e, err := r.Get(h)
	if err != nil {
		return err
	}
	delete(r.byPath, e.Path)
	delete(r.byID, e.ID)
	s := &r.slots[h.Index]
	s.entry = nil
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	r.free = append(r.free, h.Index)
	return nil
}

// Rename points the entry at newPath and moves its sidecar along. The GUID and
// the handle are unchanged.
func (r *Registry) Rename(h Handle, newPath string) error {
	e, err := r.Get(h)
	if err != nil {
		return err
	}
	newPath = NormalizePath(newPath)
	if newPath == e.Path {
		return nil
	}
	if _, ok := r.byPath[newPath]; ok {
		return fmt.Errorf("%w: %s", core.ErrDuplicatePath, newPath)
	}
	if err := identity.RenameMetadata(e.Path, newPath); err != nil {
		if !errors.Is(err, core.ErrFileNotFound) {
			return err
		}
		// sidecar is gone: persist the GUID we still hold at the new location
		if err := identity.WriteId(newPath, e.ID); err != nil {
			return err
		}
	}
	delete(r.byPath, e.Path)
	r.byPath[newPath] = h
	e.Path = newPath
	e.Name = Stem(newPath)
	return nil
}

// SetPayload replaces the payload of a live entry.
func (r *Registry) SetPayload(h Handle, p Payload) error {
	e, err := r.Get(h)
	if err != nil {
		return err
	}
	e.Payload = p
	return nil
}

// Reference issues a weak reference to whatever payload h currently holds.
func (r *Registry) Reference(h Handle) (Reference[Payload], error) {
	e, err := r.Get(h)
	if err != nil {
		return Reference[Payload]{}, err
	}
	return Reference[Payload]{handle: h, kind: e.Payload.Kind()}, nil
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return len(r.byPath)
}

// Each visits live entries in handle order until fn returns false.
func (r *Registry) Each(fn func(*AssetEntry) bool) {
	for i := range r.slots {
		e := r.slots[i].entry
		if e == nil {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// Under returns the handles of live entries whose path lies inside dir.
func (r *Registry) Under(dir string) []Handle {
	dir = NormalizePath(dir)
	prefix := dir + string(filepath.Separator)
	var out []Handle
	r.Each(func(e *AssetEntry) bool {
		if strings.HasPrefix(e.Path, prefix) {
			out = append(out, e.Handle)
		}
		return true
	})
	return out
}
