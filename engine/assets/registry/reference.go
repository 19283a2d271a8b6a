package registry

import (
	"fmt"

	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

/**
 * @brief Non-owning, typed reference to a registry entry. It is resolved on
 * every access and reports invalid once the entry is destroyed or its payload
 * changed kind.
 */
type Reference[T Payload] struct {
	handle Handle
	kind   metadata.AssetKind
}

// NewReference checks that h currently holds a T and returns a reference to it.
func NewReference[T Payload](r *Registry, h Handle) (Reference[T], error) {
	e, err := r.Get(h)
	if err != nil {
		return Reference[T]{}, err
	}
	if _, ok := e.Payload.(T); !ok {
		return Reference[T]{}, fmt.Errorf("%w: %s holds %s", core.ErrKindMismatch, e.Path, e.Payload.Kind())
	}
	return Reference[T]{handle: h, kind: e.Payload.Kind()}, nil
}

func (ref Reference[T]) Handle() Handle {
	return ref.handle
}

func (ref Reference[T]) Kind() metadata.AssetKind {
	return ref.kind
}

// Resolve returns the payload behind the reference.
func (ref Reference[T]) Resolve(r *Registry) (T, error) {
	var zero T
	e, err := r.Get(ref.handle)
	if err != nil {
		return zero, err
	}
	p, ok := e.Payload.(T)
	if !ok || e.Payload.Kind() != ref.kind {
		return zero, fmt.Errorf("%w: %s holds %s, want %s", core.ErrKindMismatch, e.Path, e.Payload.Kind(), ref.kind)
	}
	return p, nil
}

// Entry returns the entry behind the reference without a kind check.
func (ref Reference[T]) Entry(r *Registry) (*AssetEntry, error) {
	return r.Get(ref.handle)
}

func (ref Reference[T]) Valid(r *Registry) bool {
	_, err := ref.Resolve(r)
	return err == nil
}
