package registry

import "iter"

// View iterates the entries whose payload is a T, in handle order.
func View[T Payload](r *Registry) iter.Seq2[*AssetEntry, T] {
	return func(yield func(*AssetEntry, T) bool) {
		r.Each(func(e *AssetEntry) bool {
			p, ok := e.Payload.(T)
			if !ok {
				return true
			}
			return yield(e, p)
		})
	}
}

// Count returns the number of entries holding a T.
func Count[T Payload](r *Registry) int {
	n := 0
	for range View[T](r) {
		n++
	}
	return n
}
