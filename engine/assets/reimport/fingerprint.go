package reimport

import (
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

/**
 * @brief Content hashes of the files as they were last imported. Lets the
 * watcher path skip saves that did not change a byte.
 */
type Fingerprints struct {
	mu     sync.Mutex
	hashes map[string]uint64
}

func NewFingerprints() *Fingerprints {
	return &Fingerprints{hashes: map[string]uint64{}}
}

// Sum hashes the contents of path.
func Sum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return 0, err
	}
	return d.Sum64(), nil
}

// Changed reports whether the contents of path differ from the recorded
// fingerprint. Unknown paths count as changed.
func (f *Fingerprints) Changed(path string) (bool, error) {
	sum, err := Sum(path)
	if err != nil {
		return true, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.hashes[path]
	return !ok || old != sum, nil
}

// Record stores the current fingerprint of path.
func (f *Fingerprints) Record(path string) error {
	sum, err := Sum(path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.hashes[path] = sum
	f.mu.Unlock()
	return nil
}

func (f *Fingerprints) Forget(path string) {
	f.mu.Lock()
	delete(f.hashes, path)
	f.mu.Unlock()
}

// Move carries the fingerprint of from over to to.
func (f *Fingerprints) Move(from, to string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sum, ok := f.hashes[from]; ok {
		delete(f.hashes, from)
		f.hashes[to] = sum
	}
}
