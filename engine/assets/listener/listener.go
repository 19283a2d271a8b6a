// Package listener watches the asset directory recursively and turns raw
// fsnotify events into Added, Removed, Modified and Moved notifications.
// Sidecar metadata files never reach the callbacks.
package listener

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/delta/engine/assets/identity"
	"github.com/spaghettifunk/delta/engine/core"
)

type EventKind int

const (
	EventAdded EventKind = iota
	EventRemoved
	EventModified
	EventMoved
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventModified:
		return "modified"
	case EventMoved:
		return "moved"
	}
	return "unknown"
}

/** @brief A normalized filesystem event. From is only set for moves. */
type Event struct {
	Kind EventKind
	Path string
	From string
}

type Callback func(Event)

// DefaultMoveWindow is how long a Rename waits for the Create that completes
// it before it is reported as a removal.
const DefaultMoveWindow = 50 * time.Millisecond

type renamed struct {
	path     string
	deadline time.Time
}

type DirectoryListener struct {
	root       string
	logger     *log.Logger
	watcher    *fsnotify.Watcher
	moveWindow time.Duration

	mu        sync.RWMutex
	callbacks map[EventKind][]Callback

	// owned by the watch goroutine
	renames     []renamed
	metaRenames []renamed

	errors    chan error
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type Option func(*DirectoryListener)

func WithMoveWindow(d time.Duration) Option {
	return func(l *DirectoryListener) {
		l.moveWindow = d
	}
}

// New starts watching root and every directory below it. A root that does
// not exist, is not a directory or cannot be watched yields
// ErrWatchSetupFailed.
func New(root string, logger *log.Logger, opts ...Option) (*DirectoryListener, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrWatchSetupFailed, root, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrWatchSetupFailed, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrWatchSetupFailed, abs)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrWatchSetupFailed, err)
	}
	l := &DirectoryListener{
		root:       abs,
		logger:     core.LoggerOrDefault(logger).WithPrefix("listener"),
		watcher:    w,
		moveWindow: DefaultMoveWindow,
		callbacks:  map[EventKind][]Callback{},
		errors:     make(chan error, 16),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.watchRecursive(abs, nil); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrWatchSetupFailed, err)
	}
	go l.start()
	return l, nil
}

func (l *DirectoryListener) Root() string {
	return l.root
}

// Errors delivers watcher errors. Errors are dropped when nobody drains it.
func (l *DirectoryListener) Errors() <-chan error {
	return l.errors
}

func (l *DirectoryListener) RegisterAddCallback(fn Callback) {
	l.register(EventAdded, fn)
}

func (l *DirectoryListener) RegisterRemoveCallback(fn Callback) {
	l.register(EventRemoved, fn)
}

func (l *DirectoryListener) RegisterModifyCallback(fn Callback) {
	l.register(EventModified, fn)
}

func (l *DirectoryListener) RegisterMoveCallback(fn Callback) {
	l.register(EventMoved, fn)
}

func (l *DirectoryListener) register(kind EventKind, fn Callback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks[kind] = append(l.callbacks[kind], fn)
}

// Close stops the watch goroutine and releases the OS watch.
func (l *DirectoryListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		<-l.stopped
		err = l.watcher.Close()
	})
	return err
}

func (l *DirectoryListener) start() {
	defer close(l.stopped)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	arm := func() {
		next, ok := l.nextDeadline()
		if !ok {
			timerC = nil
			return
		}
		d := time.Until(next)
		if d < 0 {
			d = 0
		}
		if timer == nil {
			timer = time.NewTimer(d)
		} else {
			timer.Reset(d)
		}
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case e, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			l.handle(e)
			arm()

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("watch error", "err", err)
			select {
			case l.errors <- err:
			default:
			}

		case <-timerC:
			l.expireRenames(time.Now())
			arm()

		case <-l.done:
			return
		}
	}
}

func (l *DirectoryListener) handle(e fsnotify.Event) {
	path := e.Name
	meta := identity.IsMetadataPath(path)

	switch {
	case e.Has(fsnotify.Create):
		if meta {
			// a sidecar moving along with its asset
			if len(l.metaRenames) > 0 {
				l.metaRenames = l.metaRenames[1:]
			}
			return
		}
		fi, err := os.Stat(path)
		isDir := err == nil && fi.IsDir()
		if from, ok := l.takeRename(path); ok {
			if isDir {
				l.watcher.Remove(from)
				if err := l.watchRecursive(path, nil); err != nil {
					l.logger.Warn("cannot watch moved directory", "path", path, "err", err)
				}
			}
			l.emit(Event{Kind: EventMoved, Path: path, From: from})
			return
		}
		if isDir {
			// files may land in the directory before the watch is added,
			// so report what is already there
			err := l.watchRecursive(path, func(file string) {
				l.emit(Event{Kind: EventAdded, Path: file})
			})
			if err != nil {
				l.logger.Warn("cannot watch new directory", "path", path, "err", err)
			}
			return
		}
		l.emit(Event{Kind: EventAdded, Path: path})

	case e.Has(fsnotify.Write):
		if meta {
			return
		}
		l.emit(Event{Kind: EventModified, Path: path})

	case e.Has(fsnotify.Remove):
		// can't stat a deleted path; if it was a directory drop its watch
		l.watcher.Remove(path)
		if meta {
			return
		}
		l.emit(Event{Kind: EventRemoved, Path: path})

	case e.Has(fsnotify.Rename):
		r := renamed{path: path, deadline: time.Now().Add(l.moveWindow)}
		if meta {
			l.metaRenames = append(l.metaRenames, r)
			return
		}
		l.renames = append(l.renames, r)
	}
}

// takeRename pairs a Create with a pending Rename of the same file: moved
// elsewhere under the same base name, or renamed in place keeping its
// extension. A Create matching neither is a new file; the Rename then expires
// into a removal.
func (l *DirectoryListener) takeRename(path string) (string, bool) {
	idx := -1
	for i, r := range l.renames {
		if filepath.Base(r.path) == filepath.Base(path) {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, r := range l.renames {
			if renamedInPlace(r.path, path) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return "", false
	}
	from := l.renames[idx].path
	l.renames = append(l.renames[:idx], l.renames[idx+1:]...)
	return from, true
}

func renamedInPlace(from, to string) bool {
	return filepath.Dir(from) == filepath.Dir(to) &&
		strings.EqualFold(filepath.Ext(from), filepath.Ext(to))
}

func (l *DirectoryListener) expireRenames(now time.Time) {
	keep := l.renames[:0]
	var expired []string
	for _, r := range l.renames {
		if now.Before(r.deadline) {
			keep = append(keep, r)
			continue
		}
		expired = append(expired, r.path)
	}
	l.renames = keep

	metaKeep := l.metaRenames[:0]
	for _, r := range l.metaRenames {
		if now.Before(r.deadline) {
			metaKeep = append(metaKeep, r)
		}
	}
	l.metaRenames = metaKeep

	for _, path := range expired {
		// moved out of the watched tree
		l.watcher.Remove(path)
		l.emit(Event{Kind: EventRemoved, Path: path})
	}
}

func (l *DirectoryListener) nextDeadline() (time.Time, bool) {
	var next time.Time
	found := false
	for _, list := range [][]renamed{l.renames, l.metaRenames} {
		for _, r := range list {
			if !found || r.deadline.Before(next) {
				next = r.deadline
				found = true
			}
		}
	}
	return next, found
}

func (l *DirectoryListener) emit(e Event) {
	l.logger.Debug("event", "kind", e.Kind, "path", e.Path, "from", e.From)
	l.mu.RLock()
	cbs := append([]Callback(nil), l.callbacks[e.Kind]...)
	l.mu.RUnlock()
	for _, cb := range cbs {
		cb(e)
	}
}

// watchRecursive adds path and all directories below it to the watch list.
// onFile, when set, is called for every non-metadata file found.
func (l *DirectoryListener) watchRecursive(path string, onFile func(string)) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return l.watcher.Add(walkPath)
		}
		if onFile != nil && !identity.IsMetadataPath(walkPath) {
			onFile(walkPath)
		}
		return nil
	})
}
