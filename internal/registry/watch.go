package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of writes (e.g. a publisher rewriting several
// cards) into one invalidation.
const DefaultDebounce = 250 * time.Millisecond

// Watcher invalidates a Registry's cache when card files change on disk.
type Watcher struct {
	reg       *Registry
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	stopErr   error
}

// NewWatcher creates a watcher for reg. debounce <= 0 uses DefaultDebounce.
func NewWatcher(reg *Registry, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		reg:       reg,
		fsWatcher: fsw,
		debounce:  debounce,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the configs root and every organization folder in it. The
// returned channel receives a signal after each invalidation.
func (w *Watcher) Start() (<-chan struct{}, error) {
	root := w.reg.Root()
	if err := w.fsWatcher.Add(root); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", root, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}
	for _, e := range entries {
		p := filepath.Join(root, e.Name())
		if isDir(p, e) {
			if err := w.fsWatcher.Add(p); err != nil {
				w.reg.log.Warn().Err(err).Str("path", p).Msg("cannot watch organization folder")
			}
		}
	}
	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources. Later calls return the
// first call's result.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
		w.stopErr = w.fsWatcher.Close()
	})
	return w.stopErr
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.track(event)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reg.Invalidate()
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reg.log.Warn().Err(err).Msg("watcher error")

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// track adds watches for organization folders created after Start.
func (w *Watcher) track(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) || filepath.Dir(event.Name) != w.reg.Root() {
		return
	}
	if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
		if err := w.fsWatcher.Add(event.Name); err != nil {
			w.reg.log.Warn().Err(err).Str("path", event.Name).Msg("cannot watch organization folder")
		}
	}
}
