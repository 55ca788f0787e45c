// Package hotreload drives gembiler watch: an fsnotify watch on one source
// file that recompiles on save, debounced so a burst of writes from an
// editor's save-as-you-type only fires the callback once. Grounded on the
// reference watcher's debounce + watch-list pattern, reused close to
// verbatim since the concern (watch a file, fire a callback on write,
// debounce bursts) is identical - only the callback itself changed, from
// reload-a-server to recompile-and-print.
package hotreload

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches one file and invokes its onChange callback after a debounce window
// following the last write event.
type Watcher struct {
	mu       sync.Mutex
	path     string
	debounce time.Duration
	onChange func(path string)

	fsw   *fsnotify.Watcher
	timer *time.Timer
	stop  chan struct{}
}

// New creates a Watcher for path; onChange fires at most once per debounce
// window.
func New(path string, debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hotreload: create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("hotreload: watch %s: %w", dir, err)
	}

	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	return &Watcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
		fsw:      fsw,
		stop:     make(chan struct{}),
	}, nil
}

// Run blocks processing filesystem events until Close is called.
func (w *Watcher) Run() {
	absPath, _ := filepath.Abs(w.path)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			eventAbs, _ := filepath.Abs(event.Name)
			if eventAbs != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleFire()
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) scheduleFire() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.onChange(w.path)
	})
}

// Close stops watching and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
