// Package watcher reports when a file has settled after being edited.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches one file. Editors often save by writing a temporary file
// and renaming it, so the parent directory is watched and events are
// filtered by name.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration

	changes chan string
	errors  chan error

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a watcher for path. A change is reported once no event
// arrived for the debounce interval.
func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		path:      abs,
		debounce:  debounce,
		changes:   make(chan string, 1),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}, nil
}

// Changes delivers the watched path each time it settles.
func (w *Watcher) Changes() <-chan string { return w.changes }

// Errors delivers watch errors.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Start begins watching. The file must exist.
func (w *Watcher) Start() error {
	if _, err := os.Stat(w.path); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.eventLoop()
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- w.path:
			default:
				// A change is already pending.
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}
