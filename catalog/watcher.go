package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is a freshly loaded catalog, or an error.
type Event struct {
	// If set, an error occurred and Catalog is nil.
	Err error

	Catalog *Catalog
}

// WatcherOpts has options for a new Watcher.
type WatcherOpts struct {
	Logger *zap.Logger // If nil, nothing is logged.
}

// Watcher reloads a catalog file whenever it changes.
type Watcher struct {
	path    string
	log     *zap.Logger
	events  chan Event
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// Events returns a channel on which Events can be received. The first event
// holds the catalog as it was when the watcher started. The channel is closed
// after Close.
func (w *Watcher) Events() chan Event {
	return w.events
}

// NewWatcher starts watching the catalog file at path. The directory of path
// is watched, so that editors replacing the file are noticed.
//
// Callers must call Close to clean up.
func NewWatcher(path string, opts *WatcherOpts) (watcher *Watcher, rerr error) {
	var xopts WatcherOpts
	if opts != nil {
		xopts = *opts
	}
	if xopts.Logger == nil {
		xopts.Logger = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("catalog path: %v", err)
	}

	w := &Watcher{
		path:   abs,
		log:    xopts.Logger.With(zap.String("catalog", abs)),
		events: make(chan Event, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new file change watcher: %v", err)
	}
	w.watcher = fw

	// Ensure cleanup in case of failure.
	defer func() {
		if rerr != nil {
			fw.Close()
		}
	}()

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return nil, fmt.Errorf("registering file change watcher for %s: %v", filepath.Dir(abs), err)
	}

	w.events <- w.load()

	go w.run()

	return w, nil
}

func (w *Watcher) load() Event {
	c, err := Load(w.path)
	if err != nil {
		w.log.Warn("loading catalog", zap.Error(err))
		return Event{Err: err}
	}
	w.log.Debug("loaded catalog", zap.Int("devices", len(c.Devices)))
	return Event{Catalog: c}
}

func (w *Watcher) send(ev Event) bool {
	select {
	case w.events <- ev:
		return true
	case <-w.stop:
		return false
	}
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.events)

	for {
		select {
		case <-w.stop:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.log.Debug("catalog changed", zap.Stringer("op", ev.Op))
			if !w.send(w.load()) {
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if !w.send(Event{Err: fmt.Errorf("watching for changes: %v", err)}) {
				return
			}
		}
	}
}

// Close stops watching. Pending events are discarded.
func (w *Watcher) Close() error {
	close(w.stop)
	err := w.watcher.Close()
	<-w.done
	return err
}
