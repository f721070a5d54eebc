package layout

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a datastore directory's metadata file and invokes onSwap
// whenever it changes, so a long-lived cache (the engine's snapshot cache)
// can invalidate itself if the underlying database file is swapped out from
// under it by an external process.
type Watcher struct {
	fsw *fsnotify.Watcher
	log *slog.Logger
}

// Watch starts watching base's metadata file. Callers must call Close when
// done. onSwap is invoked from a background goroutine on every write,
// create, or rename event touching the metadata file; it must not block.
func Watch(base string, log *slog.Logger, onSwap func()) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(base); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	meta := MetadataPath(base)
	w := &Watcher{fsw: fsw, log: log}
	go w.run(meta, onSwap)
	return w, nil
}

func (w *Watcher) run(metadataPath string, onSwap func()) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != metadataPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) == 0 {
				continue
			}
			w.log.Debug("datastore metadata changed, invalidating cache", "path", event.Name, "op", event.Op.String())
			onSwap()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("datastore watch error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
