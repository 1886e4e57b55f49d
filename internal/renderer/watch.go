package renderer

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watcher reloads the document when the application script changes on disk,
// so a dev server style edit loop works without restarting the host.
type watcher struct {
	fsw    *fsnotify.Watcher
	closed chan struct{}
}

func newWatcher(appScript string, reload func()) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors commonly replace the file
	// on save, which would drop a file-level watch.
	if err := fsw.Add(filepath.Dir(appScript)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &watcher{fsw: fsw, closed: make(chan struct{})}
	target := filepath.Base(appScript)

	go func() {
		for {
			select {
			case <-w.closed:
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					log.Printf("DOC: app script changed, reloading document")
					reload()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Printf("DOC: watcher error: %v", err)
			}
		}
	}()

	return w, nil
}

func (w *watcher) close() {
	close(w.closed)
	w.fsw.Close()
}
