package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports texture keys whose files changed on disk. Events are
// collected on a goroutine and handed out by Poll, so the main loop never
// blocks on the file system.
type Watcher struct {
	root string
	tree bool // follow directories created under root
	w    *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	changed map[TextureKey]struct{}
}

// NewWatcher watches root (non-recursively) and every directory in dirs,
// which are relative to root.
func NewWatcher(root string, dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range append([]string{"."}, dirs...) {
		if err := fw.Add(filepath.Join(root, d)); err != nil {
			fw.Close()
			return nil, err
		}
	}
	w := &Watcher{
		root:    root,
		w:       fw,
		done:    make(chan struct{}),
		changed: map[TextureKey]struct{}{},
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// WatchTree watches root and every directory below it. Directories created
// later are picked up as they appear.
func WatchTree(root string) (*Watcher, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			dirs = append(dirs, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	w, err := NewWatcher(root, dirs...)
	if err != nil {
		return nil, err
	}
	w.tree = true
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if ev.Has(fsnotify.Create) && w.tree {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.w.Add(ev.Name); err != nil {
						logger().Warn("texture watcher", "dir", ev.Name, "err", err)
					}
					continue
				}
			}
			key, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			w.mu.Lock()
			w.changed[filepath.ToSlash(key)] = struct{}{}
			w.mu.Unlock()
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			logger().Warn("texture watcher", "err", err)
		}
	}
}

// Poll returns the keys changed since the last call.
func (w *Watcher) Poll() []TextureKey {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.changed) == 0 {
		return nil
	}
	out := make([]TextureKey, 0, len(w.changed))
	for k := range w.changed {
		out = append(out, k)
	}
	clear(w.changed)
	return out
}

// Apply asks m to reload every changed key that is currently live.
func (w *Watcher) Apply(m *TextureManager) int {
	n := 0
	for _, key := range w.Poll() {
		if m.Reload(key) {
			n++
		}
	}
	return n
}

func (w *Watcher) Close() error {
	close(w.done)
	err := w.w.Close()
	w.wg.Wait()
	return err
}
