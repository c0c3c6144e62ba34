// Package watch reports filesystem changes to settings files and generated
// output, coalescing bursts of events into a single callback.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/SimonPop/lanterns/internal/logfields"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for events to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches individual files and whole directory trees.
//
// Files are watched through their parent directory so editors that save by
// renaming a temporary file over the original are still seen.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger

	files   map[string]bool
	trees   []string
	watched map[string]bool
}

// New creates a watcher. A zero debounce means DefaultDebounce.
func New(debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		log:      logger,
		files:    make(map[string]bool),
		watched:  make(map[string]bool),
	}, nil
}

// AddFile watches a single file.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := w.add(filepath.Dir(abs)); err != nil {
		return err
	}
	w.files[abs] = true
	return nil
}

// AddTree watches dir and every directory below it. When dir does not exist
// yet its parent is watched so the tree is picked up once it is created.
func (w *Watcher) AddTree(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	w.trees = append(w.trees, abs)
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		w.log.Debug("Directory does not exist yet, watching parent", logfields.File(abs))
		return w.add(filepath.Dir(abs))
	}
	return w.addRecursive(abs)
}

func (w *Watcher) add(dir string) error {
	dir = filepath.Clean(dir)
	if w.watched[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	w.watched[dir] = true
	w.log.Debug("Watching directory", logfields.File(dir))
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.add(path)
		}
		return nil
	})
}

// relevant reports whether name is a watched file or lies inside a tree.
func (w *Watcher) relevant(name string) bool {
	if w.files[name] {
		return true
	}
	return w.inTree(name)
}

func (w *Watcher) inTree(name string) bool {
	for _, root := range w.trees {
		if name == root || strings.HasPrefix(name, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run delivers changed paths to fn until ctx is cancelled. fn runs on the
// watcher goroutine; paths are absolute and sorted.
func (w *Watcher) Run(ctx context.Context, fn func(changed []string)) error {
	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) && w.inTree(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.log.Warn("Failed to watch new directory", logfields.File(event.Name), logfields.Error(err))
					}
				}
			}
			w.log.Debug("Change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			sort.Strings(changed)
			fn(changed)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("Watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
