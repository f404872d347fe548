package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called once per debounced burst of changes.
type ReloadFunc func(ctx context.Context, event FileEvent) error

// FileWatcher watches a single file and calls a ReloadFunc when it changes.
type FileWatcher struct {
	path      string
	absPath   string
	opts      Options
	reload    ReloadFunc
	debouncer *Debouncer
}

// NewFileWatcher creates a watcher for path. The file itself need not exist
// yet, but its directory must.
func NewFileWatcher(path string, opts Options, reload ReloadFunc) (*FileWatcher, error) {
	if reload == nil {
		return nil, errors.New("reload function is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	info, err := os.Stat(filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", filepath.Dir(abs))
	}

	opts = opts.WithDefaults()
	return &FileWatcher{
		path:      path,
		absPath:   abs,
		opts:      opts,
		reload:    reload,
		debouncer: NewDebouncer(opts.DebounceWindow),
	}, nil
}

// Path returns the watched path as given.
func (w *FileWatcher) Path() string {
	return w.path
}

// Run watches until ctx is cancelled and returns nil then. Reload errors are
// logged and do not stop the watcher.
func (w *FileWatcher) Run(ctx context.Context) error {
	defer w.debouncer.Stop()

	if w.opts.ForcePolling {
		return w.runPolling(ctx)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("fsnotify unavailable, polling config file",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return w.runPolling(ctx)
	}
	defer func() { _ = fsw.Close() }()

	// Watch the directory: rename-over saves replace the inode, which would
	// silently end a watch on the file itself.
	if err := fsw.Add(filepath.Dir(w.absPath)); err != nil {
		slog.Warn("cannot watch config directory, polling instead",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return w.runPolling(ctx)
	}

	slog.Debug("watching config file", slog.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", slog.String("error", err.Error()))
		case ev, ok := <-w.debouncer.Output():
			if !ok {
				return nil
			}
			w.dispatch(ctx, ev)
		}
	}
}

// handleFsnotifyEvent converts events for the watched file and feeds the
// debouncer. Events for other files in the directory are ignored.
func (w *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.absPath {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      w.path,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// runPolling compares the file's modification time and size every
// PollInterval.
func (w *FileWatcher) runPolling(ctx context.Context) error {
	last, exists := w.snapshot()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur, nowExists := w.snapshot()
			var op Operation
			switch {
			case !exists && nowExists:
				op = OpCreate
			case exists && !nowExists:
				op = OpDelete
			case exists && nowExists && cur != last:
				op = OpModify
			default:
				continue
			}
			last, exists = cur, nowExists
			w.debouncer.Add(FileEvent{Path: w.path, Operation: op, Timestamp: time.Now()})
		case ev, ok := <-w.debouncer.Output():
			if !ok {
				return nil
			}
			w.dispatch(ctx, ev)
		}
	}
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

func (w *FileWatcher) snapshot() (fileSnapshot, bool) {
	info, err := os.Stat(w.absPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("stat config file", slog.String("error", err.Error()))
		}
		return fileSnapshot{}, false
	}
	return fileSnapshot{modTime: info.ModTime(), size: info.Size()}, true
}

func (w *FileWatcher) dispatch(ctx context.Context, ev FileEvent) {
	slog.Info("config file changed",
		slog.String("path", ev.Path),
		slog.String("op", ev.Operation.String()))

	if err := w.reload(ctx, ev); err != nil {
		slog.Warn("config reload failed, keeping previous settings",
			slog.String("path", ev.Path),
			slog.String("error", err.Error()))
	}
}
