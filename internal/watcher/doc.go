// Package watcher reloads configuration when its file changes on disk.
//
// A FileWatcher watches the directory containing a single file so that
// editors which save by rename are handled, debounces bursts of events and
// calls a reload function once per burst:
//
//	w, err := watcher.NewFileWatcher("timelog.yaml", watcher.DefaultOptions(),
//	    func(ctx context.Context, ev watcher.FileEvent) error {
//	        return reload(ev.Path)
//	    })
//	if err != nil {
//	    return err
//	}
//	return w.Run(ctx)
//
// When fsnotify is unavailable the watcher falls back to polling the file's
// modification time.
package watcher
