package ui

import (
	"log"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
)

// OptWatchFiles triggers a re-render every time one of the given files or
// directories is written to. Useful as a live-preview loop while tweaking a
// scene: touch the watched file and the image restarts with fresh settings.
func OptWatchFiles(paths []string) Option {
	return func(r *Renderer) {
		r.watchPaths = paths
	}
}

// watchAndRerender re-renders on every write/create event under paths. The
// returned stop function shuts the watcher down.
func (r *Renderer) watchAndRerender(paths []string) (stop func(), err error) {
	watcher, err := newWatcher(paths)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		// watcher is nil after a failed rebuild, so the cleanup must not
		// assume it is alive.
		defer func() { closeQuietly(watcher) }()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					if watcher = rebuildWatcher(paths, rebuildPolicy()); watcher == nil {
						return
					}
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					log.Println("[trace-ui]", ev.Name, "changed, re-rendering")
					r.rerender()
				}
			case werr, ok := <-watcher.Errors:
				if ok {
					log.Println("[trace-ui] file watcher error:", werr)
				}
				closeQuietly(watcher)
				if watcher = rebuildWatcher(paths, rebuildPolicy()); watcher == nil {
					return
				}
			}
		}
	}()
	return func() { close(done) }, nil
}

func rebuildPolicy() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 8)
}

// rebuildWatcher replaces a broken watcher, backing off between attempts.
// Returns nil once the policy is exhausted: file watching stops but the
// renderer keeps running.
func rebuildWatcher(paths []string, policy backoff.BackOff) *fsnotify.Watcher {
	var watcher *fsnotify.Watcher
	err := backoff.Retry(func() (err error) {
		watcher, err = newWatcher(paths)
		return err
	}, policy)
	if err != nil {
		log.Println("[trace-ui] giving up on file watching:", err)
		return nil
	}
	return watcher
}

func closeQuietly(watcher *fsnotify.Watcher) {
	if watcher != nil {
		_ = watcher.Close()
	}
}

func newWatcher(paths []string) (*fsnotify.Watcher, error) {
	watcher, err := newFsWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}
	return watcher, nil
}
