package config

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/oceanridge/ordinator/pkg/log"
)

// Watcher republishes a fresh SystemConfigurations whenever a file under
// its directory changes, using the same atomic-pointer RCU idiom as
// internal/snapshot: readers call Current() and never block a writer, a
// writer never blocks a reader, and a bad reload leaves the previous
// configuration live.
type Watcher struct {
	dir     string
	current atomic.Pointer[SystemConfigurations]
	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
}

// NewWatcher performs the initial Load and arms an fsnotify watch on dir
// and its known subdirectories. The returned Watcher must be stopped with
// Close.
func NewWatcher(dir string) (*Watcher, error) {
	cfg, err := Load(dir)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{dir: dir, fsw: fsw, stopCh: make(chan struct{})}
	w.current.Store(cfg)

	for _, sub := range []string{"", "actor_options", "throttling", "materials", "time_environment"} {
		if err := fsw.Add(dir + "/" + sub); err != nil && sub == "" {
			fsw.Close()
			return nil, err
		}
	}

	go w.run()
	return w, nil
}

// Current returns the most recently successfully loaded configuration.
func (w *Watcher) Current() *SystemConfigurations {
	return w.current.Load()
}

// Close stops the watch goroutine and releases the underlying fsnotify
// handle.
func (w *Watcher) Close() error {
	close(w.stopCh)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	logger := log.WithComponent("config.watcher")
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := Load(w.dir)
			if err != nil {
				logger.Error().Err(err).Msg("config reload failed, keeping previous configuration")
				continue
			}
			w.current.Store(cfg)
			logger.Info().Str("trigger", event.Name).Msg("configuration reloaded")
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("config watcher error")
		}
	}
}
