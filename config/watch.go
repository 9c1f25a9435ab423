package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 150 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk.
// Successfully parsed configs arrive on Events; parse and watch failures on Errors.
// Both channels are buffered and drop values the consumer has not collected,
// so a main loop can poll them between ticks without blocking.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	Events  chan *Config
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches path. The containing directory is watched so editors that
// replace the file by rename are still observed.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	watcher := &Watcher{
		watcher: w,
		path:    abs,
		Events:  make(chan *Config, 1),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops watching. Channels are closed once the watch goroutine exits.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			// Editors often emit several events per save; reload once they settle.
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.sendErr(fmt.Errorf("reloading %s: %w", w.path, err))
		return
	}
	// Newest config wins over one the consumer has not picked up yet.
	select {
	case <-w.Events:
	default:
	}
	select {
	case w.Events <- cfg:
	default:
	}
}

func (w *Watcher) sendErr(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}

// Poll returns the most recent reloaded config, if any, without blocking.
func (w *Watcher) Poll() (*Config, bool) {
	select {
	case cfg, ok := <-w.Events:
		return cfg, ok && cfg != nil
	default:
		return nil, false
	}
}
