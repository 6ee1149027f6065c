package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"geosales-dashboard/internal/dataset"
	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 100 * time.Millisecond

// Watcher reports changes to dataset files in a directory. Bursts of events
// for one file collapse into a single callback.
type Watcher struct {
	fw       *fsnotify.Watcher
	onChange func(name string)
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewWatcher(dir string, onChange func(name string), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fw:       fw,
		onChange: onChange,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if _, err := dataset.FormatFromName(name); err != nil {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(name)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("upload watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(debounceInterval, func() {
		w.mu.Lock()
		delete(w.timers, name)
		w.mu.Unlock()
		w.logger.Debug("dataset changed on disk", "filename", name)
		w.onChange(name)
	})
}

func (w *Watcher) Close() error {
	close(w.done)
	err := w.fw.Close()
	w.wg.Wait()

	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	clear(w.timers)
	w.mu.Unlock()
	return err
}
