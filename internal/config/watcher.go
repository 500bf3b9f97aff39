package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/moolen/logsieve/internal/logging"
)

// ReloadCallback receives every successfully loaded and validated config.
// A callback error is logged; the watcher keeps running.
type ReloadCallback func(cfg *AnalysisConfig) error

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// FilePath is the YAML analysis config to watch.
	FilePath string

	// Debounce coalesces bursts of file events (editor save sequences).
	// Default: 500ms.
	Debounce time.Duration
}

// Watcher reloads an analysis config file when it changes.
// Invalid reloads are logged and the previous config stays in effect.
type Watcher struct {
	config   WatcherConfig
	callback ReloadCallback
	logger   *logging.Logger

	cancel  context.CancelFunc
	stopped chan struct{}
	ready   chan struct{}

	mu            sync.Mutex
	debounceTimer *time.Timer
	current       *AnalysisConfig
}

// NewWatcher validates its arguments; it does not touch the file yet.
func NewWatcher(config WatcherConfig, callback ReloadCallback) (*Watcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}

	return &Watcher{
		config:   config,
		callback: callback,
		logger:   logging.GetLogger("config"),
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Start loads the initial config, hands it to the callback and begins
// watching. It returns once the fsnotify watch is in place.
func (w *Watcher) Start(ctx context.Context) error {
	initial, err := LoadAnalysisConfig(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}
	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}
	w.setCurrent(initial)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}
	return nil
}

// Current returns the last config accepted by the callback.
func (w *Watcher) Current() *AnalysisConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) setCurrent(cfg *AnalysisConfig) {
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
}

func (w *Watcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		w.logger.Error("failed to watch %s: %v", w.config.FilePath, err)
		return
	}

	w.logger.DebugWithFields("watching analysis config",
		logging.Field("path", w.config.FilePath),
		logging.Field("debounce", w.config.Debounce),
	)
	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			// Atomic saves replace the inode; the watch must be re-added.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.config.FilePath); err != nil {
					w.logger.Warn("failed to re-add watch after %s: %v", event.Op, err)
				}
			}
			w.scheduleReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error: %v", err)
		}
	}
}

// scheduleReload restarts the debounce timer.
func (w *Watcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *Watcher) reload() {
	cfg, err := LoadAnalysisConfig(w.config.FilePath)
	if err != nil {
		w.logger.Warn("keeping previous analysis config: %v", err)
		return
	}
	if err := w.callback(cfg); err != nil {
		w.logger.Warn("reload callback failed: %v", err)
		return
	}
	w.setCurrent(cfg)
	w.logger.Info("analysis config reloaded from %s", w.config.FilePath)
}

// Stop cancels the watch loop and waits up to 5s for it to exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()

	select {
	case <-w.stopped:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}
