package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// DefaultDebounceDelay coalesces the bursts of events editors and
// Kubernetes secret mounts produce for a single change.
const DefaultDebounceDelay = 100 * time.Millisecond

// kubeDataDir is the symlink Kubernetes swaps atomically when a mounted
// ConfigMap or Secret is updated. The files themselves see no event.
const kubeDataDir = "..data"

// ConfigCallback is called with each successfully reloaded configuration.
type ConfigCallback func(*GatewayConfig)

// ErrorCallback is called when a reload fails.
type ErrorCallback func(error)

// LoadFunc reads and validates the configuration at path.
type LoadFunc func(path string) (*GatewayConfig, error)

// Watcher reloads the configuration when the file, or any extra watched
// file such as a mounted credential file, changes.
type Watcher struct {
	path     string
	files    map[string]struct{}
	dirs     map[string]struct{}
	fs       *fsnotify.Watcher
	load     LoadFunc
	onChange ConfigCallback
	onError  ErrorCallback
	logger   observability.Logger
	debounce time.Duration

	mu      sync.RWMutex
	current *GatewayConfig
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// WatcherOption is a functional option for configuring the watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the quiet period before a reload.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		if delay > 0 {
			w.debounce = delay
		}
	}
}

// WithLogger sets the logger for the watcher.
func WithLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithErrorCallback sets the callback for failed reloads.
func WithErrorCallback(callback ErrorCallback) WatcherOption {
	return func(w *Watcher) {
		w.onError = callback
	}
}

// WithLoader replaces the default LoadConfig plus ValidateConfig pair,
// for callers that apply environment overrides before validating.
func WithLoader(load LoadFunc) WatcherOption {
	return func(w *Watcher) {
		if load != nil {
			w.load = load
		}
	}
}

// WithExtraPaths also triggers a reload when one of paths changes.
func WithExtraPaths(paths ...string) WatcherOption {
	return func(w *Watcher) {
		for _, p := range paths {
			if p == "" {
				continue
			}
			if abs, err := filepath.Abs(p); err == nil {
				w.track(abs)
			}
		}
	}
}

// NewWatcher creates a configuration watcher for path.
func NewWatcher(path string, callback ConfigCallback, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		fs:       fsWatcher,
		load:     loadAndValidate,
		onChange: callback,
		logger:   observability.NopLogger(),
		debounce: DefaultDebounceDelay,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	w.track(absPath)

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

func (w *Watcher) track(abs string) {
	w.files[abs] = struct{}{}
	w.dirs[filepath.Dir(abs)] = struct{}{}
}

// Start loads the configuration once, failing if it is invalid, and then
// watches in the background until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if _, err := w.loadAndStore(); err != nil {
		w.markStopped()
		return err
	}

	// Directories are watched so atomic renames keep being seen.
	for dir := range w.dirs {
		if err := w.fs.Add(dir); err != nil {
			w.markStopped()
			return err
		}
	}

	w.logger.Info("watching configuration",
		observability.String("path", w.path),
		observability.Int("files", len(w.files)),
	)

	go w.loop(ctx)
	return nil
}

func (w *Watcher) markStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// Stop ends the watch loop and releases the file watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	return w.fs.Close()
}

// LastConfig returns the last configuration that loaded successfully.
func (w *Watcher) LastConfig() *GatewayConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// ForceReload reloads immediately, as on SIGHUP. The callback runs on
// success; the previous configuration is kept on failure.
func (w *Watcher) ForceReload() error {
	cfg, err := w.loadAndStore()
	if err != nil {
		return err
	}
	w.notify(cfg)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	// Timers never deliver stale values after Stop or Reset since Go 1.23.
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped", observability.String("reason", "context done"))
			return
		case <-w.stopCh:
			w.logger.Info("config watcher stopped")
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("watched file changed",
				observability.String("path", event.Name),
				observability.String("op", event.Op.String()),
			)
			timer.Reset(w.debounce)

		case <-timer.C:
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", observability.Error(err))
			w.fail(err)
		}
	}
}

// relevant reports whether event touches a watched file, or swaps the
// data symlink of a watched Kubernetes volume.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if _, ok := w.files[name]; ok {
		return true
	}
	if filepath.Base(name) == kubeDataDir {
		_, ok := w.dirs[filepath.Dir(name)]
		return ok
	}
	return false
}

func (w *Watcher) reload() {
	w.logger.Info("reloading configuration", observability.String("path", w.path))

	cfg, err := w.loadAndStore()
	if err != nil {
		w.logger.Error("configuration reload failed, keeping previous configuration",
			observability.Error(err),
		)
		w.fail(err)
		return
	}

	w.logger.Info("configuration reloaded")
	w.notify(cfg)
}

func (w *Watcher) loadAndStore() (*GatewayConfig, error) {
	cfg, err := w.load(w.path)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
	return cfg, nil
}

func (w *Watcher) notify(cfg *GatewayConfig) {
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func (w *Watcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

func loadAndValidate(path string) (*GatewayConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
