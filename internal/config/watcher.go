package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher hot-reloads the agent configuration when its backing file
// changes, notifying registered callbacks with the old and new Config.
// Reload events are debounced by reloadDelay to avoid reacting to a
// partially-written file.
type ConfigWatcher struct {
	configPath  string
	config      *Config
	loader      *ConfigLoader
	watcher     *fsnotify.Watcher
	callbacks   []ConfigChangeCallback
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	reloadDelay time.Duration
	lastReload  time.Time
}

// ConfigChangeCallback is invoked after a successful reload, before the new
// Config is published.
type ConfigChangeCallback func(oldConfig, newConfig *Config) error

// NewConfigWatcher builds a ConfigWatcher over the file at configPath.
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ConfigWatcher{
		configPath:  configPath,
		loader:      NewConfigLoader(filepath.Dir(configPath), "NEOAGENT"),
		watcher:     watcher,
		callbacks:   make([]ConfigChangeCallback, 0),
		ctx:         ctx,
		cancel:      cancel,
		reloadDelay: 1 * time.Second,
	}, nil
}

// Start loads the initial config, registers the file with fsnotify, and
// begins the watch loop in a background goroutine.
func (cw *ConfigWatcher) Start() error {
	cfg, err := cw.loader.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}

	cw.mu.Lock()
	cw.config = cfg
	cw.mu.Unlock()

	configFile := cw.loader.GetConfigPath()
	if configFile == "" {
		return fmt.Errorf("config file path is empty")
	}

	if err := cw.watcher.Add(configFile); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", configFile, err)
	}

	go cw.watchLoop()

	return nil
}

// Stop cancels the watch loop and releases the underlying fsnotify watcher.
func (cw *ConfigWatcher) Stop() error {
	cw.cancel()
	return cw.watcher.Close()
}

// GetConfig returns the most recently loaded Config.
func (cw *ConfigWatcher) GetConfig() *Config {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.config
}

// AddCallback registers a callback to run on every successful reload.
func (cw *ConfigWatcher) AddCallback(callback ConfigChangeCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case <-cw.ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleFileEvent(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher: %v", err)
		}
	}
}

func (cw *ConfigWatcher) handleFileEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
		now := time.Now()
		if now.Sub(cw.lastReload) < cw.reloadDelay {
			return
		}
		cw.lastReload = now

		time.AfterFunc(cw.reloadDelay, func() {
			if err := cw.reloadConfig(); err != nil {
				log.Printf("config watcher: reload failed: %v", err)
			}
		})
	}
}

func (cw *ConfigWatcher) reloadConfig() error {
	newConfig, err := cw.loader.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	cw.mu.RLock()
	oldConfig := cw.config
	cw.mu.RUnlock()

	for _, callback := range cw.callbacks {
		if err := callback(oldConfig, newConfig); err != nil {
			return fmt.Errorf("config change callback failed: %w", err)
		}
	}

	cw.mu.Lock()
	cw.config = newConfig
	cw.mu.Unlock()

	log.Print("config reloaded successfully")
	return nil
}

// WatchConfig is a convenience wrapper: build, register callback, and Start in one call.
func WatchConfig(configPath string, callback ConfigChangeCallback) (*ConfigWatcher, error) {
	watcher, err := NewConfigWatcher(configPath)
	if err != nil {
		return nil, err
	}

	if callback != nil {
		watcher.AddCallback(callback)
	}

	if err := watcher.Start(); err != nil {
		return nil, err
	}

	return watcher, nil
}

// DefaultConfigChangeCallback logs the version transition on reload.
func DefaultConfigChangeCallback(oldConfig, newConfig *Config) error {
	log.Printf("config changed: %s -> %s", oldConfig.App.Version, newConfig.App.Version)
	return nil
}

// ValidateConfigChange rejects a reload that alters fields that must stay
// fixed for the life of the process.
func ValidateConfigChange(oldConfig, newConfig *Config) error {
	if oldConfig.Agent.ID != newConfig.Agent.ID {
		return fmt.Errorf("agent ID cannot be changed during runtime")
	}

	if newConfig.Server.Port <= 0 || newConfig.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", newConfig.Server.Port)
	}

	return nil
}
