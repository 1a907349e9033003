package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"coverletter/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// CertWatcher watches certificate files and calls onChange, debounced, when
// any of them is rewritten
type CertWatcher struct {
	mu sync.Mutex

	files       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onChange func()
	logger   *errors.Logger

	running bool
}

// NewCertWatcher creates a watcher for the given files; empty paths are skipped
func NewCertWatcher(files []string, debounceDelay time.Duration, onChange func(), logger *errors.Logger) *CertWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	watched := make([]string, 0, len(files))
	for _, file := range files {
		if file != "" {
			watched = append(watched, file)
		}
	}

	return &CertWatcher{
		files:         watched,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching. Directories are watched too so atomic replacements
// (write to temp, rename over) are seen.
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cw.fsWatcher = watcher

	for _, file := range cw.files {
		if stat, err := os.Stat(file); err == nil {
			cw.lastModTime[file] = stat.ModTime()
		}
	}

	dirs := make([]string, 0, len(cw.files))
	for _, file := range cw.files {
		if dir := filepath.Dir(file); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	cw.running = true
	go cw.watchLoop()

	cw.logger.Info("Certificate file watcher started",
		"files", cw.files,
		"debounce_delay", cw.debounceDelay)
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stopChan)
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.running = false

	if err := cw.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}

	cw.logger.Info("Certificate file watcher stopped")
	return nil
}

func (cw *CertWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.isRelevant(event) {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			cw.logger.LogError(err, "File watcher error")

		case <-cw.reloadChan:
			if cw.hasAnyFileChanged() {
				cw.logger.Info("Certificate files changed, triggering reload")
				cw.onChange()
			}

		case <-cw.stopChan:
			return
		}
	}
}

// isRelevant reports whether event touches a watched file
func (cw *CertWatcher) isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return slices.ContainsFunc(cw.files, func(file string) bool {
		return filepath.Clean(event.Name) == filepath.Clean(file)
	})
}

func (cw *CertWatcher) hasAnyFileChanged() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	changed := false
	for _, file := range cw.files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		if last, ok := cw.lastModTime[file]; !ok || !stat.ModTime().Equal(last) {
			cw.lastModTime[file] = stat.ModTime()
			changed = true
		}
	}
	return changed
}

// scheduleReload (re)starts the debounce timer
func (cw *CertWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, func() {
		select {
		case cw.reloadChan <- struct{}{}:
		default:
			// a reload is already pending
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.running
}

// WatchedFiles returns the files being watched
func (cw *CertWatcher) WatchedFiles() []string {
	return slices.Clone(cw.files)
}
