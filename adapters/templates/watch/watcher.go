package templateswatch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goliatone/go-export-xlsx/export"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultDebounce is the quiet period before changed templates are evicted.
const DefaultDebounce = 100 * time.Millisecond

// Evicter drops cached templates.
type Evicter interface {
	Evict(name string)
}

// Config configures a Watcher.
type Config struct {
	// Root is the template directory, the same one given to export.DirTemplates.
	Root       string
	Debounce   time.Duration
	Extensions []string
	Logger     glog.Logger
}

// Watcher evicts cached templates when their files change on disk.
type Watcher struct {
	root       string
	cache      Evicter
	debounce   time.Duration
	extensions []string
	logger     glog.Logger
	watcher    *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	running bool
	closed  bool
}

// New creates a watcher for cfg.Root and starts watching the directory tree. Events are
// processed by Run.
func New(cfg Config, cache Evicter) (*Watcher, error) {
	if cache == nil {
		return nil, export.NewError(export.KindValidation, "template cache is required", nil)
	}
	root := cfg.Root
	if strings.TrimSpace(root) == "" {
		root = export.DefaultTemplateDir
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".xlsx", ".xlsm", ".xltx"}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		root:       root,
		cache:      cache,
		debounce:   cfg.Debounce,
		extensions: cfg.Extensions,
		logger:     glog.Ensure(cfg.Logger),
		watcher:    fsw,
		pending:    make(map[string]struct{}),
	}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("template watcher started", "root", w.root, "debounce_ms", w.debounce.Milliseconds())
	for {
		select {
		case <-ctx.Done():
			return w.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("template watcher error", "error", err)
		}
	}
}

// Close stops watching and drops pending evictions.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if event.Op.Has(fsnotify.Create) && isDir(event.Name) {
		if err := w.addTree(event.Name); err != nil {
			w.logger.Warn("template watcher add directory failed", "path", event.Name, "error", err)
		}
		return
	}
	name, ok := w.templateName(event.Name)
	if !ok {
		return
	}
	w.logger.Debug("template changed", "template", name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	names := make([]string, 0, len(w.pending))
	for name := range w.pending {
		names = append(names, name)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	for _, name := range names {
		w.cache.Evict(name)
		w.logger.Info("template evicted", "template", name)
	}
}

// templateName maps a file path to the template name used by the cache.
func (w *Watcher) templateName(path string) (string, bool) {
	base := filepath.Base(path)
	// skip hidden files and office lock files (~$name.xlsx)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return "", false
	}
	ext := strings.ToLower(filepath.Ext(base))
	matched := false
	for _, allowed := range w.extensions {
		if ext == strings.ToLower(allowed) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch directory %q: %w", path, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
