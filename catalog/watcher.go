package catalog

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/logger"
)

// DefaultDebounce absorbs the burst of events an editor or a rename-based
// write produces for one logical change.
const DefaultDebounce = 500 * time.Millisecond

// ReloadCallback is called after a successful reload
type ReloadCallback func(*Snapshot)

// Watcher reloads a Store when its catalog or translations file changes
type Watcher struct {
	store          *Store
	watcher        *fsnotify.Watcher
	files          map[string]bool // absolute paths we care about
	callbacks      []ReloadCallback
	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	logger         *zap.SugaredLogger
	done           chan struct{}
	stopOnce       sync.Once
}

// NewWatcher watches the directories holding the store's files. Directories
// rather than files are watched so atomic rename-over writes are seen.
func NewWatcher(store *Store, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		store:          store,
		watcher:        fsw,
		files:          map[string]bool{},
		debouncePeriod: debounce,
		logger:         log,
		done:           make(chan struct{}),
	}

	dirs := map[string]bool{}
	for _, p := range []string{store.paths.Catalog, store.paths.Translations} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "failed to resolve %s", p)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	return w, nil
}

// OnReload registers a callback to be called when the catalog is reloaded
func (w *Watcher) OnReload(callback ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching for changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Infow("Catalog file changed",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Catalog watcher error", logger.FieldError, err)

		case <-w.done:
			return
		}
	}
}

// relevant filters out sibling files, backups and temp files
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// scheduleReload debounces rapid file changes and triggers reload
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	snap, err := w.store.Reload()
	if err != nil {
		// The previous snapshot keeps serving
		w.logger.Errorw("Catalog reload failed", logger.FieldError, err)
		return
	}

	w.mu.Lock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, callback := range callbacks {
		callback(snap)
	}
}

// Stop stops watching. Pending reloads are cancelled.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
