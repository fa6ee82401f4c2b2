package watch

import (
	"fmt"
	"path/filepath"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// ChangedMsg is a tea.Msg sent when the database file changed on disk,
// typically because another process (the CLI, a second window) wrote to it.
type ChangedMsg struct {
	Path string
	At   time.Time
}

// DefaultDebounce is used when a non-positive debounce is configured.
const DefaultDebounce = 250 * time.Millisecond

// Watcher turns bursts of filesystem events on a SQLite database and its
// WAL/journal side files into single ChangedMsg values.
type Watcher struct {
	dbPath   string
	debounce time.Duration
	logger   hclog.Logger

	fs      *fsnotify.Watcher
	eventCh chan ChangedMsg
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      gosync.Mutex
	running bool
}

// New creates a watcher for dbPath. Nothing is watched until Start.
func New(dbPath string, debounce time.Duration, logger hclog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}
	return &Watcher{
		dbPath:   filepath.Clean(dbPath),
		debounce: debounce,
		logger:   logger.Named("watch"),
		fs:       fs,
		eventCh:  make(chan ChangedMsg, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching the database directory and returns a tea.Cmd that
// delivers the first ChangedMsg. SQLite replaces and recreates its side
// files, so the directory is watched rather than the file itself.
func (w *Watcher) Start() (tea.Cmd, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return w.WaitForNext(), nil
	}
	dir := filepath.Dir(w.dbPath)
	if err := w.fs.Add(dir); err != nil {
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	w.running = true
	go w.loop()

	w.logger.Debug("watching database", "path", w.dbPath, "debounce", w.debounce)
	return w.WaitForNext(), nil
}

// Stop halts the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.fs.Close()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.fs.Close()
}

// WaitForNext returns a tea.Cmd that waits for the next change. It should
// be re-issued after every ChangedMsg to keep listening.
func (w *Watcher) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-w.eventCh
		if !ok {
			return nil
		}
		return msg
	}
}

// relevant reports whether name is the database or its WAL or rollback
// journal. The -shm index changes on every read and is ignored.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	return name == w.dbPath ||
		name == w.dbPath+"-wal" ||
		name == w.dbPath+"-journal"
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	defer close(w.eventCh)

	var (
		timer  *time.Timer
		fire   <-chan time.Time
		latest string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			latest = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
			w.logger.Trace("database event", "path", event.Name, "op", event.Op.String())

		case <-fire:
			fire = nil
			w.send(ChangedMsg{Path: latest, At: time.Now()})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// send delivers msg without blocking. A pending, unconsumed message already
// means "reload", so a second one is dropped.
func (w *Watcher) send(msg ChangedMsg) {
	select {
	case w.eventCh <- msg:
		w.logger.Debug("database changed", "path", msg.Path)
	default:
	}
}
