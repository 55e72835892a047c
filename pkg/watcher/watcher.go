// Package watcher reports changes to the document file being edited so the
// editor can offer a reload.
//
// It watches the file's directory with fsnotify, which survives editors
// that save via rename, and falls back to stat polling when fsnotify is
// unavailable, the file sits on a network or FUSE filesystem, or
// TL_FORCE_POLL is set.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/tracklane/pkg/debug"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Op is the kind of an Event.
type Op int

const (
	Modified Op = iota
	Removed
	Failed
)

func (o Op) String() string {
	switch o {
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "failed"
	}
}

// Event is one debounced change report.
type Event struct {
	Op   Op
	Path string
	Err  error
	At   time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the quiet period before a change is reported.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat interval for polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithForcePoll selects polling mode unconditionally.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// Watcher monitors one file. Events arrive on Events.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool

	mu          sync.RWMutex
	fsType      FilesystemType
	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	polling     bool
	started     bool
	cancel      context.CancelFunc
	lastMod     time.Time
	lastSize    int64
	ignoreUntil time.Time

	events chan Event
}

// New returns a watcher for path. Nothing is watched until Start.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		events:       make(chan Event, 4),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		w.lastMod, w.lastSize = info.ModTime(), info.Size()
	case os.IsPermission(err):
		return ErrPermission
	default:
		w.lastMod, w.lastSize = time.Time{}, 0
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.fsType = DetectFilesystemType(w.path)
	w.polling = w.forcePoll || envBool("TL_FORCE_POLL") || isRemoteFilesystem(w.fsType)

	if !w.polling {
		if fsw, err := fsnotify.NewWatcher(); err != nil {
			debug.Log("watcher: fsnotify unavailable: %v", err)
			w.polling = true
		} else if err := fsw.Add(filepath.Dir(w.path)); err != nil {
			debug.Log("watcher: cannot watch %s: %v", filepath.Dir(w.path), err)
			fsw.Close()
			w.polling = true
		} else {
			w.fsWatcher = fsw
			go w.runFsnotify(ctx, fsw)
		}
	}
	if w.polling {
		go w.runPolling(ctx)
	}
	debug.Log("watcher: %s on %s filesystem, polling=%v", w.path, w.fsType, w.polling)
	w.started = true
	return nil
}

// Stop ends watching. The Events channel stays open.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// Events returns the channel change reports are delivered on. Reports are
// dropped when the receiver falls behind by more than a few.
func (w *Watcher) Events() <-chan Event { return w.events }

// IgnoreFor suppresses change reports for d. The editor calls it right
// before writing the file itself.
func (w *Watcher) IgnoreFor(d time.Duration) {
	w.mu.Lock()
	w.ignoreUntil = time.Now().Add(d)
	w.mu.Unlock()
}

// Path returns the absolute watched path.
func (w *Watcher) Path() string { return w.path }

// IsStarted reports whether the watcher runs.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// IsPolling reports whether the watcher polls instead of using fsnotify.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// FilesystemType returns the classification made at Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval.
func (w *Watcher) PollInterval() time.Duration { return w.pollInterval }

func (w *Watcher) runFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	target := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove):
				w.debouncer.Cancel()
				w.emit(Event{Op: Removed, Err: ErrFileRemoved})
			case ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename):
				w.debouncer.Trigger(func() { w.emit(Event{Op: Modified}) })
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.emit(Event{Op: Failed, Err: err})
		}
	}
}

func (w *Watcher) runPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			w.mu.Lock()
			existed := !w.lastMod.IsZero()
			w.lastMod, w.lastSize = time.Time{}, 0
			w.mu.Unlock()
			if existed {
				w.emit(Event{Op: Removed, Err: ErrFileRemoved})
			}
		case os.IsPermission(err):
			w.emit(Event{Op: Failed, Err: ErrPermission})
		default:
			w.emit(Event{Op: Failed, Err: err})
		}
		return
	}

	w.mu.Lock()
	changed := !info.ModTime().Equal(w.lastMod) || info.Size() != w.lastSize
	w.lastMod, w.lastSize = info.ModTime(), info.Size()
	w.mu.Unlock()
	if changed {
		w.debouncer.Trigger(func() { w.emit(Event{Op: Modified}) })
	}
}

func (w *Watcher) emit(ev Event) {
	w.mu.RLock()
	started := w.started
	ignored := ev.Op == Modified && time.Now().Before(w.ignoreUntil)
	w.mu.RUnlock()
	if !started || ignored {
		return
	}
	ev.Path = w.path
	ev.At = time.Now()
	select {
	case w.events <- ev:
	default:
		debug.Log("watcher: dropping %s event, receiver is behind", ev.Op)
	}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
