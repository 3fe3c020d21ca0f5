// Package watch feeds audio files dropped into a directory to a handler.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDelay = 2 * time.Second

var DefaultExtensions = []string{".mp3", ".wav", ".flac", ".m4a", ".ogg", ".opus", ".aac"}

// Handler processes one settled file. Its error is logged, not returned.
type Handler func(ctx context.Context, path string) error

type Options struct {
	// Delay is how long a file must stay unchanged before it is handled.
	Delay      time.Duration
	Extensions []string
	Logger     *slog.Logger
}

type Watcher struct {
	dir    string
	handle Handler
	delay  time.Duration
	exts   map[string]struct{}
	log    *slog.Logger
	fsw    *fsnotify.Watcher

	pending map[string]time.Time
	done    map[string]time.Time
}

// New starts watching dir. Events that arrive before Run are kept.
func New(dir string, handle Handler, opts Options) (*Watcher, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:     dir,
		handle:  handle,
		delay:   opts.Delay,
		exts:    map[string]struct{}{},
		log:     opts.Logger,
		fsw:     fsw,
		pending: map[string]time.Time{},
		done:    map[string]time.Time{},
	}
	if w.delay <= 0 {
		w.delay = DefaultDelay
	}
	if w.log == nil {
		w.log = slog.New(slog.DiscardHandler)
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		w.exts[e] = struct{}{}
	}
	return w, nil
}

// Run handles settled files one at a time until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	tick := time.NewTicker(w.delay / 4)
	defer tick.Stop()

	w.log.Info("watching", "dir", w.dir, "delay", w.delay)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !w.wanted(ev.Name) {
				continue
			}
			w.pending[ev.Name] = time.Now()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "err", err)
		case now := <-tick.C:
			for _, p := range w.settled(now) {
				if ctx.Err() != nil {
					return nil
				}
				w.run(ctx, p)
			}
		}
	}
}

func (w *Watcher) wanted(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := w.exts[strings.ToLower(filepath.Ext(base))]
	return ok
}

// settled removes and returns pending paths quiet for at least the delay,
// in name order.
func (w *Watcher) settled(now time.Time) []string {
	var out []string
	for p, last := range w.pending {
		if now.Sub(last) >= w.delay {
			out = append(out, p)
			delete(w.pending, p)
		}
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) run(ctx context.Context, path string) {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return
	}
	if prev, ok := w.done[path]; ok && prev.Equal(st.ModTime()) {
		return
	}
	w.done[path] = st.ModTime()

	w.log.Info("new audio", "path", path)
	if err := w.handle(ctx, path); err != nil {
		w.log.Error("process failed", "path", path, "err", err)
	}
}
