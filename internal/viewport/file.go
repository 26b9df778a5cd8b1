package viewport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long WatchFile waits for a size file to settle.
const DefaultDebounce = 50 * time.Millisecond

// ParseSize parses "1024x768", "1024px x 768px" or "1024". A missing
// height is zero.
func ParseSize(s string) (width, height float64, err error) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "px", ""))
	if s == "" {
		return 0, 0, fmt.Errorf("empty viewport size")
	}
	ws, hs, hasHeight := strings.Cut(s, "x")
	width, err = strconv.ParseFloat(strings.TrimSpace(ws), 64)
	if err != nil || width < 0 {
		return 0, 0, fmt.Errorf("invalid viewport width in %q", s)
	}
	if hasHeight {
		height, err = strconv.ParseFloat(strings.TrimSpace(hs), 64)
		if err != nil || height < 0 {
			return 0, 0, fmt.Errorf("invalid viewport height in %q", s)
		}
	}
	return width, height, nil
}

// ReadSizeFile reads a viewport size from the first line of path.
func ReadSizeFile(path string) (width, height float64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read size file: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return ParseSize(line)
}

// FileOption configures WatchFile.
type FileOption func(*fileWatch)

// WithDebounce sets the settle delay. Default: DefaultDebounce.
func WithDebounce(d time.Duration) FileOption {
	return func(w *fileWatch) {
		w.debounce = d
	}
}

// WithFileLogger sets the logger. Default: slog.Default().
func WithFileLogger(l *slog.Logger) FileOption {
	return func(w *fileWatch) {
		w.logger = l
	}
}

type fileWatch struct {
	path     string
	vp       *Viewport
	debounce time.Duration
	logger   *slog.Logger
}

// WatchFile resizes vp from the size file at path, now and whenever the file
// changes, until ctx is done.
//
// The parent directory is watched rather than the file so editors that
// replace the file by rename are followed. Unparsable contents are logged
// and skipped; the viewport keeps its previous size.
func WatchFile(ctx context.Context, path string, vp *Viewport, opts ...FileOption) error {
	w := &fileWatch{
		path:     filepath.Clean(path),
		vp:       vp,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.apply(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching viewport size file", "path", w.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("viewport watcher stopped", "path", w.path)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("size file changed", "op", event.Op.String())

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := w.apply(); err != nil {
					w.logger.Warn("size file ignored", "path", w.path, "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("viewport watcher error", "error", err)
		}
	}
}

func (w *fileWatch) apply() error {
	width, height, err := ReadSizeFile(w.path)
	if err != nil {
		return err
	}
	if err := w.vp.Resize(width, height); err != nil {
		return err
	}
	w.logger.Debug("viewport resized", "width", width, "height", height)
	return nil
}
