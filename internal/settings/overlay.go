// Package settings is the settings surface of the capture machine: it reads
// the overlay asset from a TOML file and keeps the machine in sync as the
// file changes.
//
//	[overlay]
//	source = "/var/lib/shutterdeck/intro.mp4"
//	delay_seconds = 3
//
// An empty source clears the overlay.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/shutterdeck/internal/capture"
	"github.com/smazurov/shutterdeck/internal/config"
	"github.com/smazurov/shutterdeck/internal/logging"
)

// ErrInvalidDelay is returned for a delay_seconds outside
// [0, capture.MaxDelaySeconds].
var ErrInvalidDelay = errors.New("overlay delay_seconds out of range")

// OverlaySettings is the parsed [overlay] table.
type OverlaySettings struct {
	Source       string `toml:"source"`
	DelaySeconds int    `toml:"delay_seconds"`
}

// Configured reports whether an overlay source is set.
func (s OverlaySettings) Configured() bool {
	return s.Source != ""
}

type file struct {
	Overlay OverlaySettings `toml:"overlay"`
}

// LoadOverlay parses path. Relative sources resolve against the file's
// directory.
func LoadOverlay(path string) (OverlaySettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OverlaySettings{}, err
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return OverlaySettings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if d := f.Overlay.DelaySeconds; d < 0 || int64(d) > capture.MaxDelaySeconds {
		return OverlaySettings{}, fmt.Errorf("%w: %d", ErrInvalidDelay, f.Overlay.DelaySeconds)
	}
	if src := f.Overlay.Source; src != "" && !filepath.IsAbs(src) {
		f.Overlay.Source = filepath.Join(filepath.Dir(path), src)
	}
	return f.Overlay, nil
}

// OverlayTarget receives overlay changes. *capture.Machine implements it.
type OverlayTarget interface {
	SetOverlay(ctx context.Context, o *capture.Overlay) error
	ClearOverlay(ctx context.Context) error
}

// Opener opens the overlay source. The handle is given to the target.
type Opener func(source string) (*os.File, error)

// Sync pushes the overlay file to a target on start and on every change.
type Sync struct {
	target  OverlayTarget
	open    Opener
	logger  logging.Logger
	watcher *config.Watcher[OverlaySettings]
	ctx     context.Context
	cancel  context.CancelFunc
	current OverlaySettings
}

// NewSync creates a sync for the overlay file at path.
func NewSync(path string, target OverlayTarget, logger logging.Logger) *Sync {
	if logger == nil {
		logger = logging.GetLogger("settings")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sync{
		target: target,
		open:   os.Open,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	s.watcher = config.NewConfigWatcher(path, LoadOverlay, logger)
	s.watcher.OnReload(s.apply)
	return s
}

// Start applies the current file and starts watching it. A file that does
// not exist yet leaves the overlay unset.
func (s *Sync) Start() error {
	if err := s.watcher.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Overlay settings not applied", "error", err)
	}
	return s.watcher.Start()
}

// Stop stops watching.
func (s *Sync) Stop() error {
	s.cancel()
	return s.watcher.Stop()
}

// apply is called by Start before watching begins and then only from the
// watch loop, so calls never overlap.
func (s *Sync) apply(next OverlaySettings) {
	if next == s.current {
		return
	}

	if !next.Configured() {
		if err := s.target.ClearOverlay(s.ctx); err != nil {
			s.logger.Warn("Failed to clear overlay", "error", err)
			return
		}
		s.current = next
		return
	}

	handle, err := s.open(next.Source)
	if err != nil {
		s.logger.Error("Failed to open overlay source", "source", next.Source, "error", err)
		return
	}

	err = s.target.SetOverlay(s.ctx, &capture.Overlay{
		Source:       next.Source,
		DelaySeconds: next.DelaySeconds,
		Handle:       handle,
	})
	if err != nil {
		handle.Close()
		s.logger.Warn("Failed to set overlay", "source", next.Source, "error", err)
		return
	}
	s.current = next
	s.logger.Info("Overlay settings applied", "source", next.Source, "delay_seconds", next.DelaySeconds)
}
