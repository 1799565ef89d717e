package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type overlayFile struct {
	Source string `toml:"source"`
	Delay  int    `toml:"delay"`
}

func loadOverlayFile(path string) (overlayFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return overlayFile{}, err
	}
	var cfg overlayFile
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatcher(t *testing.T, content string, opts ...WatcherOption[overlayFile]) (string, *Watcher[overlayFile]) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts = append([]WatcherOption[overlayFile]{WithDebounce[overlayFile](50 * time.Millisecond)}, opts...)
	w := NewConfigWatcher(path, loadOverlayFile, quietLogger(), opts...)
	return path, w
}

func run(t *testing.T, w *Watcher[overlayFile]) {
	t.Helper()
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	})
	time.Sleep(50 * time.Millisecond)
}

func TestWatcher_ReloadOnWrite(t *testing.T) {
	path, w := startWatcher(t, "source = \"a.mp4\"\ndelay = 1\n")

	received := make(chan overlayFile, 1)
	w.OnReload(func(cfg overlayFile) { received <- cfg })
	run(t, w)

	if err := os.WriteFile(path, []byte("source = \"b.mp4\"\ndelay = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Source != "b.mp4" || cfg.Delay != 4 {
			t.Errorf("got %+v", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcher_ReloadOnAtomicReplace(t *testing.T) {
	path, w := startWatcher(t, "source = \"a.mp4\"\n")

	received := make(chan overlayFile, 4)
	w.OnReload(func(cfg overlayFile) { received <- cfg })
	run(t, w)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte("source = \"c.mp4\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Source != "c.mp4" {
			t.Errorf("got %+v", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload after rename")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	path, w := startWatcher(t, "source = \"a.mp4\"\n")

	var count atomic.Int32
	w.OnReload(func(overlayFile) { count.Add(1) })
	run(t, w)

	sibling := filepath.Join(filepath.Dir(path), "other.toml")
	if err := os.WriteFile(sibling, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if n := count.Load(); n != 0 {
		t.Errorf("sibling write triggered %d reloads", n)
	}
}

func TestWatcher_ErrorHandler(t *testing.T) {
	errs := make(chan error, 1)
	path, w := startWatcher(t, "source = \"a.mp4\"\n", WithErrorHandler[overlayFile](func(err error) { errs <- err }))

	received := make(chan overlayFile, 1)
	w.OnReload(func(cfg overlayFile) { received <- cfg })
	run(t, w)

	if err := os.WriteFile(path, []byte("invalid toml [[["), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errs:
	case <-received:
		t.Fatal("handler called with invalid config")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestWatcher_Debounce(t *testing.T) {
	path, w := startWatcher(t, "delay = 0\n", WithDebounce[overlayFile](200*time.Millisecond))

	var count, last atomic.Int32
	w.OnReload(func(cfg overlayFile) {
		count.Add(1)
		last.Store(int32(cfg.Delay))
	})
	run(t, w)

	for i := 1; i <= 5; i++ {
		if err := os.WriteFile(path, fmt.Appendf(nil, "delay = %d\n", i), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(30 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 debounced reload, got %d", got)
	}
	if got := last.Load(); got != 5 {
		t.Errorf("expected final delay 5, got %d", got)
	}
}

func TestWatcher_ReloadNowAndUnsubscribe(t *testing.T) {
	_, w := startWatcher(t, "source = \"a.mp4\"\ndelay = 2\n")

	var first, second atomic.Int32
	unsub := w.OnReload(func(overlayFile) { first.Add(1) })
	w.OnReload(func(overlayFile) { second.Add(1) })

	if err := w.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	unsub()
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if first.Load() != 1 || second.Load() != 2 {
		t.Errorf("handler calls = %d, %d; want 1, 2", first.Load(), second.Load())
	}
}

func TestWatcher_ReloadMissingFile(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "absent.toml"), loadOverlayFile, quietLogger())
	if err := w.Reload(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Reload = %v, want not-exist error", err)
	}
}

func TestWatcher_ConcurrentSubscriptions(t *testing.T) {
	path, w := startWatcher(t, "delay = 0\n", WithDebounce[overlayFile](10*time.Millisecond))
	run(t, w)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := w.OnReload(func(overlayFile) {})
			time.Sleep(time.Millisecond)
			unsub()
		}()
	}

	for i := range 10 {
		if err := os.WriteFile(path, fmt.Appendf(nil, "delay = %d\n", i), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	wg.Wait()
}

func TestWatcher_StopHaltsReloads(t *testing.T) {
	path, w := startWatcher(t, "delay = 1\n")

	var count atomic.Int32
	w.OnReload(func(overlayFile) { count.Add(1) })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("delay = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected no reloads after Stop, got %d", got)
	}
}
