package led

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestNoopController(t *testing.T) {
	ctrl := newNoop(testLogger())

	if err := ctrl.Set(Tally, PatternSolid); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if names := ctrl.Available(); len(names) != 0 {
		t.Errorf("Available() = %v, want empty slice", names)
	}
}

func fakeSysfs(t *testing.T, dir string) *sysfs {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
		t.Fatal(err)
	}
	s := newSysfs(map[string]string{Tally: dir})
	s.root = root
	return s
}

func readAttr(t *testing.T, s *sysfs, dir, attr string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(s.root, dir, attr))
	if err != nil {
		t.Fatalf("read %s: %v", attr, err)
	}
	return string(data)
}

func TestSysfsController_Set(t *testing.T) {
	tests := []struct {
		pattern        Pattern
		wantTrigger    string
		wantBrightness string
	}{
		{PatternOff, "none", "0"},
		{PatternSolid, "none", "1"},
		{PatternBlink, "timer", "1"},
		{PatternHeartbeat, "heartbeat", "1"},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			s := fakeSysfs(t, "usr_led")
			if err := s.Set(Tally, tt.pattern); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}
			if got := readAttr(t, s, "usr_led", "trigger"); got != tt.wantTrigger {
				t.Errorf("trigger = %q, want %q", got, tt.wantTrigger)
			}
			if got := readAttr(t, s, "usr_led", "brightness"); got != tt.wantBrightness {
				t.Errorf("brightness = %q, want %q", got, tt.wantBrightness)
			}
		})
	}
}

func TestSysfsController_SetErrors(t *testing.T) {
	s := fakeSysfs(t, "usr_led")

	if err := s.Set("nonexistent", PatternSolid); err == nil {
		t.Error("Set() with unknown LED should return error")
	}
	if err := s.Set(Tally, Pattern("rainbow")); err == nil {
		t.Error("Set() with unknown pattern should return error")
	}

	missing := newSysfs(map[string]string{Tally: "gone"})
	missing.root = t.TempDir()
	if err := missing.Set(Tally, PatternSolid); err == nil {
		t.Error("Set() on missing LED directory should return error")
	}
}

func TestSysfsController_Available(t *testing.T) {
	s := newSysfs(map[string]string{Tally: "ACT", "aux": "PWR"})
	got := s.Available()
	if len(got) != 2 || got[0] != "aux" || got[1] != Tally {
		t.Errorf("Available() = %v, want [aux tally]", got)
	}
}
