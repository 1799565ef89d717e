package led

import (
	"sync"
	"testing"
	"time"

	"github.com/smazurov/shutterdeck/internal/events"
)

type mockController struct {
	mu    sync.Mutex
	calls []Pattern
}

func (m *mockController) Set(_ string, pattern Pattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, pattern)
	return nil
}

func (m *mockController) Available() []string {
	return []string{Tally}
}

func (m *mockController) last() Pattern {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

func waitPattern(t *testing.T, mgr *Manager, want Pattern) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for mgr.Pattern() != want {
		if time.Now().After(deadline) {
			t.Fatalf("pattern = %q, want %q", mgr.Pattern(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManager_Patterns(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()
	mgr := NewManager(ctrl, bus, testLogger())
	mgr.Start()
	defer mgr.Stop()

	if got := ctrl.last(); got != PatternOff {
		t.Fatalf("initial pattern = %q, want off", got)
	}

	bus.Publish(events.CountdownProgressEvent{Progress: 0})
	waitPattern(t, mgr, PatternBlink)

	bus.Publish(events.CountdownClearedEvent{Reason: "cancelled"})
	waitPattern(t, mgr, PatternOff)

	bus.Publish(events.RecordingStateEvent{Recording: true})
	waitPattern(t, mgr, PatternSolid)

	bus.Publish(events.RecordingStateEvent{Finalizing: true})
	waitPattern(t, mgr, PatternBlink)

	bus.Publish(events.RecordingStateEvent{})
	waitPattern(t, mgr, PatternOff)

	bus.Publish(events.CameraErrorEvent{Kind: "permission_denied"})
	waitPattern(t, mgr, PatternHeartbeat)

	bus.Publish(events.CameraChangedEvent{Facing: "user"})
	waitPattern(t, mgr, PatternOff)
}

func TestManager_RecordingOutranksCameraError(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, events.New(), testLogger())

	mgr.update(func() { mgr.cameraDown = true })
	mgr.update(func() { mgr.recording = true })

	if got := mgr.Pattern(); got != PatternSolid {
		t.Errorf("pattern = %q, want solid", got)
	}
}

func TestManager_StopTurnsOff(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()
	mgr := NewManager(ctrl, bus, testLogger())
	mgr.Start()

	bus.Publish(events.RecordingStateEvent{Recording: true})
	waitPattern(t, mgr, PatternSolid)

	mgr.Stop()
	if got := ctrl.last(); got != PatternOff {
		t.Errorf("pattern after Stop = %q, want off", got)
	}
}

func TestManager_Controller(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, events.New(), testLogger())
	if mgr.Controller() != ctrl {
		t.Error("Controller() did not return the original controller")
	}
}
