package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type transcript struct {
	steps  []stepLine
	events []string
	raw    string
}

func parseTranscript(t *testing.T, out string) transcript {
	t.Helper()
	tr := transcript{raw: out}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(scanner.Bytes(), &probe); err != nil {
			t.Fatalf("invalid line %q: %v", scanner.Text(), err)
		}
		if name, ok := probe["event"]; ok {
			var s string
			json.Unmarshal(name, &s)
			tr.events = append(tr.events, s)
			continue
		}
		var step stepLine
		if err := json.Unmarshal(scanner.Bytes(), &step); err != nil {
			t.Fatal(err)
		}
		tr.steps = append(tr.steps, step)
	}
	return tr
}

func (tr transcript) has(event string) bool {
	for _, e := range tr.events {
		if e == event {
			return true
		}
	}
	return false
}

func run(t *testing.T, script *Script) transcript {
	t.Helper()
	var out bytes.Buffer
	if err := RunScript(context.Background(), script, &out); err != nil {
		t.Fatalf("RunScript failed: %v\n%s", err, out.String())
	}
	return parseTranscript(t, out.String())
}

func TestRunScript_Photo(t *testing.T) {
	tr := run(t, &Script{
		Steps: []Step{
			{Do: "wait", WaitMs: 50},
			{Do: "shutter"},
			{Do: "wait", WaitMs: 100},
			{Do: "state"},
		},
	})

	if len(tr.steps) != 4 {
		t.Fatalf("steps = %+v", tr.steps)
	}
	if tr.steps[1].Result != "capture_photo" {
		t.Errorf("shutter result = %v, want capture_photo", tr.steps[1].Result)
	}
	for _, want := range []string{"CameraChangedEvent", "ShutterPressedEvent", "CaptureCompletedEvent"} {
		if !tr.has(want) {
			t.Errorf("missing %s in %v", want, tr.events)
		}
	}
}

func TestRunScript_VideoRecording(t *testing.T) {
	tr := run(t, &Script{
		Mode:            "video",
		ChunkIntervalMs: 20,
		Steps: []Step{
			{Do: "wait", WaitMs: 50},
			{Do: "shutter"},
			{Do: "wait", WaitMs: 100},
			{Do: "shutter"},
			{Do: "wait", WaitMs: 100},
		},
	})

	if tr.steps[1].Result != "start_recording" || tr.steps[3].Result != "stop_recording" {
		t.Errorf("shutter results = %v, %v", tr.steps[1].Result, tr.steps[3].Result)
	}
	if !tr.has("RecordingStateEvent") || !tr.has("CaptureCompletedEvent") {
		t.Errorf("events = %v", tr.events)
	}
}

func TestRunScript_OverlayCountdown(t *testing.T) {
	tr := run(t, &Script{
		TickIntervalMs: 50,
		Steps: []Step{
			{Do: "overlay", Source: "intro.mp4", Delay: 1},
			{Do: "shutter"},
			{Do: "wait", WaitMs: 1300},
			{Do: "overlay_ended"},
		},
	})

	if tr.steps[1].Result != "start_countdown" {
		t.Errorf("shutter result = %v", tr.steps[1].Result)
	}
	for _, want := range []string{"CountdownProgressEvent", "CountdownClearedEvent", "OverlayStartedEvent", "OverlayEndedEvent"} {
		if !tr.has(want) {
			t.Errorf("missing %s in %v", want, tr.events)
		}
	}
}

func TestRunScript_CameraFailure(t *testing.T) {
	tr := run(t, &Script{
		Facing: "user",
		Steps: []Step{
			{Do: "fail_camera", Facing: "environment", Fail: "permission"},
			{Do: "switch"},
			{Do: "wait", WaitMs: 50},
			{Do: "fail_camera", Facing: "environment"},
			{Do: "retry"},
			{Do: "wait", WaitMs: 50},
		},
	})

	if !tr.has("CameraErrorEvent") {
		t.Errorf("missing CameraErrorEvent in %v", tr.events)
	}
	if !strings.Contains(tr.raw, "permission_denied") {
		t.Errorf("transcript lacks permission_denied:\n%s", tr.raw)
	}
}

func TestRunScript_UnknownStep(t *testing.T) {
	var out bytes.Buffer
	err := RunScript(context.Background(), &Script{Steps: []Step{{Do: "teleport"}}}, &out)
	if err == nil || !strings.Contains(err.Error(), "teleport") {
		t.Errorf("err = %v, want unknown step", err)
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.toml")
	content := `tick_interval_ms = 50
mode = "video"

[[step]]
do = "touch_start"
points = [{x = 0.0, y = 0.0}, {x = 100.0, y = 0.0}]

[[step]]
do = "wait"
wait_ms = 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}
	if s.TickIntervalMs != 50 || s.Mode != "video" || len(s.Steps) != 2 {
		t.Fatalf("script = %+v", s)
	}
	if len(s.Steps[0].Points) != 2 || s.Steps[0].Points[1].X != 100 {
		t.Errorf("points = %+v", s.Steps[0].Points)
	}
}
