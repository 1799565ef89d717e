package led

import "testing"

func TestNew(t *testing.T) {
	ctrl := New("", testLogger())
	if ctrl == nil {
		t.Fatal("New() returned nil")
	}
	if ctrl.Available() == nil {
		t.Error("Available() returned nil")
	}
}

func TestNew_Override(t *testing.T) {
	ctrl := New("custom_led", testLogger())
	s, ok := ctrl.(*sysfs)
	if !ok {
		t.Fatalf("New() with override = %T, want *sysfs", ctrl)
	}
	if s.leds[Tally] != "custom_led" {
		t.Errorf("tally LED = %q, want custom_led", s.leds[Tally])
	}
}

func TestLedForModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"FriendlyElec NanoPC-T6", "usr_led"},
		{"Orange Pi 5 Plus", "green_led"},
		{"Raspberry Pi 4 Model B Rev 1.4", "ACT"},
		{"unknown", ""},
	}
	for _, tt := range tests {
		if got := ledForModel(tt.model); got != tt.want {
			t.Errorf("ledForModel(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestDetectBoard(t *testing.T) {
	if model := detectBoard(); model == "" {
		t.Error("detectBoard() returned empty string")
	}
}
