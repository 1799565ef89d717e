package capture

import (
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"time"

	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/zoom"
)

var (
	// ErrClosed is returned by intents sent after the machine stopped.
	ErrClosed = errors.New("capture machine closed")
	// ErrInvalidOverlay is returned by SetOverlay for a nil asset or a delay
	// outside [0, MaxDelaySeconds].
	ErrInvalidOverlay = errors.New("invalid overlay asset")
	// ErrInvalidMode is returned for an unknown capture mode.
	ErrInvalidMode = errors.New("invalid capture mode")
)

// Mode is the capture mode selected in the UI.
type Mode string

// Capture modes. Every mode but ModeVideo takes a still on shutter.
const (
	ModePhoto    Mode = "photo"
	ModeVideo    Mode = "video"
	ModeBeauty   Mode = "beauty"
	ModePortrait Mode = "portrait"
	ModeNight    Mode = "night"
)

// Modes lists every capture mode.
var Modes = []Mode{ModePhoto, ModeVideo, ModeBeauty, ModePortrait, ModeNight}

// ParseMode validates s as a capture mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// State is the coarse machine state reported to the presentation surface.
type State string

// Machine states, listed by precedence when several apply.
const (
	StateCountdown      State = "countdown"
	StateRecording      State = "recording"
	StateOverlayPlaying State = "overlay_playing"
	StateIdle           State = "idle"
)

// ShutterAction is what a shutter press resolved to.
type ShutterAction string

// Shutter actions.
const (
	ActionCancelCountdown ShutterAction = "cancel_countdown"
	ActionStartCountdown  ShutterAction = "start_countdown"
	ActionStartRecording  ShutterAction = "start_recording"
	ActionStopRecording   ShutterAction = "stop_recording"
	ActionCapturePhoto    ShutterAction = "capture_photo"
	ActionIgnored         ShutterAction = "ignored"
)

// Overlay is a video played full screen after a countdown of DelaySeconds.
//
// Handle, when set, is owned by the machine once SetOverlay accepts the
// asset. It is closed exactly once: when the asset is replaced by one with a
// different handle, cleared, or when the machine stops. Handles are told
// apart with ==; a handle of an uncomparable type always counts as new.
type Overlay struct {
	Source       string
	DelaySeconds int
	Handle       io.Closer
}

// MaxDelaySeconds is the longest countdown a time.Duration can hold.
const MaxDelaySeconds = math.MaxInt64 / int64(time.Second)

// Delay returns the countdown duration.
func (o *Overlay) Delay() time.Duration {
	return time.Duration(o.DelaySeconds) * time.Second
}

// sameHandle reports whether a and b are the same handle. Handles of a type
// that cannot be compared never match.
func sameHandle(a, b io.Closer) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() {
		return false
	}
	return va.Equal(vb)
}

// CameraError is the user-visible acquisition failure.
type CameraError struct {
	Kind      device.ErrorKind `json:"kind" example:"permission_denied" doc:"permission_denied or device_error"`
	Message   string           `json:"message" doc:"Error description"`
	Retryable bool             `json:"retryable" doc:"Whether Retry may recover"`
}

// OverlayInfo describes the configured overlay.
type OverlayInfo struct {
	Source       string `json:"source" doc:"Overlay source"`
	DelaySeconds int    `json:"delay_seconds" doc:"Countdown before playback"`
}

// CaptureInfo describes the last capture without its payload.
type CaptureInfo struct {
	Kind      device.ArtifactKind `json:"kind" example:"photo" doc:"photo or video"`
	MIMEType  string              `json:"mime_type" example:"image/jpeg" doc:"Artifact MIME type"`
	Size      int                 `json:"size" doc:"Artifact size in bytes"`
	CreatedAt time.Time           `json:"created_at" doc:"Capture time"`
}

// Snapshot is the state handed to the presentation surface.
type Snapshot struct {
	State             State         `json:"state" doc:"Coarse machine state"`
	Facing            device.Facing `json:"facing" doc:"Requested camera"`
	Mode              Mode          `json:"mode" doc:"Capture mode"`
	StreamID          string        `json:"stream_id,omitempty" doc:"Active stream, empty while acquiring or failed"`
	Acquiring         bool          `json:"acquiring" doc:"Whether a camera acquisition is in flight"`
	Recording         bool          `json:"recording" doc:"Whether the recorder is capturing"`
	Finalizing        bool          `json:"finalizing" doc:"Whether a stopped recording is being assembled"`
	Zoom              float64       `json:"zoom" doc:"Current zoom"`
	ZoomRange         *zoom.Range   `json:"zoom_range,omitempty" doc:"Zoom capability of the active camera"`
	CountdownProgress *float64      `json:"countdown_progress,omitempty" doc:"Countdown progress, absent when idle"`
	Overlay           *OverlayInfo  `json:"overlay,omitempty" doc:"Configured overlay asset"`
	OverlayPlaying    bool          `json:"overlay_playing" doc:"Whether the overlay is playing"`
	LastCapture       *CaptureInfo  `json:"last_capture,omitempty" doc:"Most recent photo or video"`
	Error             *CameraError  `json:"error,omitempty" doc:"Acquisition failure"`
}
