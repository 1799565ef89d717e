package events

// Event type constants for kelindar/event.
const (
	TypeCountdownProgress uint32 = iota + 1
	TypeCountdownCleared
	TypeOverlayConfigured
	TypeOverlayStarted
	TypeOverlayEnded
	TypeRecordingState
	TypeCaptureCompleted
	TypeCaptureError
	TypeSwipeDown
	TypeZoomChanged
	TypeZoomFailed
	TypeCameraChanged
	TypeCameraError
	TypeModeChanged
	TypeShutterPressed
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CountdownProgressEvent reports countdown progress in [0, 1].
type CountdownProgressEvent struct {
	Progress  float64 `json:"progress" example:"0.5" doc:"Fraction of the delay elapsed"`
	Timestamp string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CountdownProgressEvent.
func (e CountdownProgressEvent) Type() uint32 { return TypeCountdownProgress }

// CountdownClearedEvent is published when a countdown ends without firing.
type CountdownClearedEvent struct {
	Reason    string `json:"reason" example:"cancelled" doc:"Why the countdown was cleared"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CountdownClearedEvent.
func (e CountdownClearedEvent) Type() uint32 { return TypeCountdownCleared }

// OverlayConfiguredEvent is published when the overlay asset is set or cleared.
type OverlayConfiguredEvent struct {
	Configured   bool   `json:"configured" doc:"Whether an overlay asset is configured"`
	Source       string `json:"source,omitempty" example:"/var/lib/shutterdeck/intro.mp4" doc:"Overlay source"`
	DelaySeconds int    `json:"delay_seconds" example:"3" doc:"Countdown before playback"`
	Timestamp    string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for OverlayConfiguredEvent.
func (e OverlayConfiguredEvent) Type() uint32 { return TypeOverlayConfigured }

// OverlayStartedEvent is published when overlay playback begins.
type OverlayStartedEvent struct {
	Source    string `json:"source" doc:"Overlay source"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for OverlayStartedEvent.
func (e OverlayStartedEvent) Type() uint32 { return TypeOverlayStarted }

// OverlayEndedEvent is published when overlay playback stops.
type OverlayEndedEvent struct {
	Source    string `json:"source" doc:"Overlay source"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for OverlayEndedEvent.
func (e OverlayEndedEvent) Type() uint32 { return TypeOverlayEnded }

// RecordingStateEvent reports recording transitions.
type RecordingStateEvent struct {
	Recording  bool   `json:"recording" doc:"Whether the recorder is capturing"`
	Finalizing bool   `json:"finalizing" doc:"Whether a stopped recording is being assembled"`
	Timestamp  string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingStateEvent.
func (e RecordingStateEvent) Type() uint32 { return TypeRecordingState }

// CaptureCompletedEvent is published when a photo or video replaces the last capture.
type CaptureCompletedEvent struct {
	Kind      string `json:"kind" example:"photo" doc:"photo or video"`
	MIMEType  string `json:"mime_type" example:"image/jpeg" doc:"Artifact MIME type"`
	Size      int    `json:"size" example:"48213" doc:"Artifact size in bytes"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CaptureCompletedEvent.
func (e CaptureCompletedEvent) Type() uint32 { return TypeCaptureCompleted }

// CaptureErrorEvent is published when a capture could not be produced.
type CaptureErrorEvent struct {
	Kind      string `json:"kind" example:"photo" doc:"photo or video"`
	Error     string `json:"error" doc:"Failure description"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CaptureErrorEvent.
func (e CaptureErrorEvent) Type() uint32 { return TypeCaptureError }

// SwipeDownEvent is published once per touch sequence that swipes down.
type SwipeDownEvent struct {
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SwipeDownEvent.
func (e SwipeDownEvent) Type() uint32 { return TypeSwipeDown }

// ZoomChangedEvent reports a zoom value accepted by the device.
type ZoomChangedEvent struct {
	Zoom      float64 `json:"zoom" example:"2.5" doc:"Current zoom"`
	Timestamp string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ZoomChangedEvent.
func (e ZoomChangedEvent) Type() uint32 { return TypeZoomChanged }

// ZoomFailedEvent reports a zoom value the device rejected.
type ZoomFailedEvent struct {
	Requested float64 `json:"requested" example:"2.5" doc:"Rejected zoom"`
	Error     string  `json:"error" doc:"Device error"`
	Timestamp string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ZoomFailedEvent.
func (e ZoomFailedEvent) Type() uint32 { return TypeZoomFailed }

// CameraChangedEvent is published when a stream becomes active.
type CameraChangedEvent struct {
	Facing    string  `json:"facing" example:"environment" doc:"user or environment"`
	StreamID  string  `json:"stream_id" doc:"Active stream identifier"`
	HasZoom   bool    `json:"has_zoom" doc:"Whether the camera reports a zoom range"`
	Zoom      float64 `json:"zoom" example:"1" doc:"Zoom after reset"`
	Timestamp string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CameraChangedEvent.
func (e CameraChangedEvent) Type() uint32 { return TypeCameraChanged }

// CameraErrorEvent is published when acquisition fails.
type CameraErrorEvent struct {
	Facing    string `json:"facing" example:"user" doc:"Requested facing"`
	Kind      string `json:"kind" example:"permission_denied" doc:"Error kind"`
	Message   string `json:"message" doc:"Error description"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CameraErrorEvent.
func (e CameraErrorEvent) Type() uint32 { return TypeCameraError }

// ModeChangedEvent is published when the capture mode changes.
type ModeChangedEvent struct {
	Mode      string `json:"mode" example:"video" doc:"New capture mode"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ModeChangedEvent.
func (e ModeChangedEvent) Type() uint32 { return TypeModeChanged }

// ShutterPressedEvent reports what a shutter press did.
type ShutterPressedEvent struct {
	Action    string `json:"action" example:"capture_photo" doc:"Resolved shutter action"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ShutterPressedEvent.
func (e ShutterPressedEvent) Type() uint32 { return TypeShutterPressed }
