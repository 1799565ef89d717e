package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/shutterdeck/internal/events"
)

// eventTypes names every machine event on the SSE stream.
var eventTypes = map[string]any{
	"countdown-progress": events.CountdownProgressEvent{},
	"countdown-cleared":  events.CountdownClearedEvent{},
	"overlay-configured": events.OverlayConfiguredEvent{},
	"overlay-started":    events.OverlayStartedEvent{},
	"overlay-ended":      events.OverlayEndedEvent{},
	"recording-state":    events.RecordingStateEvent{},
	"capture-completed":  events.CaptureCompletedEvent{},
	"capture-error":      events.CaptureErrorEvent{},
	"swipe-down":         events.SwipeDownEvent{},
	"zoom-changed":       events.ZoomChangedEvent{},
	"zoom-failed":        events.ZoomFailedEvent{},
	"camera-changed":     events.CameraChangedEvent{},
	"camera-error":       events.CameraErrorEvent{},
	"mode-changed":       events.ModeChangedEvent{},
	"shutter-pressed":    events.ShutterPressedEvent{},
}

func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time capture machine events: countdown progress, overlay playback, recording state, captures, gestures, zoom and camera changes",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, eventTypes, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)
		unsubscribe := events.SubscribeAll(s.eventBus, eventCh)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
