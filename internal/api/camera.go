package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/shutterdeck/internal/api/models"
	"github.com/smazurov/shutterdeck/internal/capture"
	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/gesture"
)

// Machine is the part of *capture.Machine the API drives.
type Machine interface {
	PressShutter(ctx context.Context) (capture.ShutterAction, error)
	SwitchCamera(ctx context.Context) error
	Retry(ctx context.Context) error
	SetMode(ctx context.Context, mode capture.Mode) error
	SetZoom(ctx context.Context, value float64) error
	TouchStart(ctx context.Context, points []gesture.Point) error
	TouchMove(ctx context.Context, points []gesture.Point) error
	TouchEnd(ctx context.Context) error
	SetOverlay(ctx context.Context, o *capture.Overlay) error
	ClearOverlay(ctx context.Context) error
	OverlayEnded(ctx context.Context) error
	Snapshot(ctx context.Context) (capture.Snapshot, error)
	LastCapture(ctx context.Context) (device.Artifact, bool, error)
}

// machineError maps machine errors to HTTP errors.
func machineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, capture.ErrInvalidMode), errors.Is(err, capture.ErrInvalidOverlay):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, capture.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("capture machine unavailable", err)
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}

// intent registers a body-less POST operation that only reports success.
func (s *Server) intent(id, path, summary, description string, fn func(context.Context) error) {
	huma.Register(s.api, huma.Operation{
		OperationID:   id,
		Method:        http.MethodPost,
		Path:          path,
		Summary:       summary,
		Description:   description,
		Tags:          []string{"camera"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 503},
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		return nil, machineError(fn(ctx))
	})
}

func (s *Server) registerCameraRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "press-shutter",
		Method:      http.MethodPost,
		Path:        "/api/shutter",
		Summary:     "Press shutter",
		Description: "Cancel a running countdown, start the overlay countdown, toggle recording in video mode or take a photo",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 500, 503},
	}, func(ctx context.Context, _ *struct{}) (*models.ShutterResponse, error) {
		action, err := s.machine.PressShutter(ctx)
		if err != nil {
			return nil, machineError(err)
		}
		return &models.ShutterResponse{Body: models.ShutterData{Action: action}}, nil
	})

	s.intent("switch-camera", "/api/camera/switch", "Switch camera",
		"Flip between the front and back camera", s.machine.SwitchCamera)
	s.intent("retry-camera", "/api/camera/retry", "Retry camera",
		"Re-acquire the current camera after a failure", s.machine.Retry)
	s.intent("touch-end", "/api/touch/end", "Touch end",
		"End the current touch sequence", s.machine.TouchEnd)

	huma.Register(s.api, huma.Operation{
		OperationID:   "set-mode",
		Method:        http.MethodPut,
		Path:          "/api/mode",
		Summary:       "Set capture mode",
		Description:   "Select the capture mode; leaving video mode stops an active recording",
		Tags:          []string{"camera"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 422, 503},
	}, func(ctx context.Context, input *models.ModeRequest) (*struct{}, error) {
		mode, err := capture.ParseMode(input.Body.Mode)
		if err != nil {
			return nil, machineError(err)
		}
		return nil, machineError(s.machine.SetMode(ctx, mode))
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "set-zoom",
		Method:        http.MethodPut,
		Path:          "/api/zoom",
		Summary:       "Set zoom",
		Description:   "Request an absolute zoom factor",
		Tags:          []string{"camera"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 503},
	}, func(ctx context.Context, input *models.ZoomRequest) (*struct{}, error) {
		return nil, machineError(s.machine.SetZoom(ctx, input.Body.Zoom))
	})

	for _, touch := range []struct {
		id, path, summary string
		fn                func(context.Context, []gesture.Point) error
	}{
		{"touch-start", "/api/touch/start", "Touch start", s.machine.TouchStart},
		{"touch-move", "/api/touch/move", "Touch move", s.machine.TouchMove},
	} {
		huma.Register(s.api, huma.Operation{
			OperationID:   touch.id,
			Method:        http.MethodPost,
			Path:          touch.path,
			Summary:       touch.summary,
			Description:   "Report the current touch points for pinch zoom and swipe detection",
			Tags:          []string{"camera"},
			Security:      withAuth(),
			DefaultStatus: http.StatusNoContent,
			Errors:        []int{401, 503},
		}, func(ctx context.Context, input *models.TouchRequest) (*struct{}, error) {
			return nil, machineError(touch.fn(ctx, input.Body.Points))
		})
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/api/state",
		Summary:     "Get state",
		Description: "Snapshot of the capture machine",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(ctx context.Context, _ *struct{}) (*models.StateResponse, error) {
		snap, err := s.machine.Snapshot(ctx)
		if err != nil {
			return nil, machineError(err)
		}
		return &models.StateResponse{Body: snap}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-last-capture",
		Method:      http.MethodGet,
		Path:        "/api/capture/last",
		Summary:     "Download last capture",
		Description: "The most recent photo or video as raw bytes",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 503},
	}, func(ctx context.Context, _ *struct{}) (*models.CaptureResponse, error) {
		art, ok, err := s.machine.LastCapture(ctx)
		if err != nil {
			return nil, machineError(err)
		}
		if !ok {
			return nil, huma.Error404NotFound("nothing captured yet")
		}
		return &models.CaptureResponse{ContentType: art.MIMEType, Body: art.Data}, nil
	})
}

func (s *Server) registerOverlayRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "set-overlay",
		Method:        http.MethodPut,
		Path:          "/api/overlay",
		Summary:       "Set overlay",
		Description:   "Configure the overlay video played after the shutter countdown",
		Tags:          []string{"overlay"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 404, 422, 503},
	}, func(ctx context.Context, input *models.OverlayRequest) (*struct{}, error) {
		f, err := os.Open(input.Body.Source)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, huma.Error404NotFound("overlay source not found", err)
			}
			return nil, huma.Error422UnprocessableEntity("overlay source unreadable", err)
		}
		err = s.machine.SetOverlay(ctx, &capture.Overlay{
			Source:       input.Body.Source,
			DelaySeconds: input.Body.DelaySeconds,
			Handle:       f,
		})
		if err != nil {
			f.Close()
			return nil, machineError(err)
		}
		return nil, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "clear-overlay",
		Method:        http.MethodDelete,
		Path:          "/api/overlay",
		Summary:       "Clear overlay",
		Description:   "Remove the overlay, cancelling a countdown waiting to play it",
		Tags:          []string{"overlay"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 503},
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		return nil, machineError(s.machine.ClearOverlay(ctx))
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "overlay-ended",
		Method:        http.MethodPost,
		Path:          "/api/overlay/ended",
		Summary:       "Overlay ended",
		Description:   "Report that overlay playback reached its end",
		Tags:          []string{"overlay"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 503},
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		return nil, machineError(s.machine.OverlayEnded(ctx))
	})
}
