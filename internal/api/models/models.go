// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/shutterdeck/internal/capture"
	"github.com/smazurov/shutterdeck/internal/gesture"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Name      string `json:"name" example:"shutterdeck" doc:"Product name"`
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	Modified  bool   `json:"modified" doc:"Built from a dirty working tree"`
	BuildDate string `json:"build_date" example:"2026-01-27T10:30:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go runtime version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"OS and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// State models
type StateResponse struct {
	Body capture.Snapshot
}

// Shutter models
type ShutterData struct {
	Action capture.ShutterAction `json:"action" example:"capture_photo" doc:"What the press resolved to"`
}

type ShutterResponse struct {
	Body ShutterData
}

// Mode models
type ModeData struct {
	Mode string `json:"mode" enum:"photo,video,beauty,portrait,night" example:"video" doc:"Capture mode"`
}

type ModeRequest struct {
	Body ModeData
}

// Zoom models
type ZoomData struct {
	Zoom float64 `json:"zoom" example:"2.0" doc:"Requested zoom factor, clamped to the camera range"`
}

type ZoomRequest struct {
	Body ZoomData
}

// Touch models
type TouchData struct {
	Points []gesture.Point `json:"points" minItems:"1" doc:"Current touch points"`
}

type TouchRequest struct {
	Body TouchData
}

// Overlay models
type OverlayData struct {
	Source       string `json:"source" minLength:"1" example:"/var/lib/shutterdeck/intro.mp4" doc:"Overlay video file"`
	DelaySeconds int    `json:"delay_seconds" minimum:"0" maximum:"9223372036" example:"3" doc:"Countdown before playback"`
}

type OverlayRequest struct {
	Body OverlayData
}

// Last capture download
type CaptureResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}
