// Package device defines the camera collaborators the capture core consumes:
// stream acquisition with zoom control, recording and still capture.
//
// Backends live in subpackages: sim is an in-memory camera used by tests and
// the simulate command, ffmpegdev drives V4L2 cameras through ffmpeg.
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/smazurov/shutterdeck/internal/zoom"
)

// Facing selects the physical camera.
type Facing string

// Camera facings.
const (
	FacingUser        Facing = "user"        // front camera
	FacingEnvironment Facing = "environment" // back camera
)

// Opposite returns the other camera.
func (f Facing) Opposite() Facing {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

// ParseFacing accepts "user"/"front" and "environment"/"back".
func ParseFacing(s string) (Facing, error) {
	switch s {
	case "user", "front":
		return FacingUser, nil
	case "environment", "back":
		return FacingEnvironment, nil
	default:
		return "", fmt.Errorf("unknown facing %q", s)
	}
}

// Stream is a live camera feed. Stop releases every track of the stream and
// must be safe to call more than once.
type Stream interface {
	ID() string
	Facing() Facing
	Stop()
}

// Device acquires streams and controls their zoom.
type Device interface {
	AcquireStream(ctx context.Context, facing Facing) (Stream, error)
	// ZoomRange reports the zoom capability of stream, if any.
	ZoomRange(stream Stream) (zoom.Range, bool)
	ApplyZoom(ctx context.Context, stream Stream, value float64) error
}

// ChunkFunc receives encoded media as the recorder produces it.
type ChunkFunc func(chunk []byte)

// Recorder records a stream into chunks.
//
// Stop must not return before every call to the chunk callback of the
// current recording has returned.
type Recorder interface {
	Start(stream Stream, onChunk ChunkFunc) error
	Stop(ctx context.Context) error
	MIMEType() string
}

// CaptureSink renders a single still frame from a stream.
type CaptureSink interface {
	RenderFrame(ctx context.Context, stream Stream) (Artifact, error)
}

// ArtifactKind distinguishes stills from recordings.
type ArtifactKind string

// Artifact kinds.
const (
	KindPhoto ArtifactKind = "photo"
	KindVideo ArtifactKind = "video"
)

// Artifact is a finished capture.
type Artifact struct {
	Kind      ArtifactKind
	MIMEType  string
	Data      []byte
	CreatedAt time.Time
}
