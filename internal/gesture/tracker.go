// Package gesture turns raw multi-touch input into zoom requests and a
// swipe-down signal.
//
// A two-finger touch opens a pinch session and a swipe session at the same
// time. Both are scoped to one gesture: they are created on a two-finger
// TouchStart and torn down on TouchEnd. The pinch session maps the change in
// finger distance onto a zoom factor relative to the zoom at gesture start.
// The swipe session watches the vertical movement of the finger midpoint and
// fires once when it moves down past the threshold.
package gesture

import "math"

// DefaultSwipeThreshold is the downward midpoint travel that triggers a swipe.
const DefaultSwipeThreshold = 150.0

// Point is a single touch position.
type Point struct {
	X float64 `json:"x" doc:"Horizontal position"`
	Y float64 `json:"y" doc:"Vertical position, growing downwards"`
}

type pinchSession struct {
	startDistance float64
	startZoom     float64
}

type swipeSession struct {
	startY    float64
	triggered bool
}

// Move is the outcome of a single TouchMove call.
type Move struct {
	// Zoom is the requested zoom factor, valid when HasZoom is set.
	Zoom    float64
	HasZoom bool
	// SwipeDown is set on the one move that crossed the swipe threshold.
	SwipeDown bool
}

// Tracker holds the sessions of the gesture in progress.
// It is not safe for concurrent use; the owner serializes calls.
type Tracker struct {
	threshold float64
	pinch     *pinchSession
	swipe     *swipeSession
}

// NewTracker creates a tracker. A non-positive threshold selects DefaultSwipeThreshold.
func NewTracker(threshold float64) *Tracker {
	if threshold <= 0 {
		threshold = DefaultSwipeThreshold
	}
	return &Tracker{threshold: threshold}
}

// TouchStart begins a gesture. Exactly two points open both sessions; any
// other count clears them.
func (t *Tracker) TouchStart(points []Point, currentZoom float64) {
	if len(points) != 2 {
		t.pinch = nil
		t.swipe = nil
		return
	}

	// Coincident fingers cannot anchor a scale factor.
	if d := distance(points[0], points[1]); d > 0 {
		t.pinch = &pinchSession{startDistance: d, startZoom: currentZoom}
	} else {
		t.pinch = nil
	}
	t.swipe = &swipeSession{startY: midY(points)}
}

// TouchMove evaluates the pinch and swipe sessions against the new points.
// The two checks are independent and may both report in the same move.
func (t *Tracker) TouchMove(points []Point) Move {
	var mv Move

	if len(points) != 2 {
		t.pinch = nil
		return mv
	}

	if t.pinch != nil && t.pinch.startDistance > 0 {
		mv.Zoom = t.pinch.startZoom * (distance(points[0], points[1]) / t.pinch.startDistance)
		mv.HasZoom = true
	}

	if t.swipe != nil && !t.swipe.triggered {
		if midY(points)-t.swipe.startY > t.threshold {
			t.swipe.triggered = true
			mv.SwipeDown = true
		}
	}

	return mv
}

// TouchEnd clears both sessions.
func (t *Tracker) TouchEnd() {
	t.pinch = nil
	t.swipe = nil
}

// Pinching reports whether a pinch session is open.
func (t *Tracker) Pinching() bool {
	return t.pinch != nil
}

// Swiping reports whether a swipe session is open, triggered or not.
func (t *Tracker) Swiping() bool {
	return t.swipe != nil
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func midY(points []Point) float64 {
	return (points[0].Y + points[1].Y) / 2
}
