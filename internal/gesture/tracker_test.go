package gesture

import (
	"math"
	"testing"
)

func pts(coords ...float64) []Point {
	out := make([]Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, Point{X: coords[i], Y: coords[i+1]})
	}
	return out
}

func TestTracker_PinchDoublesZoom(t *testing.T) {
	tr := NewTracker(0)
	tr.TouchStart(pts(0, 0, 100, 0), 1)

	mv := tr.TouchMove(pts(0, 0, 200, 0))
	if !mv.HasZoom {
		t.Fatal("expected a zoom request")
	}
	if math.Abs(mv.Zoom-2) > 1e-9 {
		t.Errorf("Zoom = %v, want 2", mv.Zoom)
	}
}

func TestTracker_PinchScalesFromStartZoom(t *testing.T) {
	tr := NewTracker(0)
	tr.TouchStart(pts(0, 0, 0, 100), 3)

	mv := tr.TouchMove(pts(0, 0, 0, 50))
	if !mv.HasZoom || math.Abs(mv.Zoom-1.5) > 1e-9 {
		t.Errorf("got %+v, want zoom 1.5", mv)
	}
}

func TestTracker_ZeroStartDistance(t *testing.T) {
	tr := NewTracker(0)
	tr.TouchStart(pts(10, 10, 10, 10), 1)

	if tr.Pinching() {
		t.Error("coincident touches should not open a pinch session")
	}
	if !tr.Swiping() {
		t.Error("swipe session should still open")
	}

	mv := tr.TouchMove(pts(0, 10, 300, 10))
	if mv.HasZoom {
		t.Errorf("expected no zoom request, got %v", mv.Zoom)
	}
	if math.IsNaN(mv.Zoom) || math.IsInf(mv.Zoom, 0) {
		t.Errorf("zoom must stay finite, got %v", mv.Zoom)
	}
}

func TestTracker_NonPairClearsSessions(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"none", nil},
		{"one", pts(1, 1)},
		{"three", pts(0, 0, 1, 1, 2, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(0)
			tr.TouchStart(pts(0, 0, 100, 0), 1)
			tr.TouchStart(tt.points, 1)
			if tr.Pinching() || tr.Swiping() {
				t.Error("sessions should be cleared")
			}
		})
	}
}

func TestTracker_SwipeFiresOnceAfterThreshold(t *testing.T) {
	tr := NewTracker(0)
	tr.TouchStart(pts(0, 0, 100, 0), 1)

	if mv := tr.TouchMove(pts(0, 150, 100, 150)); mv.SwipeDown {
		t.Fatal("exactly the threshold must not trigger")
	}
	if mv := tr.TouchMove(pts(0, 151, 100, 151)); !mv.SwipeDown {
		t.Fatal("expected swipe-down past the threshold")
	}
	if mv := tr.TouchMove(pts(0, 400, 100, 400)); mv.SwipeDown {
		t.Fatal("swipe-down must fire only once per session")
	}

	tr.TouchEnd()
	tr.TouchStart(pts(0, 0, 100, 0), 1)
	if mv := tr.TouchMove(pts(0, 200, 100, 200)); !mv.SwipeDown {
		t.Fatal("a new gesture should be able to fire again")
	}
}

func TestTracker_SwipeUpwardIgnored(t *testing.T) {
	tr := NewTracker(0)
	tr.TouchStart(pts(0, 500, 100, 500), 1)

	if mv := tr.TouchMove(pts(0, 100, 100, 100)); mv.SwipeDown {
		t.Error("upward movement must not trigger")
	}
}

func TestTracker_PinchAndSwipeInSameMove(t *testing.T) {
	tr := NewTracker(0)
	tr.TouchStart(pts(0, 0, 100, 0), 1)

	mv := tr.TouchMove(pts(0, 200, 200, 200))
	if !mv.HasZoom || !mv.SwipeDown {
		t.Fatalf("expected both zoom and swipe, got %+v", mv)
	}
}

func TestTracker_PointDropClearsPinchOnly(t *testing.T) {
	tr := NewTracker(0)
	tr.TouchStart(pts(0, 0, 100, 0), 1)

	tr.TouchMove(pts(0, 0))
	if tr.Pinching() {
		t.Error("pinch should be cleared when a finger lifts")
	}
	if !tr.Swiping() {
		t.Error("swipe session should survive until TouchEnd")
	}

	if mv := tr.TouchMove(pts(0, 0, 300, 0)); mv.HasZoom {
		t.Error("no zoom without a pinch session")
	}
	if mv := tr.TouchMove(pts(0, 200, 100, 200)); !mv.SwipeDown {
		t.Error("swipe should still be detectable")
	}
}

func TestTracker_CustomThreshold(t *testing.T) {
	tr := NewTracker(20)
	tr.TouchStart(pts(0, 0, 100, 0), 1)

	if mv := tr.TouchMove(pts(0, 25, 100, 25)); !mv.SwipeDown {
		t.Error("expected custom threshold to apply")
	}
}
