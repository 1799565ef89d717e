// Package zoom keeps the current zoom factor of a camera within the range the
// device reports. A camera without a range only accepts Default.
//
// Callers that push zoom values asynchronously split each push into Prepare
// and Settle; Apply does both in one blocking call.
package zoom

import (
	"context"

	"github.com/smazurov/shutterdeck/internal/logging"
)

// Default is the zoom factor of a device without a zoom range.
const Default = 1.0

// Range is a device zoom capability.
type Range struct {
	Min  float64 `json:"min" doc:"Minimum zoom factor"`
	Max  float64 `json:"max" doc:"Maximum zoom factor"`
	Step float64 `json:"step" doc:"Zoom granularity"`
}

// Valid reports whether min <= max and step > 0.
func (r Range) Valid() bool {
	return r.Min <= r.Max && r.Step > 0
}

// Clamp limits v to [Min, Max].
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Request is a clamped zoom value waiting to be pushed to the device.
type Request struct {
	Seq   uint64
	Value float64
}

// Pusher applies a zoom value to the active device.
type Pusher func(ctx context.Context, value float64) error

// Controller owns the current zoom and the active range.
//
// Applying zoom is split in two so the device call can run off the owner's
// goroutine: Prepare clamps and sequences, Settle commits the result. A
// failed push leaves the current zoom untouched, and results older than the
// last committed one are dropped.
type Controller struct {
	rng     *Range
	current float64
	issued  uint64
	settled uint64
	logger  logging.Logger
}

// NewController creates a controller with no range and zoom Default.
func NewController(logger logging.Logger) *Controller {
	return &Controller{current: Default, logger: logger}
}

// Reset installs the range of a newly active device and rewinds the zoom to
// its minimum, or to Default when the device has no zoom. In-flight requests
// for the previous device are discarded.
func (c *Controller) Reset(r *Range) {
	if r != nil && !r.Valid() {
		c.logger.Warn("Ignoring invalid zoom range", "min", r.Min, "max", r.Max, "step", r.Step)
		r = nil
	}
	if r != nil {
		cp := *r
		c.rng = &cp
		c.current = cp.Min
	} else {
		c.rng = nil
		c.current = Default
	}
	c.settled = c.issued
}

// Current returns the last successfully applied zoom.
func (c *Controller) Current() float64 {
	return c.current
}

// Range returns the active range.
func (c *Controller) Range() (Range, bool) {
	if c.rng == nil {
		return Range{}, false
	}
	return *c.rng, true
}

// Prepare clamps requested into the active range. Without a range only
// Default is accepted.
func (c *Controller) Prepare(requested float64) (Request, bool) {
	var value float64
	if c.rng != nil {
		value = c.rng.Clamp(requested)
	} else {
		if requested != Default {
			return Request{}, false
		}
		value = Default
	}
	c.issued++
	return Request{Seq: c.issued, Value: value}, true
}

// Settle records the outcome of pushing req. It reports whether the current
// zoom changed.
func (c *Controller) Settle(req Request, err error) bool {
	if err != nil {
		c.logger.Warn("Zoom constraint failed", "value", req.Value, "error", err)
		return false
	}
	if req.Seq <= c.settled {
		c.logger.Debug("Dropping stale zoom result", "seq", req.Seq, "settled", c.settled)
		return false
	}
	c.settled = req.Seq
	changed := c.current != req.Value
	c.current = req.Value
	return changed
}

// Apply clamps requested, pushes it and settles the result in one call,
// for callers that can block on the device. Failures are logged and never
// returned.
func (c *Controller) Apply(ctx context.Context, requested float64, push Pusher) {
	req, ok := c.Prepare(requested)
	if !ok {
		return
	}
	c.Settle(req, push(ctx, req.Value))
}
