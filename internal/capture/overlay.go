package capture

import (
	"context"
	"fmt"

	"github.com/smazurov/shutterdeck/internal/events"
)

// SetOverlay configures the overlay asset. On success the machine owns
// o.Handle; on error the caller keeps it. Replacing a playing overlay stops
// its playback. A running countdown keeps running and plays the new asset.
func (m *Machine) SetOverlay(ctx context.Context, o *Overlay) error {
	if o == nil {
		return fmt.Errorf("%w: nil asset", ErrInvalidOverlay)
	}
	if o.DelaySeconds < 0 || int64(o.DelaySeconds) > MaxDelaySeconds {
		return fmt.Errorf("%w: delay %d out of range", ErrInvalidOverlay, o.DelaySeconds)
	}
	asset := *o

	return m.call(ctx, func() {
		m.stopOverlay()
		if prev := m.overlay; prev != nil && !sameHandle(prev.Handle, asset.Handle) {
			m.releaseOverlay(prev)
		}
		m.overlay = &asset

		m.logger.Info("Overlay configured", "source", asset.Source, "delay_seconds", asset.DelaySeconds)
		m.publish(events.OverlayConfiguredEvent{
			Configured:   true,
			Source:       asset.Source,
			DelaySeconds: asset.DelaySeconds,
			Timestamp:    m.now(),
		})
	})
}

// ClearOverlay removes the overlay asset, cancelling a countdown waiting to
// play it and stopping its playback.
func (m *Machine) ClearOverlay(ctx context.Context) error {
	return m.call(ctx, func() {
		if m.overlay == nil {
			return
		}
		m.countdown.Cancel()
		m.stopOverlay()
		m.releaseOverlay(m.overlay)
		m.overlay = nil

		m.logger.Info("Overlay cleared")
		m.publish(events.OverlayConfiguredEvent{Timestamp: m.now()})
	})
}

// OverlayEnded reports that overlay playback reached its end. The asset
// stays configured for the next shutter press.
func (m *Machine) OverlayEnded(ctx context.Context) error {
	return m.call(ctx, m.stopOverlay)
}

func (m *Machine) startOverlay() {
	if m.overlay == nil {
		return
	}
	m.playing = true
	m.logger.Info("Overlay playback started", "source", m.overlay.Source)
	m.publish(events.OverlayStartedEvent{Source: m.overlay.Source, Timestamp: m.now()})
}

func (m *Machine) stopOverlay() {
	if !m.playing {
		return
	}
	m.playing = false
	m.publish(events.OverlayEndedEvent{Source: m.overlay.Source, Timestamp: m.now()})
}

func (m *Machine) releaseOverlay(o *Overlay) {
	if o.Handle == nil {
		return
	}
	if err := o.Handle.Close(); err != nil {
		m.logger.Warn("Failed to release overlay handle", "source", o.Source, "error", err)
	}
}
