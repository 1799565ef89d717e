package led

import (
	"sync"

	"github.com/smazurov/shutterdeck/internal/events"
	"github.com/smazurov/shutterdeck/internal/logging"
)

// Manager follows capture events and keeps the tally LED in step.
type Manager struct {
	controller Controller
	bus        *events.Bus
	logger     logging.Logger

	mu         sync.Mutex
	unsubs     []func()
	recording  bool
	finalizing bool
	counting   bool
	cameraDown bool
	current    Pattern
}

// NewManager creates a manager driving controller from bus events.
func NewManager(controller Controller, bus *events.Bus, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.GetLogger("led")
	}
	return &Manager{
		controller: controller,
		bus:        bus,
		logger:     logger,
	}
}

// Start turns the LED off and subscribes to the bus.
func (m *Manager) Start() {
	m.mu.Lock()
	m.apply()
	m.unsubs = append(m.unsubs,
		m.bus.Subscribe(func(e events.RecordingStateEvent) {
			m.update(func() {
				m.recording = e.Recording
				m.finalizing = e.Finalizing
			})
		}),
		m.bus.Subscribe(func(events.CountdownProgressEvent) {
			m.update(func() { m.counting = true })
		}),
		m.bus.Subscribe(func(events.CountdownClearedEvent) {
			m.update(func() { m.counting = false })
		}),
		m.bus.Subscribe(func(events.CameraErrorEvent) {
			m.update(func() { m.cameraDown = true })
		}),
		m.bus.Subscribe(func(events.CameraChangedEvent) {
			m.update(func() { m.cameraDown = false })
		}),
	)
	m.mu.Unlock()
	m.logger.Info("LED manager started")
}

// Stop unsubscribes and turns the LED off.
func (m *Manager) Stop() {
	m.mu.Lock()
	unsubs := m.unsubs
	m.unsubs = nil
	m.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}

	m.mu.Lock()
	if err := m.controller.Set(Tally, PatternOff); err != nil {
		m.logger.Warn("Failed to turn LED off", "error", err)
	}
	m.current = PatternOff
	m.mu.Unlock()
	m.logger.Info("LED manager stopped")
}

// Pattern returns the pattern last applied.
func (m *Manager) Pattern() Pattern {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Controller returns the underlying controller.
func (m *Manager) Controller() Controller {
	return m.controller
}

func (m *Manager) update(change func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	change()
	m.apply()
}

// apply must be called with mu held.
func (m *Manager) apply() {
	next := m.pattern()
	if next == m.current {
		return
	}
	if err := m.controller.Set(Tally, next); err != nil {
		m.logger.Warn("Failed to set LED", "pattern", next, "error", err)
		return
	}
	m.logger.Debug("LED pattern changed", "from", m.current, "to", next)
	m.current = next
}

func (m *Manager) pattern() Pattern {
	switch {
	case m.recording:
		return PatternSolid
	case m.counting, m.finalizing:
		return PatternBlink
	case m.cameraDown:
		return PatternHeartbeat
	default:
		return PatternOff
	}
}
