package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
// Usage: bus.Publish(SwipeDownEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case CountdownProgressEvent:
		event.Publish(b.dispatcher, e)
	case CountdownClearedEvent:
		event.Publish(b.dispatcher, e)
	case OverlayConfiguredEvent:
		event.Publish(b.dispatcher, e)
	case OverlayStartedEvent:
		event.Publish(b.dispatcher, e)
	case OverlayEndedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingStateEvent:
		event.Publish(b.dispatcher, e)
	case CaptureCompletedEvent:
		event.Publish(b.dispatcher, e)
	case CaptureErrorEvent:
		event.Publish(b.dispatcher, e)
	case SwipeDownEvent:
		event.Publish(b.dispatcher, e)
	case ZoomChangedEvent:
		event.Publish(b.dispatcher, e)
	case ZoomFailedEvent:
		event.Publish(b.dispatcher, e)
	case CameraChangedEvent:
		event.Publish(b.dispatcher, e)
	case CameraErrorEvent:
		event.Publish(b.dispatcher, e)
	case ModeChangedEvent:
		event.Publish(b.dispatcher, e)
	case ShutterPressedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type it accepts.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e SwipeDownEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(CountdownProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CountdownClearedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OverlayConfiguredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OverlayStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OverlayEndedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingStateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CaptureCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CaptureErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SwipeDownEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ZoomChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ZoomFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CameraChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CameraErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ModeChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ShutterPressedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// SubscribeAll forwards every event type into ch without blocking.
// Returns a function removing all of the subscriptions.
func SubscribeAll(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[CountdownProgressEvent](bus, ch),
		SubscribeToChannel[CountdownClearedEvent](bus, ch),
		SubscribeToChannel[OverlayConfiguredEvent](bus, ch),
		SubscribeToChannel[OverlayStartedEvent](bus, ch),
		SubscribeToChannel[OverlayEndedEvent](bus, ch),
		SubscribeToChannel[RecordingStateEvent](bus, ch),
		SubscribeToChannel[CaptureCompletedEvent](bus, ch),
		SubscribeToChannel[CaptureErrorEvent](bus, ch),
		SubscribeToChannel[SwipeDownEvent](bus, ch),
		SubscribeToChannel[ZoomChangedEvent](bus, ch),
		SubscribeToChannel[ZoomFailedEvent](bus, ch),
		SubscribeToChannel[CameraChangedEvent](bus, ch),
		SubscribeToChannel[CameraErrorEvent](bus, ch),
		SubscribeToChannel[ModeChangedEvent](bus, ch),
		SubscribeToChannel[ShutterPressedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// SubscribeToChannel forwards events of type T into ch, dropping them while
// ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
