package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan CaptureCompletedEvent, 1)

	unsub := bus.Subscribe(func(e CaptureCompletedEvent) {
		received <- e
	})
	defer unsub()

	ev := CaptureCompletedEvent{
		Kind:      "photo",
		MIMEType:  "image/jpeg",
		Size:      1024,
		Timestamp: "2026-01-27T10:30:00Z",
	}
	bus.Publish(ev)

	got := <-received
	if got != ev {
		t.Errorf("received %+v, want %+v", got, ev)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan SwipeDownEvent, 1)
	received2 := make(chan SwipeDownEvent, 1)

	unsub1 := bus.Subscribe(func(e SwipeDownEvent) { received1 <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e SwipeDownEvent) { received2 <- e })
	defer unsub2()

	bus.Publish(SwipeDownEvent{})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ZoomFailedEvent, 1)

	unsub := bus.Subscribe(func(e ZoomFailedEvent) { received <- e })

	bus.Publish(ZoomFailedEvent{Requested: 2})
	<-received

	unsub()

	bus.Publish(ZoomFailedEvent{Requested: 3})
	select {
	case <-received:
		t.Fatal("received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	progress := make(chan bool, 1)
	cleared := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ CountdownProgressEvent) { progress <- true })
	defer unsub1()
	unsub2 := bus.Subscribe(func(_ CountdownClearedEvent) { cleared <- true })
	defer unsub2()

	bus.Publish(CountdownProgressEvent{Progress: 0.5})
	<-progress

	select {
	case <-cleared:
		t.Fatal("cleared subscriber received a progress event")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(CountdownClearedEvent{Reason: "cancelled"})
	<-cleared

	select {
	case <-progress:
		t.Fatal("progress subscriber received a cleared event")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_PreservesOrderPerSubscriber(t *testing.T) {
	bus := New()
	got := make(chan float64, 100)

	unsub := bus.Subscribe(func(e CountdownProgressEvent) { got <- e.Progress })
	defer unsub()

	for i := range 100 {
		bus.Publish(CountdownProgressEvent{Progress: float64(i) / 100})
	}
	for i := range 100 {
		if p := <-got; p != float64(i)/100 {
			t.Fatalf("event %d has progress %v", i, p)
		}
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ ShutterPressedEvent) { receivedCh <- true })
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(ShutterPressedEvent{
					Action:    "capture_photo",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_UnknownHandlerIsNoop(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestSubscribeAll_ReceivesEveryType(t *testing.T) {
	bus := New()
	ch := make(chan any, 32)

	unsub := SubscribeAll(bus, ch)
	defer unsub()

	all := []Event{
		CountdownProgressEvent{}, CountdownClearedEvent{}, OverlayConfiguredEvent{},
		OverlayStartedEvent{}, OverlayEndedEvent{}, RecordingStateEvent{},
		CaptureCompletedEvent{}, CaptureErrorEvent{}, SwipeDownEvent{},
		ZoomChangedEvent{}, ZoomFailedEvent{}, CameraChangedEvent{},
		CameraErrorEvent{}, ModeChangedEvent{}, ShutterPressedEvent{},
	}
	for _, ev := range all {
		bus.Publish(ev)
	}

	seen := make(map[uint32]bool)
	timeout := time.After(time.Second)
	for len(seen) < len(all) {
		select {
		case ev := <-ch:
			seen[ev.(Event).Type()] = true
		case <-timeout:
			t.Fatalf("received %d of %d event types", len(seen), len(all))
		}
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any)

	unsub := SubscribeToChannel[ModeChangedEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(ModeChangedEvent{Mode: "video"})
		done <- true
	}()

	<-done
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(CameraErrorEvent{
		Facing:  "user",
		Kind:    "permission_denied",
		Message: "camera access denied",
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"facing", "kind", "message", "timestamp"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing JSON field %q in %s", key, data)
		}
	}
}
