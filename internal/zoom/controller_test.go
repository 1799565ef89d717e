package zoom

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func ok(context.Context, float64) error { return nil }

func TestController_ApplyInRange(t *testing.T) {
	c := NewController(testLogger())
	c.Reset(&Range{Min: 1, Max: 5, Step: 0.1})

	var pushed float64
	c.Apply(context.Background(), 2, func(_ context.Context, v float64) error {
		pushed = v
		return nil
	})

	if pushed != 2 {
		t.Errorf("pushed %v, want 2", pushed)
	}
	if c.Current() != 2 {
		t.Errorf("Current() = %v, want 2", c.Current())
	}
}

func TestController_ClampProperty(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		lo := rnd.Float64() * 4
		r := Range{Min: lo, Max: lo + rnd.Float64()*8, Step: 0.1}
		c := NewController(testLogger())
		c.Reset(&r)

		v := (rnd.Float64() - 0.5) * 40
		c.Apply(context.Background(), v, ok)

		if got := c.Current(); got < r.Min || got > r.Max {
			t.Fatalf("Apply(%v, %+v) left zoom %v out of range", v, r, got)
		}
	}
}

func TestController_FailureKeepsLastGood(t *testing.T) {
	c := NewController(testLogger())
	c.Reset(&Range{Min: 1, Max: 5, Step: 0.1})
	c.Apply(context.Background(), 3, ok)

	c.Apply(context.Background(), 4, func(context.Context, float64) error {
		return errors.New("constraint rejected")
	})

	if c.Current() != 3 {
		t.Errorf("Current() = %v, want last good 3", c.Current())
	}
}

func TestController_NoRange(t *testing.T) {
	c := NewController(testLogger())
	c.Reset(nil)

	pushes := 0
	push := func(context.Context, float64) error {
		pushes++
		return nil
	}

	c.Apply(context.Background(), 2.5, push)
	if pushes != 0 {
		t.Error("non-default zoom must not reach a device without range")
	}
	if c.Current() != Default {
		t.Errorf("Current() = %v, want %v", c.Current(), Default)
	}

	c.Apply(context.Background(), Default, push)
	if pushes != 1 {
		t.Errorf("default zoom should pass through, pushes = %d", pushes)
	}
}

func TestController_Reset(t *testing.T) {
	tests := []struct {
		name string
		rng  *Range
		want float64
		has  bool
	}{
		{"with range", &Range{Min: 0.5, Max: 10, Step: 0.5}, 0.5, true},
		{"without range", nil, Default, false},
		{"invalid range", &Range{Min: 5, Max: 1, Step: 1}, Default, false},
		{"zero step", &Range{Min: 1, Max: 2, Step: 0}, Default, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(testLogger())
			c.Reset(&Range{Min: 2, Max: 3, Step: 1})
			c.Apply(context.Background(), 3, ok)

			c.Reset(tt.rng)
			if c.Current() != tt.want {
				t.Errorf("Current() = %v, want %v", c.Current(), tt.want)
			}
			if _, has := c.Range(); has != tt.has {
				t.Errorf("Range() present = %v, want %v", has, tt.has)
			}
		})
	}
}

func TestController_StaleSettleDropped(t *testing.T) {
	c := NewController(testLogger())
	c.Reset(&Range{Min: 1, Max: 5, Step: 0.1})

	first, _ := c.Prepare(2)
	second, _ := c.Prepare(4)

	if !c.Settle(second, nil) {
		t.Fatal("newer request should commit")
	}
	if c.Settle(first, nil) {
		t.Error("older request must not overwrite a newer one")
	}
	if c.Current() != 4 {
		t.Errorf("Current() = %v, want 4", c.Current())
	}
}

func TestController_ResetDropsInflight(t *testing.T) {
	c := NewController(testLogger())
	c.Reset(&Range{Min: 1, Max: 5, Step: 0.1})
	req, _ := c.Prepare(4)

	c.Reset(&Range{Min: 1, Max: 2, Step: 0.1})
	if c.Settle(req, nil) {
		t.Error("request issued for the previous device must be dropped")
	}
	if c.Current() != 1 {
		t.Errorf("Current() = %v, want 1", c.Current())
	}
}
