package main

import (
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/smazurov/shutterdeck/internal/countdown"
	"github.com/smazurov/shutterdeck/internal/gesture"
)

func TestOptionsCaptureDefaults(t *testing.T) {
	tests := []struct {
		field string
		want  float64
	}{
		{"CaptureTickIntervalMs", float64(countdown.DefaultInterval / time.Millisecond)},
		{"CaptureSwipeThreshold", gesture.DefaultSwipeThreshold},
	}

	typ := reflect.TypeOf(Options{})
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			field, ok := typ.FieldByName(tt.field)
			if !ok {
				t.Fatalf("Options has no field %s", tt.field)
			}
			got, err := strconv.ParseFloat(field.Tag.Get("default"), 64)
			if err != nil {
				t.Fatalf("default tag %q: %v", field.Tag.Get("default"), err)
			}
			if got != tt.want {
				t.Errorf("default = %v, want %v", got, tt.want)
			}
		})
	}
}
