package device

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesKind(t *testing.T) {
	cause := errors.New("EACCES")

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"permission", PermissionDenied("acquire", cause), ErrPermissionDenied, true},
		{"permission is not device", PermissionDenied("acquire", cause), ErrDevice, false},
		{"device", Failure("acquire", cause), ErrDevice, true},
		{"constraint", ConstraintFailure("zoom", cause), ErrConstraint, true},
		{"wrapped", fmt.Errorf("switch: %w", PermissionDenied("acquire", nil)), ErrPermissionDenied, true},
		{"cause reachable", Failure("acquire", cause), cause, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("x: %w", PermissionDenied("acquire", nil))); got != KindPermissionDenied {
		t.Errorf("KindOf(permission) = %q", got)
	}
	if got := KindOf(errors.New("boom")); got != KindDeviceError {
		t.Errorf("KindOf(plain) = %q, want %q", got, KindDeviceError)
	}
}

func TestFacing(t *testing.T) {
	if FacingUser.Opposite() != FacingEnvironment || FacingEnvironment.Opposite() != FacingUser {
		t.Error("Opposite() should swap facings")
	}

	for in, want := range map[string]Facing{
		"user": FacingUser, "front": FacingUser,
		"environment": FacingEnvironment, "back": FacingEnvironment,
	} {
		got, err := ParseFacing(in)
		if err != nil || got != want {
			t.Errorf("ParseFacing(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFacing("side"); err == nil {
		t.Error("expected error for unknown facing")
	}
}
