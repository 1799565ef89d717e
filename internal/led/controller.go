// Package led drives a board status LED as a tally light for the capture
// machine: solid while recording, blinking through a countdown or while a
// recording is finalized, heartbeat while the camera is unavailable.
package led

// Pattern is an LED pattern understood by every Controller.
type Pattern string

// Patterns.
const (
	PatternOff       Pattern = "off"
	PatternSolid     Pattern = "solid"
	PatternBlink     Pattern = "blink"
	PatternHeartbeat Pattern = "heartbeat"
)

// Tally is the logical LED the manager drives.
const Tally = "tally"

// Controller abstracts LED hardware across boards.
type Controller interface {
	// Set applies pattern to the LED with the given logical name.
	Set(name string, pattern Pattern) error

	// Available returns the logical LED names this controller drives.
	Available() []string
}
