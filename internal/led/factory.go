package led

import (
	"os"
	"strings"

	"github.com/smazurov/shutterdeck/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// boardLEDs maps a device tree model substring to the sysfs LED used as the
// tally light.
var boardLEDs = []struct {
	model string
	led   string
}{
	{"NanoPC-T6", "usr_led"},
	{"Orange Pi", "green_led"},
	{"Raspberry Pi", "ACT"},
}

// New returns a controller for the tally LED. sysfsName overrides board
// detection; without a match a no-op controller is returned.
func New(sysfsName string, logger logging.Logger) Controller {
	if logger == nil {
		logger = logging.GetLogger("led")
	}

	if sysfsName != "" {
		logger.Info("Using configured LED", "sysfs_name", sysfsName)
		return newSysfs(map[string]string{Tally: sysfsName})
	}

	model := detectBoard()
	if name := ledForModel(model); name != "" {
		logger.Info("Detected board LED", "board_model", model, "sysfs_name", name)
		return newSysfs(map[string]string{Tally: name})
	}

	logger.Info("No LED support detected, using no-op controller", "board_model", model)
	return newNoop(logger)
}

func ledForModel(model string) string {
	for _, b := range boardLEDs {
		if strings.Contains(model, b.model) {
			return b.led
		}
	}
	return ""
}

func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}
	// Device tree strings are NUL terminated.
	return strings.TrimRight(string(data), "\x00")
}
