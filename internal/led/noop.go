package led

import "github.com/smazurov/shutterdeck/internal/logging"

// noop is used on boards without a usable LED.
type noop struct {
	logger logging.Logger
}

func newNoop(logger logging.Logger) *noop {
	return &noop{logger: logger}
}

func (n *noop) Set(name string, pattern Pattern) error {
	n.logger.Debug("LED control not available (no-op)", "led", name, "pattern", pattern)
	return nil
}

func (n *noop) Available() []string {
	return []string{}
}
