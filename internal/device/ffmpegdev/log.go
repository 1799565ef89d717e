package ffmpegdev

import (
	"bufio"
	"io"
	"strings"

	"github.com/smazurov/shutterdeck/internal/logging"
)

// parseLogLevel splits ffmpeg's "level+" prefixed output into level and
// message. Lines look like "[warning] msg" or "[v4l2 @ 0x..] [error] msg".
func parseLogLevel(line string) (level, msg string) {
	if len(line) < 3 || line[0] != '[' {
		return "info", line
	}
	end := strings.Index(line, "] ")
	if end == -1 {
		return "info", line
	}
	if bracket := line[1:end]; isLogLevel(bracket) {
		return bracket, line[end+2:]
	}

	component, rest := line[:end+2], line[end+2:]
	if len(rest) > 2 && rest[0] == '[' {
		if next := strings.Index(rest, "] "); next != -1 && isLogLevel(rest[1:next]) {
			return rest[1:next], component + rest[next+2:]
		}
	}
	return "info", line
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}

// logOutput forwards ffmpeg stderr to logger and returns the last error
// line seen, which makes a better error message than the exit status.
func logOutput(r io.Reader, logger logging.Logger) string {
	var lastErr string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		level, msg := parseLogLevel(scanner.Text())
		switch level {
		case "panic", "fatal", "error":
			lastErr = msg
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		case "debug", "trace", "verbose":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}
	return lastErr
}
