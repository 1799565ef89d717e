package logging

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

const syslogIdentifier = "shutterdeck"

// JournalHandler is a slog.Handler writing structured entries to the systemd
// journal. Attribute keys become upper-case journal fields.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewJournalHandler creates a journal handler gated by level.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

// Enabled implements slog.Handler.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]string{
		"SYSLOG_IDENTIFIER": syslogIdentifier,
	}
	for _, attr := range h.attrs {
		addField(fields, attr, h.groups)
	}
	r.Attrs(func(attr slog.Attr) bool {
		addField(fields, attr, h.groups)
		return true
	})

	return journal.Send(r.Message, priority(r.Level), fields)
}

// WithAttrs implements slog.Handler.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &JournalHandler{
		level:  h.level,
		attrs:  append(slices.Clone(h.attrs), attrs...),
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &JournalHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: append(slices.Clone(h.groups), name),
	}
}

func priority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// fieldKey builds the journal field name for key under groups.
func fieldKey(key string, groups []string) string {
	if len(groups) > 0 {
		key = strings.Join(groups, "_") + "_" + key
	}
	return strings.ToUpper(key)
}

func addField(fields map[string]string, attr slog.Attr, groups []string) {
	if attr.Equal(slog.Attr{}) {
		return
	}

	v := attr.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		nested := append(slices.Clone(groups), attr.Key)
		for _, a := range v.Group() {
			addField(fields, a, nested)
		}
		return
	case slog.KindInt64:
		fields[fieldKey(attr.Key, groups)] = strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		fields[fieldKey(attr.Key, groups)] = strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		fields[fieldKey(attr.Key, groups)] = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		fields[fieldKey(attr.Key, groups)] = strconv.FormatBool(v.Bool())
	case slog.KindTime:
		fields[fieldKey(attr.Key, groups)] = v.Time().Format(time.RFC3339Nano)
	default:
		fields[fieldKey(attr.Key, groups)] = v.String()
	}
}

// IsJournalAvailable reports whether journald accepts entries.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
