// Package logging configures slog for shutterdeck with per-module levels.
//
// Records go to stdout when it is a terminal, pipe or file, and to the
// systemd journal when journald is listening. With both available a
// [MultiHandler] writes to each.
//
// Call [Initialize] once at startup, then fetch module loggers anywhere:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"capture": "debug",
//			"api":     "warn",
//		},
//	})
//
//	logger := logging.GetLogger("capture")
//	logger.Info("Stream acquired", "facing", "environment")
//
// Loggers fetched before Initialize are kept and pick up the configured
// level afterwards.
//
// Modules in use: capture, gesture, zoom, countdown, device, settings, api,
// http, led, metrics and main.
//
// In the journal, entries carry SYSLOG_IDENTIFIER=shutterdeck and one field
// per attribute:
//
//	journalctl -t shutterdeck MODULE=capture
//	journalctl -t shutterdeck -p err
//
// TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	capture = "debug"
//	countdown = "warn"
package logging
