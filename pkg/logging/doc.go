// Package logging provides the structured logger shared by the tonearm client
// and host.
//
// It is a thin layer over log/slog that tags every entry with a subsystem
// name so capture, token exchange, sync and host traffic can be told apart in
// a single stream.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Capture", "Waiting for redirect on %s", addr)
//	logging.Warn("StateSync", "Mirror out of date, requesting resync")
//	logging.Error("TokenExchange", err, "Code exchange failed")
//
// Components that take a *slog.Logger can be given For(subsystem), which
// returns the configured logger with the subsystem attribute preset.
//
// Levels are parsed from configuration with ParseLevel; JSON output is
// available through Init(FormatJSON, ...).
package logging
