// Package logging provides subsystem-tagged, leveled logging for maybe on
// top of Go's standard slog package.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Session", "Loaded stored credentials for %s", email)
//	logging.Debug("Config", "Loaded configuration from %s", path)
//	logging.Warn("Credstore", "Keychain unavailable, using file store")
//	logging.Error("AuthFlow", err, "Token exchange failed")
//
// Every record carries a "subsystem" attribute and, for Error, an "error"
// attribute.
//
// # Log files
//
// InitForFile writes JSON records to a file rotated by lumberjack, optionally
// mirrored to the console:
//
//	logging.InitForFile(logging.LevelDebug, logging.FileOptions{Path: path}, os.Stderr)
//	defer logging.Close()
//
// # Audit Logging
//
// Writes and deletes of stored credentials are recorded with Audit. Audit
// records are INFO level and prefixed with SECURITY_AUDIT for filtering.
// Token values are never logged.
//
// Before initialization only WARN and ERROR records are emitted, through the
// global slog logger.
package logging
