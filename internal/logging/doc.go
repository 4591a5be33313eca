// Package logging provides structured logging for mcparam.
//
// This package wraps a package-level zap logger with convenience functions for
// the events the tuning server and its collaborators produce. The parameter
// registry itself never logs; it runs on the control loop path.
//
// # Log Levels
//
//   - Debug: Tuning frames with hex dumps, store round trips
//   - Info: Connections, parameter changes, imports
//   - Warn: Clamped or skipped import records, dropped sessions
//   - Error: Startup failures, store write failures
//
// # Specialized Logging
//
//	logging.LogParamChange(change, "session 3f2a...")
//	logging.LogImportReport("params.yaml", report)
//	logging.LogConnection(remoteAddr, sessionID, "websocket_upgraded")
//	logging.LogTuningMessage(sessionID, "received", "Set", id, "MC_ROLL_P", frame)
//
// # Configuration
//
// Logging is silent unless a level is passed to Initialize or set in
// MCPARAM_LOG_LEVEL:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
package logging
