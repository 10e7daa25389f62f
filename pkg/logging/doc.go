// Package logging provides a structured, subsystem-tagged logging system
// built on Go's standard slog package.
//
// Every log call names the subsystem that emitted it (for example "Gateway",
// "Trust", "Vault"), which keeps log output greppable without threading a
// logger instance through every constructor. Init must be called once at
// startup to select the minimum level and output format (text or JSON).
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatText, os.Stderr)
//
//	logging.Info("Gateway", "listening on %s", addr)
//	logging.Debug("Vault", "stored credential for platform %s", platform)
//	logging.Error("Trust", err, "key rotation failed")
//
// # Audit Logging
//
// Security-sensitive operations (token issuance, code exchange, revocation,
// credential writes) are recorded through Audit:
//
//	logging.Audit(logging.AuditEvent{
//	    Action:  "code_exchange",
//	    Outcome: "success",
//	    Subject: userID,
//	    Target:  connectionID,
//	})
//
// Audit events are logged at INFO level with an [AUDIT] prefix for easy
// filtering by log aggregation systems.
package logging
