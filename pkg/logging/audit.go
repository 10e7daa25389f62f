package logging

import (
	"context"
	"log/slog"
)

// AuditEvent describes a security-sensitive operation for the audit trail.
type AuditEvent struct {
	// Action is the operation performed, e.g. "token_mint", "code_exchange".
	Action string

	// Outcome is "success" or "failure".
	Outcome string

	// Subject is the user the operation was performed for, if known.
	Subject string

	// Target is the object acted on (connection id, platform name, key id).
	Target string

	// Reason carries a short failure explanation. Never raw secrets.
	Reason string
}

// Audit logs an audit event at INFO level with an [AUDIT] prefix.
// Audit events bypass the normal subsystem formatting so log aggregation
// can filter on the prefix alone.
func Audit(ev AuditEvent) {
	if defaultLogger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("action", ev.Action),
		slog.String("outcome", ev.Outcome),
	}
	if ev.Subject != "" {
		attrs = append(attrs, slog.String("subject", ev.Subject))
	}
	if ev.Target != "" {
		attrs = append(attrs, slog.String("target", ev.Target))
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}

	defaultLogger.LogAttrs(context.Background(), slog.LevelInfo, "[AUDIT] "+ev.Action, attrs...)
}
