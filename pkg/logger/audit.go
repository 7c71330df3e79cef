package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security-relevant event worth a durable trace:
// login outcomes, lockouts, IP blocks, booking conflicts.
type AuditEvent struct {
	EventType     string
	UserID        string
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit events through the structured logger.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogAuthAttempt logs a login attempt outcome. Failures log at WARN so they
// stand out when an account or IP is being hammered.
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	attrs = appendCommon(attrs, event)

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogBookingEvent logs booking protocol outcomes (created, lost race, status
// transitions).
func (al *AuditLogger) LogBookingEvent(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "booking"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	attrs = appendCommon(attrs, event)

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}

func appendCommon(attrs []slog.Attr, event AuditEvent) []slog.Attr {
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}
	return attrs
}
