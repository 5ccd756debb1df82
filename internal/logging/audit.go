package logging

import (
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Translation step
	AuditQueryTranslated  AuditEventType = "query_translated"
	AuditTranslationError AuditEventType = "translation_error"

	// Guard step
	AuditQueryRefused AuditEventType = "query_refused"

	// Execution step
	AuditQueryExecuted AuditEventType = "query_executed"
	AuditQueryFailed   AuditEventType = "query_failed"
)

// =============================================================================
// AUDIT EVENT STRUCTURE
// =============================================================================

// AuditEvent is one structured audit entry.
type AuditEvent struct {
	Timestamp  time.Time
	EventType  AuditEventType
	RequestID  string
	Question   string
	Query      string
	Rows       int
	Success    bool
	DurationMs int64
	Error      string
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

// AuditLogger emits audit events under the audit category.
type AuditLogger struct {
	requestID string
}

// Audit returns an unscoped audit logger
func Audit() *AuditLogger {
	return &AuditLogger{}
}

// AuditWithRequest creates an audit logger scoped to one request
func AuditWithRequest(requestID string) *AuditLogger {
	return &AuditLogger{requestID: requestID}
}

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = a.requestID
	}

	fields := []zap.Field{
		zap.String("event", string(event.EventType)),
		zap.String("req", event.RequestID),
		zap.Time("ts", event.Timestamp),
		zap.Bool("success", event.Success),
		zap.Int64("dur_ms", event.DurationMs),
	}
	if event.Question != "" {
		fields = append(fields, zap.String("question", event.Question))
	}
	if event.Query != "" {
		fields = append(fields, zap.String("sql", event.Query))
	}
	if event.Success && event.EventType == AuditQueryExecuted {
		fields = append(fields, zap.Int("rows", event.Rows))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}

	Get(CategoryAudit).sugar.Desugar().Info("audit", fields...)
}

// =============================================================================
// CONVENIENCE METHODS
// =============================================================================

// Translated records a successful translation.
func (a *AuditLogger) Translated(question, query string, durationMs int64) {
	a.Log(AuditEvent{
		EventType:  AuditQueryTranslated,
		Question:   question,
		Query:      query,
		Success:    true,
		DurationMs: durationMs,
	})
}

// TranslationFailed records a failed translation.
func (a *AuditLogger) TranslationFailed(question string, durationMs int64, errMsg string) {
	a.Log(AuditEvent{
		EventType:  AuditTranslationError,
		Question:   question,
		DurationMs: durationMs,
		Error:      errMsg,
	})
}

// Refused records a denylist rejection.
func (a *AuditLogger) Refused(query, reason string) {
	a.Log(AuditEvent{
		EventType: AuditQueryRefused,
		Query:     query,
		Error:     reason,
	})
}

// Executed records a completed query.
func (a *AuditLogger) Executed(query string, rows int, durationMs int64) {
	a.Log(AuditEvent{
		EventType:  AuditQueryExecuted,
		Query:      query,
		Rows:       rows,
		Success:    true,
		DurationMs: durationMs,
	})
}

// Failed records a dataset execution error.
func (a *AuditLogger) Failed(query string, durationMs int64, errMsg string) {
	a.Log(AuditEvent{
		EventType:  AuditQueryFailed,
		Query:      query,
		DurationMs: durationMs,
		Error:      errMsg,
	})
}
