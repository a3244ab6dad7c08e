package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Run captures one CLI run (a poll or an extraction) for audit logging.
//
// The Mailbox and Target fields may contain PII (addresses, file paths).
// They are only logged in full when the AuditLogger is configured with IncludePII.
type Run struct {
	Command string // "poll" or "extract"
	Mailbox string // polled mailbox address
	Target  string // attachment directory or PDF path

	// Counters
	Matched     int
	Attachments int
	Fields      int

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewRun creates a Run with timing started.
func NewRun(command string) *Run {
	return &Run{
		Command:   command,
		StartTime: time.Now(),
	}
}

// WithSpanContext extracts trace context from the current span.
func (r *Run) WithSpanContext(ctx context.Context) *Run {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.TraceID = span.SpanContext().TraceID().String()
		r.SpanID = span.SpanContext().SpanID().String()
	}
	return r
}

// Complete marks the run as finished and calculates its duration.
func (r *Run) Complete(err error) *Run {
	r.Duration = time.Since(r.StartTime)
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Status returns "success" or "error" based on the Success field.
func (r *Run) Status() string {
	if r.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes. Full mailbox address and target are only
// included when includePII is set.
func (r *Run) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("command", r.Command),
		slog.Duration("duration", r.Duration),
		slog.Bool("success", r.Success),
	}

	if r.Mailbox != "" {
		if includePII {
			attrs = append(attrs, slog.String("mailbox", r.Mailbox))
		} else {
			attrs = append(attrs, slog.String("mailbox_domain", ExtractMailboxDomain(r.Mailbox)))
		}
	}
	if r.Target != "" && includePII {
		attrs = append(attrs, slog.String("target", r.Target))
	}

	switch r.Command {
	case "poll":
		attrs = append(attrs,
			slog.Int("matched", r.Matched),
			slog.Int("attachments", r.Attachments),
		)
	case "extract":
		attrs = append(attrs, slog.Int("fields", r.Fields))
	}

	if r.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", r.TraceID))
	}
	if r.SpanID != "" && includePII {
		attrs = append(attrs, slog.String("span_id", r.SpanID))
	}
	if r.Error != "" {
		attrs = append(attrs, slog.String("error", r.Error))
	}

	return attrs
}

// AuditLogger writes one structured record per CLI run.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given configuration.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogRun logs a finished run.
func (al *AuditLogger) LogRun(r *Run) {
	if al == nil || !al.enabled {
		return
	}

	attrs := r.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if r.Success {
		al.logger.Info("run_completed", args...)
	} else {
		al.logger.Warn("run_failed", args...)
	}
}
