package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

const testMailbox = "requests@contoso.com"

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestRun_Complete(t *testing.T) {
	r := NewRun("poll")
	if r.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	r.Complete(nil)
	if !r.Success || r.Status() != StatusSuccess {
		t.Errorf("expected success, got %v / %s", r.Success, r.Status())
	}
	if r.Duration < 0 {
		t.Error("Duration should not be negative")
	}

	r = NewRun("extract").Complete(errors.New("not a PDF"))
	if r.Success || r.Status() != StatusError {
		t.Errorf("expected error, got %v / %s", r.Success, r.Status())
	}
	if r.Error != "not a PDF" {
		t.Errorf("Error = %q, want %q", r.Error, "not a PDF")
	}
}

func TestAuditLogger_LogRun_Anonymized(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: true})

	r := NewRun("poll")
	r.Mailbox = testMailbox
	r.Target = "/data/intake"
	r.Matched = 2
	r.Attachments = 3
	al.LogRun(r.Complete(nil))

	entry := decodeLine(t, &buf)
	if entry["msg"] != "run_completed" {
		t.Errorf("msg = %v, want run_completed", entry["msg"])
	}
	if entry["mailbox_domain"] != "contoso.com" {
		t.Errorf("mailbox_domain = %v, want contoso.com", entry["mailbox_domain"])
	}
	if _, ok := entry["mailbox"]; ok {
		t.Error("full mailbox must not be logged without IncludePII")
	}
	if _, ok := entry["target"]; ok {
		t.Error("target must not be logged without IncludePII")
	}
	if entry["matched"] != float64(2) || entry["attachments"] != float64(3) {
		t.Errorf("unexpected counters: %v / %v", entry["matched"], entry["attachments"])
	}
}

func TestAuditLogger_LogRun_PII(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: true, IncludePII: true})

	r := NewRun("extract")
	r.Target = "/data/form.pdf"
	al.LogRun(r.Complete(errors.New("malformed")))

	entry := decodeLine(t, &buf)
	if entry["msg"] != "run_failed" {
		t.Errorf("msg = %v, want run_failed", entry["msg"])
	}
	if entry["target"] != "/data/form.pdf" {
		t.Errorf("target = %v", entry["target"])
	}
	if entry["error"] != "malformed" {
		t.Errorf("error = %v", entry["error"])
	}
	if _, ok := entry["fields"]; !ok {
		t.Error("extract runs should log the field count")
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	al.LogRun(NewRun("poll").Complete(nil))

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.LogRun(NewRun("poll")) // should not panic
}
