package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrOperation = "operation"
	attrStatus    = "status"
	attrResult    = "result"
	attrOutcome   = "outcome"
	attrDomain    = "mailbox_domain"
)

// Metrics provides methods for recording observability metrics.
// A zero or nil Metrics is a valid no-op recorder.
type Metrics struct {
	// Graph API metrics
	graphOperationsTotal   metric.Int64Counter
	graphOperationDuration metric.Float64Histogram
	tokenRequestsTotal     metric.Int64Counter

	// Poller metrics
	pollRunsTotal    metric.Int64Counter
	pollRunDuration  metric.Float64Histogram
	messagesTotal    metric.Int64Counter
	attachmentsTotal metric.Int64Counter
	attachmentBytes  metric.Int64Counter

	// Extractor metrics
	pdfExtractionsTotal metric.Int64Counter
	pdfFieldsTotal      metric.Int64Counter

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.graphOperationsTotal, err = meter.Int64Counter(
		"graph_api_operations_total",
		metric.WithDescription("Total number of Microsoft Graph API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph_api_operations_total counter: %w", err)
	}

	m.graphOperationDuration, err = meter.Float64Histogram(
		"graph_api_operation_duration_seconds",
		metric.WithDescription("Microsoft Graph API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph_api_operation_duration_seconds histogram: %w", err)
	}

	m.tokenRequestsTotal, err = meter.Int64Counter(
		"oauth_token_requests_total",
		metric.WithDescription("Total number of OAuth client-credentials token requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_requests_total counter: %w", err)
	}

	m.pollRunsTotal, err = meter.Int64Counter(
		"poll_runs_total",
		metric.WithDescription("Total number of mailbox poll runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll_runs_total counter: %w", err)
	}

	m.pollRunDuration, err = meter.Float64Histogram(
		"poll_run_duration_seconds",
		metric.WithDescription("Mailbox poll run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll_run_duration_seconds histogram: %w", err)
	}

	m.messagesTotal, err = meter.Int64Counter(
		"mail_messages_total",
		metric.WithDescription("Total number of messages seen by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail_messages_total counter: %w", err)
	}

	m.attachmentsTotal, err = meter.Int64Counter(
		"attachments_downloaded_total",
		metric.WithDescription("Total number of attachments written to disk"),
		metric.WithUnit("{attachment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachments_downloaded_total counter: %w", err)
	}

	m.attachmentBytes, err = meter.Int64Counter(
		"attachment_bytes_total",
		metric.WithDescription("Total number of decoded attachment bytes written to disk"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment_bytes_total counter: %w", err)
	}

	m.pdfExtractionsTotal, err = meter.Int64Counter(
		"pdf_extractions_total",
		metric.WithDescription("Total number of PDF form extractions"),
		metric.WithUnit("{extraction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf_extractions_total counter: %w", err)
	}

	m.pdfFieldsTotal, err = meter.Int64Counter(
		"pdf_fields_emitted_total",
		metric.WithDescription("Total number of form fields emitted"),
		metric.WithUnit("{field}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf_fields_emitted_total counter: %w", err)
	}

	return m, nil
}

// RecordGraphOperation records a Graph API call with operation, status, and duration.
//
// Parameters:
//   - operation: OperationToken, OperationListMessages or OperationListAttachments
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the call
func (m *Metrics) RecordGraphOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.graphOperationsTotal == nil || m.graphOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)

	m.graphOperationsTotal.Add(ctx, 1, attrs)
	m.graphOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRequest records a client-credentials token request.
// Result should be one of: "success", "failure"
func (m *Metrics) RecordTokenRequest(ctx context.Context, result string) {
	if m == nil || m.tokenRequestsTotal == nil {
		return
	}
	m.tokenRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordPollRun records a finished poll run. The mailbox domain is only
// attached when detailed labels are enabled.
func (m *Metrics) RecordPollRun(ctx context.Context, status, mailbox string, duration time.Duration) {
	if m == nil || m.pollRunsTotal == nil || m.pollRunDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && mailbox != "" {
		attrs = append(attrs, attribute.String(attrDomain, ExtractMailboxDomain(mailbox)))
	}

	m.pollRunsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.pollRunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordMessage records one message seen by the poller.
// Outcome should be one of: "matched", "skipped", "ignored"
func (m *Metrics) RecordMessage(ctx context.Context, outcome string) {
	if m == nil || m.messagesTotal == nil {
		return
	}
	m.messagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordAttachment records one attachment written to disk.
func (m *Metrics) RecordAttachment(ctx context.Context, size int64) {
	if m == nil || m.attachmentsTotal == nil || m.attachmentBytes == nil {
		return
	}
	m.attachmentsTotal.Add(ctx, 1)
	m.attachmentBytes.Add(ctx, size)
}

// RecordPDFExtraction records one extraction and the number of fields it printed.
func (m *Metrics) RecordPDFExtraction(ctx context.Context, status string, fields int) {
	if m == nil || m.pdfExtractionsTotal == nil || m.pdfFieldsTotal == nil {
		return
	}
	m.pdfExtractionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
	if fields > 0 {
		m.pdfFieldsTotal.Add(ctx, int64(fields))
	}
}
