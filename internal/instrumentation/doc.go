// Package instrumentation provides OpenTelemetry instrumentation for the
// formintake CLI.
//
// This package enables observability of otherwise silent batch runs through:
//   - OpenTelemetry metrics for Graph API calls, token requests, poll runs and PDF extractions
//   - Distributed tracing for the poll pipeline and outbound Graph requests
//   - Prometheus export, pushed to a Pushgateway when the run finishes
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Graph API Metrics:
//   - graph_api_operations_total: Counter of Graph API operations by operation and status
//   - graph_api_operation_duration_seconds: Histogram of Graph API operation durations
//   - oauth_token_requests_total: Counter of client-credentials token requests by result
//
// Poller Metrics:
//   - poll_runs_total / poll_run_duration_seconds: runs by status
//   - mail_messages_total: messages seen by outcome (matched, skipped, ignored)
//   - attachments_downloaded_total / attachment_bytes_total
//
// Extractor Metrics:
//   - pdf_extractions_total: extractions by status
//   - pdf_fields_emitted_total: fields printed on the sentinel protocol
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 1.0)
//   - PROMETHEUS_PUSHGATEWAY_URL: Pushgateway to push metrics to at shutdown
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordGraphOperation(ctx, instrumentation.OperationListMessages,
//		instrumentation.StatusSuccess, time.Since(start))
package instrumentation
