package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	require.NoError(t, err)
	return m, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			return sum.DataPoints
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()
	var m *Metrics

	// Should not panic
	m.RecordGraphOperation(ctx, OperationListMessages, StatusSuccess, time.Second)
	m.RecordTokenRequest(ctx, TokenResultSuccess)
	m.RecordPollRun(ctx, StatusSuccess, "a@b.c", time.Second)
	m.RecordMessage(ctx, OutcomeMatched)
	m.RecordAttachment(ctx, 10)
	m.RecordPDFExtraction(ctx, StatusSuccess, 3)

	zero := &Metrics{}
	zero.RecordMessage(ctx, OutcomeMatched)
	zero.RecordAttachment(ctx, 10)
}

func TestMetrics_RecordAttachment(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordAttachment(ctx, 40)
	m.RecordAttachment(ctx, 2)

	count := collectSum(t, reader, "attachments_downloaded_total")
	require.Len(t, count, 1)
	assert.Equal(t, int64(2), count[0].Value)

	bytes := collectSum(t, reader, "attachment_bytes_total")
	require.Len(t, bytes, 1)
	assert.Equal(t, int64(42), bytes[0].Value)
}

func TestMetrics_RecordMessage(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordMessage(ctx, OutcomeMatched)
	m.RecordMessage(ctx, OutcomeSkipped)
	m.RecordMessage(ctx, OutcomeSkipped)

	points := collectSum(t, reader, "mail_messages_total")
	got := map[string]int64{}
	for _, p := range points {
		v, _ := p.Attributes.Value(attribute.Key(attrOutcome))
		got[v.AsString()] = p.Value
	}
	assert.Equal(t, map[string]int64{OutcomeMatched: 1, OutcomeSkipped: 2}, got)
}

func TestMetrics_RecordPollRun_DetailedLabels(t *testing.T) {
	tests := []struct {
		name       string
		detailed   bool
		wantDomain bool
	}{
		{name: "low cardinality", detailed: false, wantDomain: false},
		{name: "detailed", detailed: true, wantDomain: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader := newTestMetrics(t, tt.detailed)
			m.RecordPollRun(context.Background(), StatusSuccess, "requests@contoso.com", time.Second)

			points := collectSum(t, reader, "poll_runs_total")
			require.Len(t, points, 1)
			v, ok := points[0].Attributes.Value(attribute.Key(attrDomain))
			assert.Equal(t, tt.wantDomain, ok)
			if tt.wantDomain {
				assert.Equal(t, "contoso.com", v.AsString())
			}
		})
	}
}

func TestMetrics_RecordPDFExtraction(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordPDFExtraction(ctx, StatusSuccess, 5)
	m.RecordPDFExtraction(ctx, StatusError, 0)

	fields := collectSum(t, reader, "pdf_fields_emitted_total")
	require.Len(t, fields, 1)
	assert.Equal(t, int64(5), fields[0].Value)

	runs := collectSum(t, reader, "pdf_extractions_total")
	assert.Len(t, runs, 2)
}

func TestMetrics_RecordGraphOperation(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordGraphOperation(ctx, OperationListMessages, StatusSuccess, 200*time.Millisecond)
	m.RecordGraphOperation(ctx, OperationListAttachments, StatusError, 50*time.Millisecond)
	m.RecordTokenRequest(ctx, TokenResultFailure)

	ops := collectSum(t, reader, "graph_api_operations_total")
	assert.Len(t, ops, 2)

	tokens := collectSum(t, reader, "oauth_token_requests_total")
	require.Len(t, tokens, 1)
	assert.Equal(t, int64(1), tokens[0].Value)
}
