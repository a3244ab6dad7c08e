package pdfform

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/formintake/internal/instrumentation"
	"github.com/teemow/formintake/internal/sentinel"
)

// Extract reads the form at path and returns its normalized fields in
// output order.
func Extract(ctx context.Context, path string, layout Layout, metrics *instrumentation.Metrics) ([]sentinel.Pair, error) {
	ctx, span := instrumentation.StartSpan(ctx, "pdf.extract")
	defer span.End()

	widgets, err := ReadFile(path)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		metrics.RecordPDFExtraction(ctx, instrumentation.StatusError, 0)
		return nil, err
	}

	pairs := layout.Normalize(Collect(widgets, layout.CheckedValue)).Pairs()

	span.SetAttributes(
		attribute.Int("pdf.widgets", len(widgets)),
		attribute.Int(instrumentation.SpanAttrFieldCount, len(pairs)),
	)
	instrumentation.SetSpanSuccess(span)
	metrics.RecordPDFExtraction(ctx, instrumentation.StatusSuccess, len(pairs))
	return pairs, nil
}
