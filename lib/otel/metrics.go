package otel

import (
	"go.opentelemetry.io/otel/metric"
)

// StreamMetrics holds metrics for the log stream relay.
type StreamMetrics struct {
	ActiveStreams metric.Int64UpDownCounter
	BytesRelayed  metric.Int64Counter
}

// NewStreamMetrics creates metrics for the log stream relay.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	activeStreams, err := meter.Int64UpDownCounter(
		"dockwatch_streams_active",
		metric.WithDescription("Number of log streams currently being relayed"),
	)
	if err != nil {
		return nil, err
	}

	bytesRelayed, err := meter.Int64Counter(
		"dockwatch_streams_bytes_total",
		metric.WithDescription("Total bytes relayed to log stream clients"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &StreamMetrics{
		ActiveStreams: activeStreams,
		BytesRelayed:  bytesRelayed,
	}, nil
}

// ExportMetrics holds metrics for the archive export pipeline.
type ExportMetrics struct {
	ExportsTotal   metric.Int64Counter
	ExportDuration metric.Float64Histogram
	ArchiveBytes   metric.Int64Counter
}

// NewExportMetrics creates metrics for the archive export pipeline.
func NewExportMetrics(meter metric.Meter) (*ExportMetrics, error) {
	exportsTotal, err := meter.Int64Counter(
		"dockwatch_exports_total",
		metric.WithDescription("Total number of image export requests"),
	)
	if err != nil {
		return nil, err
	}

	exportDuration, err := meter.Float64Histogram(
		"dockwatch_exports_duration_seconds",
		metric.WithDescription("Time to build an export archive"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	archiveBytes, err := meter.Int64Counter(
		"dockwatch_exports_archive_bytes_total",
		metric.WithDescription("Total size of export archives produced"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &ExportMetrics{
		ExportsTotal:   exportsTotal,
		ExportDuration: exportDuration,
		ArchiveBytes:   archiveBytes,
	}, nil
}
