// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formassist_api_requests_total",
			Help: "Backend requests by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formassist_api_request_duration_seconds",
			Help:    "Duration of backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SchemaMismatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formassist_schema_mismatches_total",
			Help: "Backend responses rejected by schema validation",
		},
		[]string{"endpoint"},
	)

	DocumentRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formassist_document_rejections_total",
			Help: "File selections rejected before upload",
		},
		[]string{"document_type", "error_code"},
	)

	DocumentsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formassist_documents_uploaded_total",
			Help: "Document batches uploaded successfully",
		},
		[]string{"document_type"},
	)

	EntityUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formassist_entity_updates_total",
			Help: "Entity keys written, by source of the update",
		},
		[]string{"source"},
	)

	StaleUpdatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formassist_stale_updates_dropped_total",
			Help: "Entity keys skipped because a newer update already wrote them",
		},
	)

	RecordingsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "formassist_recordings_active",
			Help: "Voice recordings currently in progress",
		},
	)
)

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
