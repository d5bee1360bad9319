package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the pipeline's application metrics. A nil *Metrics is safe
// to record against so callers don't need to guard every call site.
type Metrics struct {
	RequestCounter   metric.Int64Counter
	RequestDuration  metric.Float64Histogram
	CacheHits        metric.Int64Counter
	CacheMisses      metric.Int64Counter
	DocumentsIndexed metric.Int64Counter
	SearchQueries    metric.Int64Counter
}

// InitMetrics initializes all application metrics.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("movie-search-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"cache.hits.total",
		metric.WithDescription("Response cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"cache.misses.total",
		metric.WithDescription("Response cache misses"),
	)
	if err != nil {
		return nil, err
	}

	documentsIndexed, err := meter.Int64Counter(
		"ingest.documents.indexed",
		metric.WithDescription("Documents upserted into the vector store"),
	)
	if err != nil {
		return nil, err
	}

	searchQueries, err := meter.Int64Counter(
		"search.queries.total",
		metric.WithDescription("Nearest-neighbor searches executed"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:   requestCounter,
		RequestDuration:  requestDuration,
		CacheHits:        cacheHits,
		CacheMisses:      cacheMisses,
		DocumentsIndexed: documentsIndexed,
		SearchQueries:    searchQueries,
	}, nil
}

// RecordRequest records one handled HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", status),
	)
	m.RequestCounter.Add(context.Background(), 1, attrs)
	m.RequestDuration.Record(context.Background(), duration, attrs)
}

// RecordCache records a cache lookup outcome for an endpoint.
func (m *Metrics) RecordCache(path string, hit bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("path", path))
	if hit {
		m.CacheHits.Add(context.Background(), 1, attrs)
	} else {
		m.CacheMisses.Add(context.Background(), 1, attrs)
	}
}

// RecordIndexed records documents upserted during ingestion.
func (m *Metrics) RecordIndexed(count int64) {
	if m == nil {
		return
	}
	m.DocumentsIndexed.Add(context.Background(), count)
}

// RecordSearch records one executed search.
func (m *Metrics) RecordSearch() {
	if m == nil {
		return
	}
	m.SearchQueries.Add(context.Background(), 1)
}
