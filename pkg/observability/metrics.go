package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricReposTotal        = "repoharvest.repos.total"
	metricRepoDuration      = "repoharvest.repo.duration.seconds"
	metricVersionsTotal     = "repoharvest.versions.total"
	metricAuxiliaryRows     = "repoharvest.auxiliary.rows.total"
	metricTablesPersisted   = "repoharvest.tables.persisted.total"

	attrRepoStatus = "status"
	attrTable      = "table"
)

// Repository outcome statuses recorded on the repos counter.
const (
	StatusCollected = "collected"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// durationBucketBoundaries covers 10ms to 600s: a cached up-to-date probe is
// sub-second while a cold clone of a large history runs minutes.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// CollectionMetrics holds OTel instruments for collection-run metrics.
type CollectionMetrics struct {
	reposTotal      metric.Int64Counter
	repoDuration    metric.Float64Histogram
	versionsTotal   metric.Int64Counter
	auxiliaryRows   metric.Int64Counter
	tablesPersisted metric.Int64Counter
}

// NewCollectionMetrics creates collection metric instruments from the given meter.
func NewCollectionMetrics(mt metric.Meter) (*CollectionMetrics, error) {
	repos, err := mt.Int64Counter(metricReposTotal,
		metric.WithDescription("Repositories processed by outcome"),
		metric.WithUnit("{repository}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricReposTotal, err)
	}

	repoDur, err := mt.Float64Histogram(metricRepoDuration,
		metric.WithDescription("Per-repository collection duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRepoDuration, err)
	}

	versions, err := mt.Int64Counter(metricVersionsTotal,
		metric.WithDescription("Version records collected"),
		metric.WithUnit("{version}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricVersionsTotal, err)
	}

	aux, err := mt.Int64Counter(metricAuxiliaryRows,
		metric.WithDescription("Auxiliary rows collected by table"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAuxiliaryRows, err)
	}

	persisted, err := mt.Int64Counter(metricTablesPersisted,
		metric.WithDescription("Table artifacts written"),
		metric.WithUnit("{table}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTablesPersisted, err)
	}

	return &CollectionMetrics{
		reposTotal:      repos,
		repoDuration:    repoDur,
		versionsTotal:   versions,
		auxiliaryRows:   aux,
		tablesPersisted: persisted,
	}, nil
}

// RecordRepo records one processed repository with its outcome and duration.
// Safe to call on a nil receiver (no-op).
func (cm *CollectionMetrics) RecordRepo(ctx context.Context, status string, duration time.Duration) {
	if cm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrRepoStatus, status))

	cm.reposTotal.Add(ctx, 1, attrs)
	cm.repoDuration.Record(ctx, duration.Seconds(), attrs)
}

// AddVersions records collected version records.
// Safe to call on a nil receiver (no-op).
func (cm *CollectionMetrics) AddVersions(ctx context.Context, count int) {
	if cm == nil {
		return
	}

	cm.versionsTotal.Add(ctx, int64(count))
}

// AddAuxiliaryRows records auxiliary rows collected for a table.
// Safe to call on a nil receiver (no-op).
func (cm *CollectionMetrics) AddAuxiliaryRows(ctx context.Context, tableName string, count int) {
	if cm == nil {
		return
	}

	cm.auxiliaryRows.Add(ctx, int64(count), metric.WithAttributes(attribute.String(attrTable, tableName)))
}

// AddTablePersisted records one written table artifact.
// Safe to call on a nil receiver (no-op).
func (cm *CollectionMetrics) AddTablePersisted(ctx context.Context, tableName string) {
	if cm == nil {
		return
	}

	cm.tablesPersisted.Add(ctx, 1, metric.WithAttributes(attribute.String(attrTable, tableName)))
}
