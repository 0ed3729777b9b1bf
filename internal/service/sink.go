package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/graphsink/internal/metrics"
	"github.com/raphaelgruber/graphsink/internal/models"
)

// Sink applies projected documents to the target index, one bulk merge
// per page. Per-document failures are logged and counted without aborting
// the batch; only transport failure is returned as an error.
type Sink struct {
	store   DocumentStore
	metrics *metrics.Collector
	log     *slog.Logger
}

// NewSink creates a sink over the given document store.
func NewSink(store DocumentStore, collector *metrics.Collector, log *slog.Logger) *Sink {
	return &Sink{store: store, metrics: collector, log: log}
}

// Flush submits one batch and returns per-document success/failure counts.
func (s *Sink) Flush(ctx context.Context, index string, docs []models.Document) (succeeded, failed int, err error) {
	if len(docs) == 0 {
		return 0, 0, nil
	}

	start := time.Now()
	results, err := s.store.BulkMerge(ctx, index, docs)
	if s.metrics != nil {
		s.metrics.Record(metrics.OpBulkUpsert, time.Since(start), len(docs))
	}
	if err != nil {
		return 0, 0, fmt.Errorf("bulk merge into %s: %w", index, err)
	}

	for _, res := range results {
		if res.Err != nil {
			s.log.Warn("document upsert failed", "index", index, "id", res.ID, "error", res.Err)
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed, nil
}
