package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/graphsink/internal/metrics"
	"github.com/raphaelgruber/graphsink/internal/models"
	"github.com/raphaelgruber/graphsink/internal/spec"
)

// Executor drives one query to completion across page boundaries. The
// stream is finite and not restartable: the offset advances by the page
// size until a short or empty page signals exhaustion.
type Executor struct {
	querier Querier
	metrics *metrics.Collector
	log     *slog.Logger

	// singlePage stops after the first page (test mode).
	singlePage bool
}

// NewExecutor creates an executor over the given query transport.
func NewExecutor(querier Querier, collector *metrics.Collector, log *slog.Logger, singlePage bool) *Executor {
	return &Executor{
		querier:    querier,
		metrics:    collector,
		log:        log,
		singlePage: singlePage,
	}
}

// Stream fetches pages sequentially and hands each one to fn before the
// next fetch. Rows keep the order the store returned them in. A page-fetch
// error or an fn error aborts the stream. Returns pages fetched and rows
// yielded.
func (e *Executor) Stream(ctx context.Context, q spec.Query, fn func(page []models.Row) error) (pages, rows int, err error) {
	size := q.EffectivePageSize()

	for skip := 0; ; skip += size {
		start := time.Now()
		page, err := e.querier.Execute(ctx, q.Text, q.Variables, skip, size)
		if e.metrics != nil {
			e.metrics.Record(metrics.OpPageFetch, time.Since(start), len(page))
		}
		if err != nil {
			return pages, rows, fmt.Errorf("fetch page at offset %d: %w", skip, err)
		}
		if len(page) == 0 {
			break
		}

		pages++
		rows += len(page)
		e.log.Debug("page fetched", "offset", skip, "rows", len(page))

		if err := fn(page); err != nil {
			return pages, rows, err
		}

		if len(page) < size {
			break
		}
		if e.singlePage {
			e.log.Info("test mode: stopping after first page")
			break
		}
	}
	return pages, rows, nil
}
