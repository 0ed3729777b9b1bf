package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/raphaelgruber/graphsink/internal/cypher"
	"github.com/raphaelgruber/graphsink/internal/metrics"
	"github.com/raphaelgruber/graphsink/internal/models"
	"github.com/raphaelgruber/graphsink/internal/spec"
)

// Options configures a sync run.
type Options struct {
	// ClearExisting deletes each target index before its initial load.
	ClearExisting bool
	// AllowCreation permits creating missing indices. When false a
	// missing index fails that index.
	AllowCreation bool
	// TestMode limits every query to a single page.
	TestMode bool
	// Parallelism bounds concurrent index syncs. Values below 2 run
	// indices sequentially. Queries within an index always run in order.
	Parallelism int
}

// Loader orchestrates the sync: per index it validates all queries, brings
// the index into shape, runs the initial load and then each update query
// in declared order. Indices are independent failure units.
type Loader struct {
	querier Querier
	store   DocumentStore
	opts    Options
	metrics *metrics.Collector
	log     *slog.Logger
}

// NewLoader wires a loader over the two transports.
func NewLoader(querier Querier, store DocumentStore, opts Options, collector *metrics.Collector, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{
		querier: querier,
		store:   store,
		opts:    opts,
		metrics: collector,
		log:     log,
	}
}

// Run processes every index spec and returns the run report. A failed
// index never stops the run; the report records its reason.
func (l *Loader) Run(ctx context.Context, specs []spec.IndexSpec) models.RunReport {
	report := models.RunReport{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Indices: make([]models.IndexReport, len(specs)),
	}
	log := l.log.With("run_id", report.RunID)
	log.Info("starting sync run", "indices", len(specs), "parallelism", l.opts.Parallelism)

	if l.opts.Parallelism > 1 {
		// Indices have disjoint identity spaces so they may sync
		// concurrently; each one still runs its own queries in order.
		var g errgroup.Group
		g.SetLimit(l.opts.Parallelism)
		for i := range specs {
			g.Go(func() error {
				report.Indices[i] = l.processIndex(ctx, specs[i], log)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range specs {
			report.Indices[i] = l.processIndex(ctx, specs[i], log)
		}
	}

	report.Finished = time.Now()
	log.Info("sync run finished",
		"duration", report.Finished.Sub(report.Started).Round(time.Millisecond),
		"failed_indices", report.FailedIndices())
	return report
}

// processIndex drives one index through the state machine:
// validating -> loading -> updating -> done, or failed from any state.
func (l *Loader) processIndex(ctx context.Context, is spec.IndexSpec, log *slog.Logger) models.IndexReport {
	log = log.With("index", is.IndexName)
	rep := models.IndexReport{Index: is.IndexName}

	fail := func(err error) models.IndexReport {
		log.Error("index sync failed", "error", err)
		rep.State = models.StateFailed
		rep.Reason = err.Error()
		return rep
	}

	// Validate every query up front so a defective update query is caught
	// before the long initial load, not after it.
	log.Info("validating queries", "state", models.StateValidating)
	if err := ValidateQueries(is); err != nil {
		return fail(err)
	}

	if err := l.ensureIndex(ctx, is.IndexName, log); err != nil {
		return fail(err)
	}

	log.Info("running initial load", "state", models.StateLoading)
	qr, err := l.runQuery(ctx, is, is.InitialQuery, "initial", log)
	rep.Queries = append(rep.Queries, qr)
	if err != nil {
		return fail(fmt.Errorf("initial query: %w", err))
	}

	for i, uq := range is.UpdateQueries {
		if i == 0 {
			log.Info("running update queries", "state", models.StateUpdating, "count", len(is.UpdateQueries))
		}
		qr, err := l.runQuery(ctx, is, uq, fmt.Sprintf("update-%d", i), log)
		rep.Queries = append(rep.Queries, qr)
		if err != nil {
			return fail(fmt.Errorf("update query %s: %w", qr.Name, err))
		}
	}

	rep.State = models.StateDone
	log.Info("index sync complete", "state", models.StateDone)
	return rep
}

// ValidateQueries classifies the initial and every update query. An index
// whose spec contains any write query is rejected wholesale: partially
// applying a spec would leave the index inconsistently synced.
func ValidateQueries(is spec.IndexSpec) error {
	check := func(name, text string) error {
		if err := cypher.ClassifyReadOnly(text); err != nil {
			return fmt.Errorf("%w: %s query: %w", ErrValidation, name, err)
		}
		if err := cypher.ValidatePagination(text); err != nil {
			return fmt.Errorf("%w: %s query: %w", ErrValidation, name, err)
		}
		return nil
	}

	if err := check("initial", is.InitialQuery.Text); err != nil {
		return err
	}
	for i, uq := range is.UpdateQueries {
		name := uq.Name
		if name == "" {
			name = fmt.Sprintf("update-%d", i)
		}
		if err := check(name, uq.Text); err != nil {
			return err
		}
	}
	return nil
}

// ensureIndex brings the target index into the configured shape before the
// initial load.
func (l *Loader) ensureIndex(ctx context.Context, name string, log *slog.Logger) error {
	start := time.Now()
	defer func() {
		if l.metrics != nil {
			l.metrics.Record(metrics.OpEnsureIdx, time.Since(start), 1)
		}
	}()

	if l.opts.ClearExisting {
		log.Info("clearing existing index")
		if err := l.store.DeleteIndex(ctx, name); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	}

	exists, err := l.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}
	if !l.opts.AllowCreation {
		return fmt.Errorf("%w: %s", ErrIndexMissing, name)
	}
	if err := l.store.CreateIndex(ctx, name); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// runQuery executes one query end to end: stream pages, project rows,
// flush each page as a bulk merge.
func (l *Loader) runQuery(ctx context.Context, is spec.IndexSpec, q spec.Query, defaultName string, log *slog.Logger) (models.QueryReport, error) {
	name := q.Name
	if name == "" {
		name = defaultName
	}
	qlog := log.With("query", name)

	executor := NewExecutor(l.querier, l.metrics, qlog, l.opts.TestMode)
	sink := NewSink(l.store, l.metrics, qlog)
	rep := models.QueryReport{Name: name}

	pages, rows, err := executor.Stream(ctx, q, func(page []models.Row) error {
		docs, skipped := projectPage(page, is.IDField, qlog)
		rep.Skipped += skipped

		ok, failed, err := sink.Flush(ctx, is.IndexName, docs)
		rep.Upserted += ok
		rep.Failed += failed
		return err
	})
	rep.Pages = pages
	rep.Rows = rows

	qlog.Info("query complete",
		"pages", rep.Pages, "rows", rep.Rows,
		"upserted", rep.Upserted, "failed", rep.Failed, "skipped", rep.Skipped)
	return rep, err
}
