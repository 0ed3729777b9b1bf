package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/graphsink/internal/graph"
	"github.com/raphaelgruber/graphsink/internal/metrics"
	"github.com/raphaelgruber/graphsink/internal/models"
	"github.com/raphaelgruber/graphsink/internal/search"
	"github.com/raphaelgruber/graphsink/internal/service"
	"github.com/raphaelgruber/graphsink/internal/spec"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run the full sync: initial loads plus update queries",
	Long: `Load processes every index in the spec file: ensures the target index
exists, streams the initial query into it, then merges each update query's
fields in declared order.

Examples:
  graphsink load --spec-file indices.yaml
  graphsink load -c config.yaml --indices participants,files
  graphsink load -c config.yaml --test-mode`,
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	logger.Info("effective configuration", cfg.Summary()...)

	specs, err := resolveSpecs()
	if err != nil {
		return err
	}

	graphClient, err := graph.NewClient(ctx, graph.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to graph store: %w", err)
	}
	defer graphClient.Close(ctx)

	searchClient, err := search.NewClient(search.Config{
		URL:         cfg.Search.URL,
		Username:    cfg.Search.Username,
		Password:    cfg.Search.Password,
		InsecureTLS: cfg.Search.InsecureTLS,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to search store: %w", err)
	}

	collector := metrics.NewCollector()
	loader := service.NewLoader(graphClient, searchClient, service.Options{
		ClearExisting: cfg.ClearExistingIndices,
		AllowCreation: cfg.AllowIndexCreation,
		TestMode:      cfg.TestMode,
		Parallelism:   cfg.Parallelism,
	}, collector, logger)

	report := loader.Run(ctx, specs)
	printReport(report)

	snap := collector.Snapshot()
	for op, stats := range snap.Operations {
		logger.Debug("operation stats", "op", op,
			"count", stats.Count, "items", stats.Items,
			"total_ms", stats.TotalTimeMs, "avg_ms", stats.AvgTimeMs)
	}

	if !report.Succeeded() {
		return fmt.Errorf("%d of %d indices failed", len(report.FailedIndices()), len(report.Indices))
	}
	return nil
}

// resolveSpecs loads the index spec file, applies model-file id fallbacks,
// validates, and filters to the selected indices.
func resolveSpecs() ([]spec.IndexSpec, error) {
	if cfg.SpecFile == "" {
		return nil, fmt.Errorf("no spec file configured (use --spec-file, GRAPHSINK_SPEC_FILE or the config file)")
	}

	specFile, err := spec.Load(cfg.SpecFile)
	if err != nil {
		return nil, err
	}

	idFallback, err := loadIDFallback()
	if err != nil {
		return nil, err
	}
	if err := specFile.Validate(idFallback); err != nil {
		return nil, err
	}
	return specFile.Select(cfg.SelectedIndices)
}

func printReport(report models.RunReport) {
	fmt.Printf("Run %s: %d indices\n\n", report.RunID, len(report.Indices))
	for _, idx := range report.Indices {
		fmt.Printf("%s: %s", idx.Index, idx.State)
		if idx.Reason != "" {
			fmt.Printf(" (%s)", idx.Reason)
		}
		fmt.Println()
		for _, q := range idx.Queries {
			fmt.Printf("  %-12s pages=%d rows=%d upserted=%d failed=%d skipped=%d\n",
				q.Name, q.Pages, q.Rows, q.Upserted, q.Failed, q.Skipped)
		}
	}
}
