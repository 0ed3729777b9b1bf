package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/graphsink/internal/schema"
	"github.com/raphaelgruber/graphsink/internal/service"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the spec file without touching either store",
	Long: `Check parses the config, spec and model files, then runs read-only
classification and pagination validation over every query. No connection
to the graph store or OpenSearch is made.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	specs, err := resolveSpecs()
	if err != nil {
		return err
	}

	failures := 0
	for _, is := range specs {
		if err := service.ValidateQueries(is); err != nil {
			failures++
			fmt.Printf("FAIL %s: %v\n", is.IndexName, err)
			continue
		}
		queries := 1 + len(is.UpdateQueries)
		fmt.Printf("ok   %s: %d queries, id_field=%s\n", is.IndexName, queries, is.IDField)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d indices have invalid queries", failures, len(specs))
	}
	fmt.Printf("\n%d indices valid\n", len(specs))
	return nil
}

// loadIDFallback derives id fields from the configured model files, keyed
// by node type. Indices named after a node type may omit id_field.
func loadIDFallback() (map[string]string, error) {
	if len(cfg.ModelFiles) == 0 {
		return nil, nil
	}
	s, err := schema.LoadModels(cfg.ModelFiles)
	if err != nil {
		return nil, fmt.Errorf("load model files: %w", err)
	}
	logger.Debug("derived id fields from model files", "count", len(s.IDFields))
	return s.IDFields, nil
}
