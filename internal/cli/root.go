// Package cli provides the command-line interface for graphsink.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/graphsink/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

// Flag values, overlaid onto the config when explicitly set.
var (
	flagConfigFile string
	flagVerbose    bool

	flagGraphURI      string
	flagGraphUser     string
	flagGraphPass     string
	flagSearchURL     string
	flagSearchUser    string
	flagSearchPass    string
	flagSearchNoTLS   bool
	flagSpecFile      string
	flagModelFiles    []string
	flagSelected      []string
	flagClearIndices  bool
	flagAllowCreation bool
	flagTestMode      bool
	flagParallel      int
	flagLogFile       string
	flagLogLevel      string
)

// Resolved per invocation in PersistentPreRunE.
var (
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
)

var rootCmd = &cobra.Command{
	Use:   "graphsink",
	Short: "Sync graph query results into OpenSearch indices",
	Long: `Graphsink synchronizes the results of read-only Cypher queries into
OpenSearch indices: an initial bulk load per index followed by update
queries whose fields are merged into the existing documents.

Configuration precedence: CLI flags > GRAPHSINK_* environment variables >
config file > defaults.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(flagConfigFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.ApplyEnv()
		overlayFlags(cmd)

		level := cfg.Level()
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// overlayFlags applies explicitly set flags onto the config, the highest
// precedence layer.
func overlayFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("graph-uri") {
		cfg.Graph.URI = flagGraphURI
	}
	if f.Changed("graph-username") {
		cfg.Graph.Username = flagGraphUser
	}
	if f.Changed("graph-password") {
		cfg.Graph.Password = flagGraphPass
	}
	if f.Changed("search-url") {
		cfg.Search.URL = flagSearchURL
	}
	if f.Changed("search-username") {
		cfg.Search.Username = flagSearchUser
	}
	if f.Changed("search-password") {
		cfg.Search.Password = flagSearchPass
	}
	if f.Changed("search-insecure-tls") {
		cfg.Search.InsecureTLS = flagSearchNoTLS
	}
	if f.Changed("spec-file") {
		cfg.SpecFile = flagSpecFile
	}
	if f.Changed("model-files") {
		cfg.ModelFiles = flagModelFiles
	}
	if f.Changed("indices") {
		cfg.SelectedIndices = flagSelected
	}
	if f.Changed("clear-existing-indices") {
		cfg.ClearExistingIndices = flagClearIndices
	}
	if f.Changed("allow-index-creation") {
		cfg.AllowIndexCreation = flagAllowCreation
	}
	if f.Changed("test-mode") {
		cfg.TestMode = flagTestMode
	}
	if f.Changed("parallel") {
		cfg.Parallelism = flagParallel
	}
	if f.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfigFile, "config", "c", "", "path to config YAML file")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	pf.StringVar(&flagGraphURI, "graph-uri", "", "graph store Bolt URI")
	pf.StringVar(&flagGraphUser, "graph-username", "", "graph store username")
	pf.StringVar(&flagGraphPass, "graph-password", "", "graph store password")

	pf.StringVar(&flagSearchURL, "search-url", "", "OpenSearch URL")
	pf.StringVar(&flagSearchUser, "search-username", "", "OpenSearch username")
	pf.StringVar(&flagSearchPass, "search-password", "", "OpenSearch password")
	pf.BoolVar(&flagSearchNoTLS, "search-insecure-tls", false, "skip TLS certificate verification")

	pf.StringVarP(&flagSpecFile, "spec-file", "s", "", "path to index specification YAML file")
	pf.StringSliceVar(&flagModelFiles, "model-files", nil, "model YAML files used to derive id fields")
	pf.StringSliceVar(&flagSelected, "indices", nil, "only process the named indices")

	pf.BoolVar(&flagClearIndices, "clear-existing-indices", false, "delete target indices before loading")
	pf.BoolVar(&flagAllowCreation, "allow-index-creation", true, "create missing target indices")
	pf.BoolVar(&flagTestMode, "test-mode", false, "run a single page per query")
	pf.IntVar(&flagParallel, "parallel", 1, "number of indices to sync concurrently")

	pf.StringVar(&flagLogFile, "log-file", "", "append JSON logs to this file")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(checkCmd)
}
