// Package config holds loader configuration with layered precedence:
// built-in defaults, then the YAML config file, then GRAPHSINK_*
// environment variables, then CLI flags. Each layer only overwrites keys
// it explicitly sets.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GraphConfig holds Bolt connection parameters for the source graph store.
type GraphConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SearchConfig holds connection parameters for the target OpenSearch
// cluster.
type SearchConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	InsecureTLS bool   `yaml:"insecure_tls"`
}

// Config is the fully resolved loader configuration.
type Config struct {
	Graph  GraphConfig  `yaml:"graph"`
	Search SearchConfig `yaml:"search"`

	SpecFile        string   `yaml:"spec_file"`
	ModelFiles      []string `yaml:"model_files"`
	SelectedIndices []string `yaml:"selected_indices"`

	ClearExistingIndices bool `yaml:"clear_existing_indices"`
	AllowIndexCreation   bool `yaml:"allow_index_creation"`

	// TestMode runs a single page per query to smoke-validate the spec.
	TestMode bool `yaml:"test_mode"`

	// Parallelism bounds how many indices sync concurrently. Within one
	// index execution is always sequential.
	Parallelism int `yaml:"parallelism"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Graph: GraphConfig{
			URI: "bolt://localhost:7687",
		},
		Search: SearchConfig{
			URL: "http://localhost:9200",
		},
		AllowIndexCreation: true,
		Parallelism:        1,
		LogLevel:           "INFO",
	}
}

// Load builds a config from defaults overlaid with the YAML file at path.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	// Unmarshal into the defaulted struct so absent keys keep defaults.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	cfg.trim()
	return cfg, nil
}

// ApplyEnv overlays GRAPHSINK_* environment variables onto the config.
func (c *Config) ApplyEnv() {
	setString(&c.Graph.URI, "GRAPHSINK_GRAPH_URI")
	setString(&c.Graph.Username, "GRAPHSINK_GRAPH_USERNAME")
	setString(&c.Graph.Password, "GRAPHSINK_GRAPH_PASSWORD")

	setString(&c.Search.URL, "GRAPHSINK_SEARCH_URL")
	setString(&c.Search.Username, "GRAPHSINK_SEARCH_USERNAME")
	setString(&c.Search.Password, "GRAPHSINK_SEARCH_PASSWORD")
	setBool(&c.Search.InsecureTLS, "GRAPHSINK_SEARCH_INSECURE_TLS")

	setString(&c.SpecFile, "GRAPHSINK_SPEC_FILE")
	setList(&c.ModelFiles, "GRAPHSINK_MODEL_FILES")
	setList(&c.SelectedIndices, "GRAPHSINK_SELECTED_INDICES")

	setBool(&c.ClearExistingIndices, "GRAPHSINK_CLEAR_EXISTING_INDICES")
	setBool(&c.AllowIndexCreation, "GRAPHSINK_ALLOW_INDEX_CREATION")
	setBool(&c.TestMode, "GRAPHSINK_TEST_MODE")
	setInt(&c.Parallelism, "GRAPHSINK_PARALLELISM")

	setString(&c.LogFile, "GRAPHSINK_LOG_FILE")
	setString(&c.LogLevel, "GRAPHSINK_LOG_LEVEL")
}

// Level parses the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToUpper(strings.TrimSpace(c.LogLevel)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Summary returns loggable key-value pairs, excluding connection secrets.
func (c Config) Summary() []any {
	return []any{
		"spec_file", c.SpecFile,
		"model_files", c.ModelFiles,
		"selected_indices", c.SelectedIndices,
		"clear_existing_indices", c.ClearExistingIndices,
		"allow_index_creation", c.AllowIndexCreation,
		"test_mode", c.TestMode,
		"parallelism", c.Parallelism,
	}
}

func (c *Config) trim() {
	c.Graph.URI = strings.TrimSpace(c.Graph.URI)
	c.Graph.Username = strings.TrimSpace(c.Graph.Username)
	c.Search.URL = strings.TrimSpace(c.Search.URL)
	c.Search.Username = strings.TrimSpace(c.Search.Username)
	c.SpecFile = strings.TrimSpace(c.SpecFile)
	c.ModelFiles = trimList(c.ModelFiles)
	c.SelectedIndices = trimList(c.SelectedIndices)
}

func trimList(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		*dst = val
	}
}

func setList(dst *[]string, key string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		*dst = trimList(strings.Split(val, ","))
	}
}

func setBool(dst *bool, key string) {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	}
}

func setInt(dst *int, key string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}
