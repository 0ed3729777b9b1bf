// Package graph provides the Bolt transport for the source graph store
// (Memgraph or Neo4j).
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/raphaelgruber/graphsink/internal/models"
)

// Config holds Bolt connection configuration.
type Config struct {
	URI      string
	Username string
	Password string
}

// Client wraps a Bolt driver for parameterized read queries.
type Client struct {
	driver neo4j.DriverWithContext
	log    *slog.Logger
}

// NewClient connects to the graph store and verifies connectivity with
// exponential backoff. The store may still be starting when the loader
// launches alongside it, so the first ping is retried for a short while.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	err = backoff.Retry(func() error {
		return driver.VerifyConnectivity(ctx)
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify connectivity: %w", err)
	}

	log.Info("connected to graph store", "uri", cfg.URI)
	return &Client{driver: driver, log: log}, nil
}

// Close closes the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	c.log.Info("closing graph connection")
	return c.driver.Close(ctx)
}

// Execute runs one page of a query in a read-access session. The declared
// variables are never modified; skip and limit are bound as the $skip and
// $limit parameters the query text references.
func (c *Client) Execute(ctx context.Context, text string, vars map[string]any, skip, limit int) ([]models.Row, error) {
	params := make(map[string]any, len(vars)+2)
	for k, v := range vars {
		params[k] = v
	}
	params["skip"] = skip
	params["limit"] = limit

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, text, params)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	var rows []models.Row
	for result.Next(ctx) {
		rows = append(rows, models.Row(result.Record().AsMap()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("consume result: %w", err)
	}

	c.log.Debug("fetched page", "rows", len(rows), "skip", skip, "limit", limit)
	return rows, nil
}
