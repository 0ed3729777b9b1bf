package service

import (
	"context"

	"github.com/raphaelgruber/graphsink/internal/models"
)

// Querier executes one page of a parameterized read query against the
// source graph store. Implementations bind skip and limit as the $skip and
// $limit parameters and must not modify vars.
type Querier interface {
	Execute(ctx context.Context, text string, vars map[string]any, skip, limit int) ([]models.Row, error)
}

// DocumentStore is the target index store. BulkMerge applies merge-upsert
// semantics per document and reports per-item outcomes; the other methods
// manage index lifecycle.
type DocumentStore interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string) error
	DeleteIndex(ctx context.Context, name string) error
	BulkMerge(ctx context.Context, index string, docs []models.Document) ([]models.ItemResult, error)
}
