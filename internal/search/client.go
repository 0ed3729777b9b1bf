// Package search provides the OpenSearch transport: index lifecycle and
// bulk merge-upserts.
package search

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/raphaelgruber/graphsink/internal/models"
)

// Config holds OpenSearch connection configuration.
type Config struct {
	URL         string
	Username    string
	Password    string
	InsecureTLS bool
}

// Client wraps the OpenSearch API client.
type Client struct {
	os  *opensearch.Client
	log *slog.Logger
}

// NewClient builds an OpenSearch client. InsecureTLS skips certificate
// verification for self-signed cluster certs.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	osCfg := opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.InsecureTLS {
		osCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	log.Info("connected to search store", "url", cfg.URL)
	return &Client{os: client, log: log}, nil
}

// IndexExists reports whether the named index exists.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, c.os)
	if err != nil {
		return false, fmt.Errorf("index exists: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("index exists: unexpected status %s", res.Status())
	}
}

// CreateIndex creates the named index with an implicit mapping; field
// types are detected on write.
func (c *Client) CreateIndex(ctx context.Context, name string) error {
	res, err := opensearchapi.IndicesCreateRequest{Index: name}.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", name, res.String())
	}
	c.log.Info("created index", "index", name)
	return nil
}

// DeleteIndex deletes the named index. Deleting an absent index is not an
// error.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	res, err := opensearchapi.IndicesDeleteRequest{Index: []string{name}}.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		c.log.Debug("index absent, nothing to delete", "index", name)
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("delete index %s: %s", name, res.String())
	}
	c.log.Info("deleted index", "index", name)
	return nil
}

// BulkMerge applies one batch of documents to the index with merge
// semantics: fields present in a document overwrite the stored fields,
// absent stored fields are preserved, and missing documents are inserted.
// Per-document failures are reported in the returned results, not as an
// error; the error return covers transport-level failure only.
func (c *Client) BulkMerge(ctx context.Context, index string, docs []models.Document) ([]models.ItemResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	body, err := buildBulkBody(index, docs)
	if err != nil {
		return nil, fmt.Errorf("encode bulk body: %w", err)
	}

	res, err := opensearchapi.BulkRequest{
		Body:    strings.NewReader(body),
		Refresh: "true",
	}.Do(ctx, c.os)
	if err != nil {
		return nil, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("bulk request: %s", res.String())
	}

	results, err := parseBulkResponse(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse bulk response: %w", err)
	}
	return results, nil
}
