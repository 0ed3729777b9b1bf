package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/graphsink/internal/models"
)

// buildBulkBody encodes documents as newline-delimited bulk update actions.
// Each action uses doc_as_upsert, which is OpenSearch's native merge
// semantics: present fields overwrite, absent fields are preserved, and a
// missing document is inserted from the partial doc.
func buildBulkBody(index string, docs []models.Document) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)

	type updateAction struct {
		Index           string `json:"_index"`
		ID              string `json:"_id"`
		RetryOnConflict int    `json:"retry_on_conflict"`
	}
	type updateBody struct {
		Doc         map[string]any `json:"doc"`
		DocAsUpsert bool           `json:"doc_as_upsert"`
	}

	for _, doc := range docs {
		meta := map[string]updateAction{
			"update": {Index: index, ID: doc.ID, RetryOnConflict: 3},
		}
		if err := enc.Encode(meta); err != nil {
			return "", fmt.Errorf("encode action for %s: %w", doc.ID, err)
		}
		if err := enc.Encode(updateBody{Doc: doc.Fields, DocAsUpsert: true}); err != nil {
			return "", fmt.Errorf("encode document %s: %w", doc.ID, err)
		}
	}
	return b.String(), nil
}

type bulkItem struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type bulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

// parseBulkResponse maps the bulk API response onto per-document results,
// in request order.
func parseBulkResponse(r io.Reader) ([]models.ItemResult, error) {
	var resp bulkResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}

	results := make([]models.ItemResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		// Each item has a single key naming the action type.
		for _, detail := range item {
			res := models.ItemResult{ID: detail.ID}
			if detail.Error != nil {
				res.Err = fmt.Errorf("%s: %s", detail.Error.Type, detail.Error.Reason)
			} else if detail.Status >= 300 {
				res.Err = fmt.Errorf("status %d", detail.Status)
			}
			results = append(results, res)
		}
	}
	return results, nil
}
