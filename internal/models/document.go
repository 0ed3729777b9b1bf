// Package models defines the data types flowing through the sync pipeline.
package models

import (
	"strconv"
	"strings"
)

// Row is one result row returned by a graph query, keyed by column name.
// Values are whatever the driver produced: strings, numbers, booleans, nil,
// nested maps and lists.
type Row map[string]any

// Document is a flat search document plus the identity extracted from the
// configured id field. Fields are copied verbatim from the producing row.
type Document struct {
	ID     string
	Fields map[string]any
}

// IdentityString converts a raw identity column value into a document ID.
// Returns false for values that cannot key a document: nil, empty or
// whitespace-only strings, and unsupported types.
func IdentityString(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		trimmed := strings.TrimSpace(id)
		return trimmed, trimmed != ""
	case int:
		return strconv.Itoa(id), true
	case int32:
		return strconv.FormatInt(int64(id), 10), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	default:
		return "", false
	}
}

// ItemResult reports the outcome of one document within a bulk operation.
// Err is nil for documents that were written.
type ItemResult struct {
	ID  string
	Err error
}
