package service

import (
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/graphsink/internal/models"
)

// ProjectRow maps a result row onto a flat document. Every column is
// copied verbatim; the identity is taken from the id field. A missing,
// nil or empty identity fails with ErrMissingIdentity.
func ProjectRow(row models.Row, idField string) (models.Document, error) {
	raw, ok := row[idField]
	if !ok {
		return models.Document{}, fmt.Errorf("%w: no column %q", ErrMissingIdentity, idField)
	}
	id, ok := models.IdentityString(raw)
	if !ok {
		return models.Document{}, fmt.Errorf("%w: column %q is empty (%T)", ErrMissingIdentity, idField, raw)
	}

	fields := make(map[string]any, len(row))
	for k, v := range row {
		fields[k] = v
	}
	return models.Document{ID: id, Fields: fields}, nil
}

// projectPage projects a whole page, skipping rows without a usable
// identity. One malformed row never blocks the rest of the page.
func projectPage(rows []models.Row, idField string, log *slog.Logger) (docs []models.Document, skipped int) {
	docs = make([]models.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := ProjectRow(row, idField)
		if err != nil {
			log.Warn("skipping row", "error", err)
			skipped++
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped
}
