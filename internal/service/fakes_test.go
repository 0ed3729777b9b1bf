package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/raphaelgruber/graphsink/internal/models"
	"github.com/raphaelgruber/graphsink/internal/spec"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testQuery builds a valid paginated read query; the name doubles as the
// routing key for fakeQuerier datasets via the query text.
func testQuery(name string, pageSize int) spec.Query {
	return spec.Query{
		Name:     name,
		Text:     fmt.Sprintf("MATCH (n:%s) RETURN n SKIP $skip LIMIT $limit", name),
		PageSize: pageSize,
	}
}

// fetchCall records one page fetch seen by the fake querier.
type fetchCall struct {
	text  string
	vars  map[string]any
	skip  int
	limit int
}

// fakeQuerier serves pages out of fixed per-query datasets.
type fakeQuerier struct {
	data  map[string][]models.Row
	calls []fetchCall

	// errText makes fetches of that query text fail.
	errText string
}

func (f *fakeQuerier) Execute(ctx context.Context, text string, vars map[string]any, skip, limit int) ([]models.Row, error) {
	f.calls = append(f.calls, fetchCall{text: text, vars: vars, skip: skip, limit: limit})
	if text == f.errText {
		return nil, errors.New("connection reset by peer")
	}

	rows := f.data[text]
	if skip >= len(rows) {
		return nil, nil
	}
	end := skip + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[skip:end], nil
}

func (f *fakeQuerier) callsFor(text string) int {
	n := 0
	for _, c := range f.calls {
		if c.text == text {
			n++
		}
	}
	return n
}

// fakeStore is an in-memory document store implementing merge-upsert
// semantics: incoming fields overwrite, absent stored fields survive.
type fakeStore struct {
	indices map[string]map[string]map[string]any

	created []string
	deleted []string

	// failIDs makes individual documents fail their upsert.
	failIDs map[string]string
	// bulkErr fails the whole bulk call (transport failure).
	bulkErr error
	// lifecycleErr fails index lifecycle calls.
	lifecycleErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{indices: map[string]map[string]map[string]any{}}
}

func (s *fakeStore) seed(index, id string, fields map[string]any) {
	if s.indices[index] == nil {
		s.indices[index] = map[string]map[string]any{}
	}
	s.indices[index][id] = fields
}

func (s *fakeStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if s.lifecycleErr != nil {
		return false, s.lifecycleErr
	}
	_, ok := s.indices[name]
	return ok, nil
}

func (s *fakeStore) CreateIndex(ctx context.Context, name string) error {
	if s.lifecycleErr != nil {
		return s.lifecycleErr
	}
	s.created = append(s.created, name)
	if s.indices[name] == nil {
		s.indices[name] = map[string]map[string]any{}
	}
	return nil
}

func (s *fakeStore) DeleteIndex(ctx context.Context, name string) error {
	if s.lifecycleErr != nil {
		return s.lifecycleErr
	}
	s.deleted = append(s.deleted, name)
	delete(s.indices, name)
	return nil
}

func (s *fakeStore) BulkMerge(ctx context.Context, index string, docs []models.Document) ([]models.ItemResult, error) {
	if s.bulkErr != nil {
		return nil, s.bulkErr
	}
	idx, ok := s.indices[index]
	if !ok {
		return nil, fmt.Errorf("index %s does not exist", index)
	}

	results := make([]models.ItemResult, 0, len(docs))
	for _, doc := range docs {
		if reason, failed := s.failIDs[doc.ID]; failed {
			results = append(results, models.ItemResult{ID: doc.ID, Err: errors.New(reason)})
			continue
		}
		stored, ok := idx[doc.ID]
		if !ok {
			stored = map[string]any{}
			idx[doc.ID] = stored
		}
		for k, v := range doc.Fields {
			stored[k] = v
		}
		results = append(results, models.ItemResult{ID: doc.ID})
	}
	return results, nil
}
