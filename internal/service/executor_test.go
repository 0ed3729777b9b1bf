package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/graphsink/internal/models"
)

func makeRows(n int) []models.Row {
	rows := make([]models.Row, n)
	for i := range rows {
		rows[i] = models.Row{"id": fmt.Sprintf("row-%04d", i), "seq": i}
	}
	return rows
}

func TestStream_PaginatesUntilShortPage(t *testing.T) {
	q := testQuery("q", 1000)
	querier := &fakeQuerier{data: map[string][]models.Row{q.Text: makeRows(2500)}}
	executor := NewExecutor(querier, nil, testLogger(), false)

	var seen []models.Row
	pages, rows, err := executor.Stream(context.Background(), q, func(page []models.Row) error {
		seen = append(seen, page...)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, pages, "2500 rows at page size 1000 is three pages")
	assert.Equal(t, 2500, rows)
	require.Len(t, querier.calls, 3, "short final page must end the stream without an extra fetch")
	assert.Equal(t, []int{0, 1000, 2000}, []int{querier.calls[0].skip, querier.calls[1].skip, querier.calls[2].skip})

	require.Len(t, seen, 2500)
	for i, row := range seen {
		assert.Equal(t, i, row["seq"], "rows must arrive exactly once in source order")
	}
}

func TestStream_ExactMultipleFetchesEmptyPage(t *testing.T) {
	q := testQuery("q", 1000)
	querier := &fakeQuerier{data: map[string][]models.Row{q.Text: makeRows(2000)}}
	executor := NewExecutor(querier, nil, testLogger(), false)

	pages, rows, err := executor.Stream(context.Background(), q, func([]models.Row) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, 2, pages)
	assert.Equal(t, 2000, rows)
	// A full final page cannot signal exhaustion, so one empty fetch follows.
	assert.Len(t, querier.calls, 3)
}

func TestStream_EmptyResult(t *testing.T) {
	q := testQuery("q", 100)
	querier := &fakeQuerier{data: map[string][]models.Row{}}
	executor := NewExecutor(querier, nil, testLogger(), false)

	called := false
	pages, rows, err := executor.Stream(context.Background(), q, func([]models.Row) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, pages)
	assert.Zero(t, rows)
	assert.False(t, called, "no page callback for an empty result")
}

func TestStream_VariablesStableAcrossPages(t *testing.T) {
	q := testQuery("q", 10)
	q.Variables = map[string]any{"dataset": "prod", "since": 42}
	querier := &fakeQuerier{data: map[string][]models.Row{q.Text: makeRows(25)}}
	executor := NewExecutor(querier, nil, testLogger(), false)

	_, _, err := executor.Stream(context.Background(), q, func([]models.Row) error { return nil })
	require.NoError(t, err)

	require.Len(t, querier.calls, 3)
	for _, call := range querier.calls {
		assert.Equal(t, map[string]any{"dataset": "prod", "since": 42}, call.vars)
		assert.Equal(t, 10, call.limit)
	}
}

func TestStream_FetchErrorAborts(t *testing.T) {
	q := testQuery("q", 100)
	querier := &fakeQuerier{errText: q.Text}
	executor := NewExecutor(querier, nil, testLogger(), false)

	_, _, err := executor.Stream(context.Background(), q, func([]models.Row) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 0")
}

func TestStream_CallbackErrorAborts(t *testing.T) {
	q := testQuery("q", 10)
	querier := &fakeQuerier{data: map[string][]models.Row{q.Text: makeRows(100)}}
	executor := NewExecutor(querier, nil, testLogger(), false)

	sinkErr := errors.New("store unavailable")
	pages, _, err := executor.Stream(context.Background(), q, func([]models.Row) error { return sinkErr })
	require.ErrorIs(t, err, sinkErr)
	assert.Equal(t, 1, pages, "first callback failure must stop further fetches")
	assert.Len(t, querier.calls, 1)
}

func TestStream_SinglePageMode(t *testing.T) {
	q := testQuery("q", 10)
	querier := &fakeQuerier{data: map[string][]models.Row{q.Text: makeRows(100)}}
	executor := NewExecutor(querier, nil, testLogger(), true)

	pages, rows, err := executor.Stream(context.Background(), q, func([]models.Row) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	assert.Equal(t, 10, rows)
	assert.Len(t, querier.calls, 1)
}
