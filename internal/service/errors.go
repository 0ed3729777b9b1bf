// Package service implements the sync pipeline: query validation, paged
// execution, row projection, merge-upsert batching and the per-index
// orchestration state machine.
package service

import "errors"

// Sentinel errors for pipeline failures. Use errors.Is() in calling code.
var (
	// ErrValidation indicates a query failed read-only classification or
	// pagination validation. Fatal to the owning index, checked before
	// anything is written.
	ErrValidation = errors.New("query validation failed")

	// ErrMissingIdentity indicates a row lacks the configured id field or
	// carries an empty value. The row is skipped, the page proceeds.
	ErrMissingIdentity = errors.New("row missing identity field")

	// ErrIndexMissing indicates the target index does not exist and
	// creation is disallowed.
	ErrIndexMissing = errors.New("index missing and creation disallowed")
)
