package models

import "time"

// IndexState tracks an index through the sync state machine.
type IndexState string

const (
	StateValidating IndexState = "validating"
	StateLoading    IndexState = "loading"
	StateUpdating   IndexState = "updating"
	StateDone       IndexState = "done"
	StateFailed     IndexState = "failed"
)

// QueryReport summarizes one query execution within an index sync.
type QueryReport struct {
	Name     string
	Pages    int
	Rows     int
	Upserted int
	Failed   int
	Skipped  int
}

// IndexReport is the terminal record for one index: Done or Failed, with
// per-query counts and the failure reason if any.
type IndexReport struct {
	Index   string
	State   IndexState
	Reason  string
	Queries []QueryReport
}

// RunReport is returned to the caller after all indices were processed.
type RunReport struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Indices  []IndexReport
}

// Succeeded reports whether every index reached Done.
func (r RunReport) Succeeded() bool {
	for _, idx := range r.Indices {
		if idx.State != StateDone {
			return false
		}
	}
	return true
}

// FailedIndices returns the names of indices that did not reach Done.
func (r RunReport) FailedIndices() []string {
	var failed []string
	for _, idx := range r.Indices {
		if idx.State != StateDone {
			failed = append(failed, idx.Index)
		}
	}
	return failed
}
