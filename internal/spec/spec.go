// Package spec defines the index specification file: which indices to sync,
// how documents are keyed, and the queries that populate them.
package spec

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPageSize applies when a query declares no page_size.
const DefaultPageSize = 1000

// ErrInvalid marks a malformed index specification. Spec errors are fatal
// at startup, before any index is touched.
var ErrInvalid = errors.New("invalid index spec")

// Query is one parameterized Cypher query. The text must reference $skip
// and $limit so the executor can page through results.
type Query struct {
	Name      string         `yaml:"name"`
	Text      string         `yaml:"query"`
	Variables map[string]any `yaml:"variables"`
	PageSize  int            `yaml:"page_size"`
}

// EffectivePageSize returns the declared page size or DefaultPageSize.
func (q Query) EffectivePageSize() int {
	if q.PageSize > 0 {
		return q.PageSize
	}
	return DefaultPageSize
}

// IndexSpec declares one target index: an initial query that bulk-loads
// documents and update queries that merge additional fields, applied in
// declaration order.
type IndexSpec struct {
	IndexName     string  `yaml:"index_name"`
	IDField       string  `yaml:"id_field"`
	InitialQuery  Query   `yaml:"initial_query"`
	UpdateQueries []Query `yaml:"update_queries"`
}

// File is the parsed index specification document.
type File struct {
	Indices []IndexSpec `yaml:"indices"`
}

// Load reads and parses an index specification file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index spec: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse index spec: %w", err)
	}
	return &f, nil
}

// Validate checks structural invariants: at least one index, unique
// non-empty index names, a non-empty id field, and non-empty query text.
// idFallback maps index names to id fields derived from model files; it is
// consulted (and written back into the spec) when id_field is omitted.
func (f *File) Validate(idFallback map[string]string) error {
	if len(f.Indices) == 0 {
		return fmt.Errorf("%w: no indices defined", ErrInvalid)
	}

	seen := make(map[string]struct{}, len(f.Indices))
	for i := range f.Indices {
		idx := &f.Indices[i]

		idx.IndexName = strings.TrimSpace(idx.IndexName)
		if idx.IndexName == "" {
			return fmt.Errorf("%w: index %d has no index_name", ErrInvalid, i)
		}
		if _, dup := seen[idx.IndexName]; dup {
			return fmt.Errorf("%w: duplicate index_name %q", ErrInvalid, idx.IndexName)
		}
		seen[idx.IndexName] = struct{}{}

		idx.IDField = strings.TrimSpace(idx.IDField)
		if idx.IDField == "" {
			if derived, ok := idFallback[idx.IndexName]; ok {
				idx.IDField = derived
			} else {
				return fmt.Errorf("%w: index %q has no id_field and no model file derives one", ErrInvalid, idx.IndexName)
			}
		}

		if strings.TrimSpace(idx.InitialQuery.Text) == "" {
			return fmt.Errorf("%w: index %q has no initial_query", ErrInvalid, idx.IndexName)
		}
		for j, uq := range idx.UpdateQueries {
			if strings.TrimSpace(uq.Text) == "" {
				return fmt.Errorf("%w: index %q update query %s has empty query text", ErrInvalid, idx.IndexName, describeQuery(uq, j))
			}
		}
	}
	return nil
}

// Select returns the subset of indices named in selected, preserving spec
// order. An unknown name is a startup error. A nil or empty selection
// returns all indices.
func (f *File) Select(selected []string) ([]IndexSpec, error) {
	if len(selected) == 0 {
		return f.Indices, nil
	}

	want := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		want[name] = struct{}{}
	}
	if len(want) == 0 {
		return f.Indices, nil
	}

	var out []IndexSpec
	for _, idx := range f.Indices {
		if _, ok := want[idx.IndexName]; ok {
			out = append(out, idx)
			delete(want, idx.IndexName)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for name := range want {
			unknown = append(unknown, name)
		}
		return nil, fmt.Errorf("%w: selected indices not in spec: %s", ErrInvalid, strings.Join(unknown, ", "))
	}
	return out, nil
}

func describeQuery(q Query, pos int) string {
	if q.Name != "" {
		return fmt.Sprintf("%q", q.Name)
	}
	return fmt.Sprintf("#%d", pos)
}
