// Package cypher inspects Cypher query text for the loader's safety checks.
//
// The source store must never be mutated, so every query is classified
// before execution. Classification scans clause keywords structurally:
// string literals and comments are stripped first, so a property value like
// 'SET' cannot cause a false rejection, and a write clause can never hide
// behind creative whitespace or casing.
package cypher

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Clause keywords that mutate the graph. DETACH and DROP are included on
// their own so "DETACH DELETE" and index DDL are caught even if split
// oddly across lines.
var writeClauses = map[string]struct{}{
	"CREATE":  {},
	"MERGE":   {},
	"SET":     {},
	"DELETE":  {},
	"REMOVE":  {},
	"DETACH":  {},
	"DROP":    {},
	"FOREACH": {},
}

var (
	// ErrWriteClause indicates the query contains a mutating clause.
	ErrWriteClause = errors.New("query contains write clause")

	// ErrNoReadClause indicates the query has neither MATCH nor RETURN.
	ErrNoReadClause = errors.New("query must contain a MATCH or RETURN clause")

	// ErrMissingPagination indicates the query does not reference the
	// $skip and $limit parameters required for paging.
	ErrMissingPagination = errors.New("query must reference $skip and $limit parameters")
)

// ClassifyReadOnly returns nil if the query is safe to run against the
// source graph, or an error wrapping ErrWriteClause / ErrNoReadClause
// explaining the rejection.
func ClassifyReadOnly(query string) error {
	stripped := stripLiterals(query)

	sawRead := false
	for _, tok := range keywords(stripped) {
		if _, ok := writeClauses[tok]; ok {
			return fmt.Errorf("%w: %s", ErrWriteClause, tok)
		}
		if tok == "MATCH" || tok == "RETURN" {
			sawRead = true
		}
	}
	if !sawRead {
		return ErrNoReadClause
	}
	return nil
}

// ValidatePagination checks that the query references both pagination
// parameters outside of literals and comments.
func ValidatePagination(query string) error {
	stripped := strings.ToLower(stripLiterals(query))
	if !strings.Contains(stripped, "$skip") || !strings.Contains(stripped, "$limit") {
		return ErrMissingPagination
	}
	return nil
}

// keywords returns the uppercased identifier tokens of already-stripped
// query text.
func keywords(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, strings.ToUpper(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return toks
}

// stripLiterals blanks out string literals (single, double and backtick
// quoted) and comments (// line and /* block */), preserving everything
// else. Escaped quotes inside single and double quoted strings are honored.
func stripLiterals(s string) string {
	const (
		code = iota
		lineComment
		blockComment
		singleQuote
		doubleQuote
		backtick
	)

	var out strings.Builder
	state := code
	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case code:
			switch {
			case r == '/' && next == '/':
				state = lineComment
				i++
			case r == '/' && next == '*':
				state = blockComment
				i++
			case r == '\'':
				state = singleQuote
				out.WriteRune(' ')
			case r == '"':
				state = doubleQuote
				out.WriteRune(' ')
			case r == '`':
				state = backtick
				out.WriteRune(' ')
			default:
				out.WriteRune(r)
			}
		case lineComment:
			if r == '\n' {
				state = code
				out.WriteRune('\n')
			}
		case blockComment:
			if r == '*' && next == '/' {
				state = code
				i++
			}
		case singleQuote:
			if r == '\\' {
				i++ // skip escaped character
			} else if r == '\'' {
				state = code
			}
		case doubleQuote:
			if r == '\\' {
				i++
			} else if r == '"' {
				state = code
			}
		case backtick:
			if r == '`' {
				state = code
			}
		}
	}
	return out.String()
}
