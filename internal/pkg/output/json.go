// Package output renders query results for the CLI as JSON or tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/endorses/routefilter/internal/pkg/filtering"
	"golang.org/x/term"
)

// Formats
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// ParseFormat validates an output format name. Empty means json.
func ParseFormat(s string) (string, error) {
	switch s {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatTable:
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected json or table)", s)
	}
}

// IsTTY returns true if stdout is connected to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// MarshalJSONPretty marshals v with explicit formatting control.
func MarshalJSONPretty(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// ResultDocument is the JSON form of a query result
type ResultDocument struct {
	Kind    string           `json:"kind"`
	Count   int              `json:"count"`
	Total   int              `json:"total"`
	Filters []string         `json:"filters"`
	Records []map[string]any `json:"records"`
}

// NewResultDocument builds the JSON document for matched records. References
// are reported as ids.
func NewResultDocument(kind string, records []filtering.Record, total int, filters []string) ResultDocument {
	doc := ResultDocument{
		Kind:    kind,
		Count:   len(records),
		Total:   total,
		Filters: filters,
		Records: make([]map[string]any, 0, len(records)),
	}
	if doc.Filters == nil {
		doc.Filters = []string{}
	}

	cols := ColumnsFor(kind)
	for _, r := range records {
		obj := map[string]any{"id": r.Key()}
		for _, c := range cols {
			values := r.Values(c.Field)
			switch {
			case c.Multi:
				if values == nil {
					values = []string{}
				}
				obj[c.Field] = values
			case len(values) == 0:
				obj[c.Field] = nil
			default:
				obj[c.Field] = values[0]
			}
		}
		doc.Records = append(doc.Records, obj)
	}
	return doc
}

// WriteJSON writes v followed by a newline
func WriteJSON(w io.Writer, v any, pretty bool) error {
	data, err := MarshalJSONPretty(v, pretty)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteResult renders matched records in format. JSON is pretty-printed when
// stdout is a terminal.
func WriteResult(w io.Writer, format, kind string, records []filtering.Record, total int, filters []string, res filtering.Resolver) error {
	if format == FormatTable {
		return WriteRecords(w, kind, records, res)
	}
	return WriteJSON(w, NewResultDocument(kind, records, total, filters), IsTTY())
}

// FilterDocument is the JSON form of one filter definition
type FilterDocument struct {
	Name     string   `json:"name"`
	Mode     string   `json:"mode"`
	Paths    []string `json:"paths"`
	Operator string   `json:"operator,omitempty"`
	Nullable bool     `json:"nullable,omitempty"`
	Summary  string   `json:"summary"`
}

// NewFilterDocuments describes the filters of a set in declaration order
func NewFilterDocuments(set *filtering.FilterSet) []FilterDocument {
	specs := set.Specs()
	out := make([]FilterDocument, 0, len(specs))
	for _, spec := range specs {
		paths := make([]string, len(spec.Paths))
		for i, p := range spec.Paths {
			paths[i] = p.String()
		}
		out = append(out, FilterDocument{
			Name:     spec.Name,
			Mode:     spec.Mode.String(),
			Paths:    paths,
			Operator: string(spec.Operator),
			Nullable: spec.Nullable,
			Summary:  spec.Describe(),
		})
	}
	return out
}
