package output

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/endorses/routefilter/internal/pkg/filtering"
	"github.com/endorses/routefilter/internal/pkg/inventory"
)

// Column is one rendered field of a record kind. Ref names the kind a
// reference field points at; such cells show the referenced name.
type Column struct {
	Header string
	Field  string
	Ref    string
	Multi  bool
}

var columns = map[string][]Column{
	inventory.KindStaticRoute: {
		{Header: "NAME", Field: "name"},
		{Header: "PREFIX", Field: "prefix"},
		{Header: "NEXT HOP", Field: "next_hop"},
		{Header: "METRIC", Field: "metric"},
		{Header: "VRF", Field: "vrf", Ref: inventory.KindVRF},
		{Header: "DEVICES", Field: "devices", Ref: inventory.KindDevice, Multi: true},
		{Header: "PERMANENT", Field: "permanent"},
		{Header: "DESCRIPTION", Field: "description"},
	},
	inventory.KindOSPFInstance: {
		{Header: "NAME", Field: "name"},
		{Header: "DEVICE", Field: "device", Ref: inventory.KindDevice},
		{Header: "VRF", Field: "vrf", Ref: inventory.KindVRF},
		{Header: "ROUTER ID", Field: "router_id"},
		{Header: "PROCESS", Field: "process_id"},
		{Header: "DESCRIPTION", Field: "description"},
	},
	inventory.KindOSPFArea: {
		{Header: "AREA", Field: "area_id"},
		{Header: "TYPE", Field: "area_type"},
		{Header: "DESCRIPTION", Field: "description"},
	},
	inventory.KindOSPFInterface: {
		{Header: "INTERFACE", Field: "interface", Ref: inventory.KindInterface},
		{Header: "INSTANCE", Field: "instance", Ref: inventory.KindOSPFInstance},
		{Header: "AREA", Field: "area", Ref: inventory.KindOSPFArea},
		{Header: "PASSIVE", Field: "passive"},
		{Header: "PRIORITY", Field: "priority"},
		{Header: "BFD", Field: "bfd"},
		{Header: "AUTH", Field: "authentication"},
	},
}

// ColumnsFor returns the columns rendered for a kind. Unknown kinds get a
// single name column.
func ColumnsFor(kind string) []Column {
	if cols, ok := columns[kind]; ok {
		return cols
	}
	return []Column{{Header: "NAME", Field: "name"}}
}

// Cells renders one record as table cells. Reference cells show the name of
// the referenced record, or its id when it cannot be resolved.
func Cells(r filtering.Record, cols []Column, res filtering.Resolver) []string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		values := r.Values(c.Field)
		if c.Ref != "" && res != nil {
			values = append([]string(nil), values...)
			for j, v := range values {
				values[j] = displayName(res, c.Ref, v)
			}
		}
		cells[i] = strings.Join(values, ", ")
	}
	return cells
}

func displayName(res filtering.Resolver, kind, key string) string {
	target, ok := res.Lookup(kind, key)
	if !ok {
		return key
	}
	if names := target.Values("name"); len(names) > 0 {
		return names[0]
	}
	return key
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// RenderTable renders headers and rows as a bordered table
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// WriteRecords renders records of kind as a table
func WriteRecords(w io.Writer, kind string, records []filtering.Record, res filtering.Resolver) error {
	cols := ColumnsFor(kind)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, Cells(r, cols, res))
	}

	_, err := io.WriteString(w, RenderTable(headers, rows)+"\n")
	return err
}

// WriteFilters renders the filters of a set as a table
func WriteFilters(w io.Writer, set *filtering.FilterSet) error {
	rows := make([][]string, 0, len(set.Names()))
	for _, spec := range set.Specs() {
		rows = append(rows, FilterRow(spec))
	}
	_, err := io.WriteString(w, RenderTable([]string{"FILTER", "MODE", "PATHS", "NOTES"}, rows)+"\n")
	return err
}

// FilterRow describes one filter as table cells
func FilterRow(spec filtering.Spec) []string {
	paths := make([]string, len(spec.Paths))
	for i, p := range spec.Paths {
		paths[i] = p.String()
	}

	var notes []string
	if spec.Operator != "" {
		notes = append(notes, string(spec.Operator))
	}
	if spec.Nullable {
		notes = append(notes, "accepts "+filtering.NullValue)
	}
	return []string{spec.Name, spec.Mode.String(), strings.Join(paths, ", "), strings.Join(notes, " ")}
}
