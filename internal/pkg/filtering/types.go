// Package filtering evaluates named filter predicates against collections of
// typed records. It is shared by the query service, the watch command and the
// filter listing command.
package filtering

import (
	"sort"
	"strings"
)

// NullValue is the literal that selects records whose field is empty on
// nullable filters (e.g. "vrf_id=null").
const NullValue = "null"

// Record represents any entity that can be filtered (routes, OSPF instances, areas, ...)
type Record interface {
	// Kind returns the record type identifier ("static-route", "ospf-area", ...).
	Kind() string

	// Key returns the record identity.
	Key() string

	// Values returns the canonical string forms of a field.
	// Returns nil if the field doesn't exist or is null.
	Values(field string) []string
}

// Resolver looks up records referenced by other records.
type Resolver interface {
	// Lookup returns the record of the given kind with the given key.
	Lookup(kind, key string) (Record, bool)

	// LookupByName returns all records of the given kind whose display name
	// equals name. Names are not required to be unique.
	LookupByName(kind, name string) []Record
}

// Request maps filter names to supplied values. Distinct names are ANDed,
// values under one name are ORed.
type Request map[string][]string

// Add appends values to the named filter.
func (r Request) Add(name string, values ...string) {
	r[name] = append(r[name], values...)
}

// Names returns the requested filter names in sorted order.
func (r Request) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEmpty returns true if no filter carries a non-blank value.
func (r Request) IsEmpty() bool {
	for _, values := range r {
		if len(nonBlank(values)) > 0 {
			return false
		}
	}
	return true
}

// nonBlank returns the trimmed, non-empty values
func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
