package filtering

import (
	"fmt"
	"strings"
)

// Mode is the comparison a filter performs.
type Mode int

const (
	// ModeExact matches if a field value equals any supplied value.
	ModeExact Mode = iota
	// ModeMembership matches if a reference-set field intersects the supplied targets.
	ModeMembership
	// ModeSubstring is a case-insensitive containment test over one or more fields.
	ModeSubstring
	// ModeThreshold compares a numeric field against supplied bounds.
	ModeThreshold
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeMembership:
		return "membership"
	case ModeSubstring:
		return "substring"
	case ModeThreshold:
		return "threshold"
	default:
		return "unknown"
	}
}

// defaultSelectivity returns how selective a mode usually is (0.0-1.0).
// More selective filters reject records faster and run first.
func (m Mode) defaultSelectivity() float64 {
	switch m {
	case ModeExact:
		return 0.9
	case ModeMembership:
		return 0.8
	case ModeThreshold:
		return 0.7
	case ModeSubstring:
		return 0.3
	default:
		return 0.5
	}
}

// FieldPath addresses a record field, either directly or through one
// reference hop.
type FieldPath struct {
	Ref   string // reference field on the record; empty for direct fields
	Kind  string // kind of the referenced record
	Field string
}

// Field returns a path to a direct field.
func Field(name string) FieldPath {
	return FieldPath{Field: name}
}

// Via returns a path that follows the reference field ref to a record of
// the given kind and reads field there.
func Via(ref, kind, field string) FieldPath {
	return FieldPath{Ref: ref, Kind: kind, Field: field}
}

// String returns the dotted form ("instance.name")
func (p FieldPath) String() string {
	if p.Ref == "" {
		return p.Field
	}
	return p.Ref + "." + p.Field
}

// Resolve returns the values at the path. Dangling and null references
// contribute no values.
func (p FieldPath) Resolve(r Record, res Resolver) []string {
	if p.Ref == "" {
		return r.Values(p.Field)
	}
	if res == nil {
		return nil
	}

	var out []string
	for _, key := range r.Values(p.Ref) {
		target, ok := res.Lookup(p.Kind, key)
		if !ok {
			continue
		}
		out = append(out, target.Values(p.Field)...)
	}
	return out
}

// Spec is the static definition of one named filter.
type Spec struct {
	Name  string
	Paths []FieldPath
	Mode  Mode

	// Coerce normalizes supplied values for exact and membership filters.
	Coerce Coercion

	// Operator fixes the comparison of a threshold filter. When empty,
	// supplied values carry their own operator (">=100"); a bare number
	// means equality.
	Operator Operator

	// Nullable filters accept NullValue, matching records with no value.
	Nullable bool

	// Selectivity overrides the mode default when non-zero.
	Selectivity float64
}

func (s Spec) selectivity() float64 {
	if s.Selectivity > 0 {
		return s.Selectivity
	}
	return s.Mode.defaultSelectivity()
}

// Describe returns a one-line summary of the spec
func (s Spec) Describe() string {
	paths := make([]string, len(s.Paths))
	for i, p := range s.Paths {
		paths[i] = p.String()
	}
	desc := fmt.Sprintf("%s %s(%s)", s.Name, s.Mode, strings.Join(paths, ","))
	if s.Operator != "" {
		desc += " " + string(s.Operator)
	}
	if s.Nullable {
		desc += " nullable"
	}
	return desc
}

func (s Spec) validate() error {
	if s.Name == "" {
		return &SpecError{Message: "filter name is required"}
	}
	if len(s.Paths) == 0 {
		return &SpecError{Filter: s.Name, Message: "at least one field path is required"}
	}
	for _, p := range s.Paths {
		if p.Field == "" {
			return &SpecError{Filter: s.Name, Message: "field path has no field"}
		}
		if p.Ref != "" && p.Kind == "" {
			return &SpecError{Filter: s.Name, Message: fmt.Sprintf("reference %q has no target kind", p.Ref)}
		}
	}

	switch s.Mode {
	case ModeExact, ModeMembership:
		if s.Coerce == nil {
			return &SpecError{Filter: s.Name, Message: "coercion rule is required"}
		}
	case ModeThreshold:
		if s.Operator != "" && !s.Operator.IsValid() {
			return &SpecError{Filter: s.Name, Message: fmt.Sprintf("invalid operator %q", s.Operator)}
		}
	case ModeSubstring:
	default:
		return &SpecError{Filter: s.Name, Message: fmt.Sprintf("unknown mode %d", s.Mode)}
	}
	return nil
}

// FilterSet is the immutable collection of filters defined for one record kind.
type FilterSet struct {
	kind  string
	specs map[string]Spec
	names []string // declaration order
}

// NewFilterSet validates specs and builds a filter set.
func NewFilterSet(kind string, specs ...Spec) (*FilterSet, error) {
	fs := &FilterSet{
		kind:  kind,
		specs: make(map[string]Spec, len(specs)),
		names: make([]string, 0, len(specs)),
	}

	for _, spec := range specs {
		if err := spec.validate(); err != nil {
			return nil, err
		}
		if _, exists := fs.specs[spec.Name]; exists {
			return nil, &SpecError{Filter: spec.Name, Message: "duplicate filter name"}
		}
		fs.specs[spec.Name] = spec
		fs.names = append(fs.names, spec.Name)
	}

	return fs, nil
}

// MustFilterSet is like NewFilterSet but panics on invalid specs.
// Filter sets are defined once at process start.
func MustFilterSet(kind string, specs ...Spec) *FilterSet {
	fs, err := NewFilterSet(kind, specs...)
	if err != nil {
		panic(fmt.Sprintf("filtering: %s: %v", kind, err))
	}
	return fs
}

// Kind returns the record kind this set filters
func (fs *FilterSet) Kind() string {
	return fs.kind
}

// Lookup returns the spec bound to name
func (fs *FilterSet) Lookup(name string) (Spec, bool) {
	spec, ok := fs.specs[name]
	return spec, ok
}

// Names returns filter names in declaration order
func (fs *FilterSet) Names() []string {
	names := make([]string, len(fs.names))
	copy(names, fs.names)
	return names
}

// Specs returns the specs in declaration order
func (fs *FilterSet) Specs() []Spec {
	specs := make([]Spec, len(fs.names))
	for i, name := range fs.names {
		specs[i] = fs.specs[name]
	}
	return specs
}
