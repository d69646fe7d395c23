package filtering

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// predicate is one compiled filter of a request
type predicate struct {
	description string
	selectivity float64
	match       func(r Record, res Resolver) bool
}

// Matcher is a compiled request: the conjunction of its filters, ordered by
// selectivity. It is immutable and safe for concurrent use.
type Matcher struct {
	res        Resolver
	predicates []predicate
}

// add inserts a predicate keeping the most selective first.
// Requests name few filters, so insertion sort is enough.
func (m *Matcher) add(p predicate) {
	m.predicates = append(m.predicates, p)
	for j := len(m.predicates) - 1; j > 0; j-- {
		if m.predicates[j].selectivity <= m.predicates[j-1].selectivity {
			break
		}
		m.predicates[j], m.predicates[j-1] = m.predicates[j-1], m.predicates[j]
	}
}

// Match returns true if the record satisfies every compiled filter
func (m *Matcher) Match(r Record) bool {
	for _, p := range m.predicates {
		if !p.match(r, m.res) {
			return false
		}
	}
	return true
}

// IsEmpty returns true if the matcher accepts every record
func (m *Matcher) IsEmpty() bool {
	return len(m.predicates) == 0
}

// Filters returns human-readable descriptions in evaluation order
func (m *Matcher) Filters() []string {
	out := make([]string, len(m.predicates))
	for i, p := range m.predicates {
		out[i] = p.description
	}
	return out
}

// Compile resolves every requested filter against set and coerces the
// supplied values. All unknown filters and invalid values of the request are
// reported together; no matcher is returned in that case.
func Compile(req Request, set *FilterSet, res Resolver) (*Matcher, error) {
	if set == nil {
		return nil, errors.New("filtering: nil filter set")
	}

	m := &Matcher{res: res}
	var errs []error

	for _, name := range req.Names() {
		spec, ok := set.Lookup(name)
		if !ok {
			errs = append(errs, &UnknownFilterError{Kind: set.Kind(), Filter: name})
			continue
		}

		values := nonBlank(req[name])
		if len(values) == 0 {
			continue
		}

		p, specErrs := compileSpec(spec, values, res)
		if len(specErrs) > 0 {
			errs = append(errs, specErrs...)
			continue
		}
		m.add(p)
	}

	switch len(errs) {
	case 0:
		return m, nil
	case 1:
		return nil, errs[0]
	default:
		return nil, errors.Join(errs...)
	}
}

// Apply returns the records matching req, preserving input order.
// An empty request returns every record.
func Apply[R Record](records []R, req Request, set *FilterSet, res Resolver) ([]R, error) {
	m, err := Compile(req, set, res)
	if err != nil {
		return nil, err
	}
	return Select(records, m), nil
}

// Select returns the records accepted by m, preserving input order.
func Select[R Record](records []R, m *Matcher) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if m.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func compileSpec(spec Spec, values []string, res Resolver) (predicate, []error) {
	p := predicate{
		selectivity: spec.selectivity(),
	}

	var errs []error
	terms := values
	switch spec.Mode {
	case ModeExact, ModeMembership:
		p.match, errs = compileKeyed(spec, values, res)
	case ModeSubstring:
		p.match, terms = compileSubstring(spec, values)
	case ModeThreshold:
		p.match, errs = compileThreshold(spec, values)
	default:
		errs = []error{&SpecError{Filter: spec.Name, Message: "unknown mode"}}
	}

	p.description = fmt.Sprintf("%s %s [%s]", spec.Name, spec.Mode, strings.Join(terms, ", "))
	return p, errs
}

// compileKeyed builds exact and membership predicates: a record matches if
// any value at any path is among the coerced keys.
func compileKeyed(spec Spec, values []string, res Resolver) (func(Record, Resolver) bool, []error) {
	keys := make(map[string]struct{}, len(values))
	matchNull := false
	var errs []error

	for _, v := range values {
		if spec.Nullable && strings.EqualFold(v, NullValue) {
			matchNull = true
			continue
		}
		coerced, err := spec.Coerce(v, res)
		if err != nil {
			errs = append(errs, &CoercionError{Filter: spec.Name, Value: v, Message: err.Error()})
			continue
		}
		for _, k := range coerced {
			keys[k] = struct{}{}
		}
	}

	return func(r Record, res Resolver) bool {
		empty := true
		for _, path := range spec.Paths {
			fieldValues := path.Resolve(r, res)
			if len(fieldValues) > 0 {
				empty = false
			}
			for _, fv := range fieldValues {
				if _, ok := keys[fv]; ok {
					return true
				}
			}
		}
		return matchNull && empty
	}, errs
}

// compileSubstring returns the predicate and the compiled patterns, which
// stand in for the raw values in the predicate description.
func compileSubstring(spec Spec, values []string) (func(Record, Resolver) bool, []string) {
	patterns := make([]Pattern, len(values))
	terms := make([]string, len(values))
	for i, v := range values {
		patterns[i] = ParsePattern(v)
		terms[i] = patterns[i].String()
	}

	return func(r Record, res Resolver) bool {
		for _, path := range spec.Paths {
			for _, fv := range path.Resolve(r, res) {
				for _, p := range patterns {
					if p.Match(fv) {
						return true
					}
				}
			}
		}
		return false
	}, terms
}

func compileThreshold(spec Spec, values []string) (func(Record, Resolver) bool, []error) {
	bounds := make([]threshold, 0, len(values))
	var errs []error

	for _, v := range values {
		t, err := parseThreshold(v, spec.Operator)
		if err != nil {
			errs = append(errs, &CoercionError{Filter: spec.Name, Value: v, Message: err.Error()})
			continue
		}
		bounds = append(bounds, t)
	}

	return func(r Record, res Resolver) bool {
		for _, path := range spec.Paths {
			for _, fv := range path.Resolve(r, res) {
				n, err := strconv.ParseFloat(fv, 64)
				if err != nil {
					continue
				}
				for _, t := range bounds {
					if t.matches(n) {
						return true
					}
				}
			}
		}
		return false
	}, errs
}
