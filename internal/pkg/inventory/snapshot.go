package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/endorses/routefilter/internal/pkg/filtering"
)

// Entity is an inventory record. Every record kind implements it.
type Entity interface {
	filtering.Record
	References() []Reference
}

// DanglingReference is a reference to a record the snapshot does not hold.
type DanglingReference struct {
	From      string // kind/key of the referencing record
	Reference Reference
}

func (d DanglingReference) String() string {
	return fmt.Sprintf("%s %s -> %s/%s", d.From, d.Reference.Field, d.Reference.Kind, d.Reference.Key)
}

// Snapshot is an immutable view of the inventory. It implements
// filtering.Resolver.
type Snapshot struct {
	records  map[string][]Entity
	byKey    map[string]map[string]Entity
	byName   map[string]map[string][]Entity
	dangling []DanglingReference
	builtAt  time.Time
}

var _ filtering.Resolver = (*Snapshot)(nil)

// Empty returns a snapshot holding no records.
func Empty() *Snapshot {
	return NewBuilder().Build()
}

// Lookup returns the record of the given kind with the given key.
func (s *Snapshot) Lookup(kind, key string) (filtering.Record, bool) {
	e, ok := s.byKey[kind][key]
	if !ok {
		return nil, false
	}
	return e, true
}

// LookupByName returns all records of kind with the given display name.
func (s *Snapshot) LookupByName(kind, name string) []filtering.Record {
	entities := s.byName[kind][name]
	out := make([]filtering.Record, len(entities))
	for i, e := range entities {
		out[i] = e
	}
	return out
}

// Records returns the records of kind in insertion order.
func (s *Snapshot) Records(kind string) []filtering.Record {
	entities := s.records[kind]
	out := make([]filtering.Record, len(entities))
	for i, e := range entities {
		out[i] = e
	}
	return out
}

// Entities returns the records of kind in insertion order.
func (s *Snapshot) Entities(kind string) []Entity {
	out := make([]Entity, len(s.records[kind]))
	copy(out, s.records[kind])
	return out
}

// Count returns the number of records of kind.
func (s *Snapshot) Count(kind string) int {
	return len(s.records[kind])
}

// Counts returns record counts for every kind.
func (s *Snapshot) Counts() map[string]int {
	counts := make(map[string]int, len(Kinds()))
	for _, kind := range Kinds() {
		counts[kind] = len(s.records[kind])
	}
	return counts
}

// Dangling returns the references that point at missing records.
func (s *Snapshot) Dangling() []DanglingReference {
	out := make([]DanglingReference, len(s.dangling))
	copy(out, s.dangling)
	return out
}

// BuiltAt returns when the snapshot was assembled
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// All returns the records of kind as their concrete type.
func All[E Entity](s *Snapshot, kind string) []E {
	out := make([]E, 0, len(s.records[kind]))
	for _, e := range s.records[kind] {
		if typed, ok := e.(E); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Builder assembles a Snapshot. It is not safe for concurrent use.
type Builder struct {
	records map[string][]Entity
	byKey   map[string]map[string]Entity
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		records: make(map[string][]Entity),
		byKey:   make(map[string]map[string]Entity),
	}
}

// Add appends a record. Keys must be unique within a kind.
func (b *Builder) Add(e Entity) error {
	kind, key := e.Kind(), e.Key()
	if b.byKey[kind] == nil {
		b.byKey[kind] = make(map[string]Entity)
	}
	if _, exists := b.byKey[kind][key]; exists {
		return fmt.Errorf("duplicate %s id %s", kind, key)
	}
	b.byKey[kind][key] = e
	b.records[kind] = append(b.records[kind], e)
	return nil
}

// Lookup returns a record added so far
func (b *Builder) Lookup(kind, key string) (Entity, bool) {
	e, ok := b.byKey[kind][key]
	return e, ok
}

// Build indexes the records and returns the snapshot. The builder must not
// be used afterwards.
func (b *Builder) Build() *Snapshot {
	s := &Snapshot{
		records: b.records,
		byKey:   b.byKey,
		byName:  make(map[string]map[string][]Entity),
		builtAt: time.Now(),
	}

	kinds := make([]string, 0, len(b.records))
	for kind := range b.records {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		entities := b.records[kind]
		names := make(map[string][]Entity)
		for _, e := range entities {
			for _, name := range e.Values("name") {
				names[name] = append(names[name], e)
			}
			for _, r := range e.References() {
				if _, ok := b.byKey[r.Kind][r.Key.String()]; !ok {
					s.dangling = append(s.dangling, DanglingReference{
						From:      kind + "/" + e.Key(),
						Reference: r,
					})
				}
			}
		}
		s.byName[kind] = names
	}

	return s
}
