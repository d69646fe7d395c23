package filtering

import (
	"sort"
)

type testRecord struct {
	kind   string
	key    string
	fields map[string][]string
}

func (r *testRecord) Kind() string { return r.kind }
func (r *testRecord) Key() string  { return r.key }
func (r *testRecord) Values(field string) []string {
	return r.fields[field]
}

func rec(kind, key string, kv ...string) *testRecord {
	r := &testRecord{kind: kind, key: key, fields: make(map[string][]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		r.fields[kv[i]] = append(r.fields[kv[i]], kv[i+1])
	}
	return r
}

type testResolver map[string]map[string]Record

func newResolver(records ...*testRecord) testResolver {
	res := make(testResolver)
	for _, r := range records {
		if res[r.kind] == nil {
			res[r.kind] = make(map[string]Record)
		}
		res[r.kind][r.key] = r
	}
	return res
}

func (res testResolver) Lookup(kind, key string) (Record, bool) {
	r, ok := res[kind][key]
	return r, ok
}

func (res testResolver) LookupByName(kind, name string) []Record {
	var out []Record
	for _, r := range res[kind] {
		for _, n := range r.Values("name") {
			if n == name {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func keysOf[R Record](records []R) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key()
	}
	return keys
}
