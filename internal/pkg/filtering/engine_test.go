package filtering

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dev1    = "11111111-1111-1111-1111-111111111111"
	dev2    = "22222222-2222-2222-2222-222222222222"
	devGone = "33333333-3333-3333-3333-333333333333"
	vrf1    = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

func routeFilters() *FilterSet {
	return MustFilterSet("route",
		Spec{Name: "q", Mode: ModeSubstring, Paths: []FieldPath{Field("name"), Field("prefix")}},
		Spec{Name: "name", Mode: ModeExact, Paths: []FieldPath{Field("name")}, Coerce: Text},
		Spec{Name: "device", Mode: ModeMembership, Paths: []FieldPath{Field("device")}, Coerce: ByName("device")},
		Spec{Name: "device_id", Mode: ModeMembership, Paths: []FieldPath{Field("device")}, Coerce: ByIdentifier("device")},
		Spec{Name: "device_site", Mode: ModeExact, Paths: []FieldPath{Via("device", "device", "site")}, Coerce: Text},
		Spec{Name: "vrf_id", Mode: ModeExact, Paths: []FieldPath{Field("vrf")}, Coerce: ByIdentifier("vrf"), Nullable: true},
		Spec{Name: "prefix", Mode: ModeExact, Paths: []FieldPath{Field("prefix")}, Coerce: Prefix},
		Spec{Name: "next_hop", Mode: ModeExact, Paths: []FieldPath{Field("next_hop")}, Coerce: Address},
		Spec{Name: "metric", Mode: ModeExact, Paths: []FieldPath{Field("metric")}, Coerce: Integer},
		Spec{Name: "metric__gte", Mode: ModeThreshold, Paths: []FieldPath{Field("metric")}, Operator: OpGTE},
		Spec{Name: "metric__cmp", Mode: ModeThreshold, Paths: []FieldPath{Field("metric")}},
	)
}

type routeFixture struct {
	res    testResolver
	routes []*testRecord
}

func newRouteFixture() routeFixture {
	devices := []*testRecord{
		rec("device", dev1, "name", "Device 1", "site", "ams"),
		rec("device", dev2, "name", "Device 2", "site", "fra"),
	}
	vrfs := []*testRecord{
		rec("vrf", vrf1, "name", "VRF 1"),
	}
	routes := []*testRecord{
		rec("route", "r1", "name", "Route 1", "device", dev1, "vrf", vrf1, "prefix", "0.0.0.0/0", "next_hop", "10.10.10.1", "metric", "1"),
		rec("route", "r2", "name", "Route 2", "device", dev1, "prefix", "1.1.1.0/24", "next_hop", "10.10.10.2", "metric", "1"),
		rec("route", "r3", "name", "Route 3", "device", dev2, "vrf", vrf1, "prefix", "2.2.2.0/24", "next_hop", "10.10.10.3", "metric", "10"),
		rec("route", "r4", "name", "Orphan", "device", devGone, "prefix", "3.3.3.0/24", "next_hop", "10.10.10.4", "metric", "20"),
	}

	all := append(append([]*testRecord{}, devices...), vrfs...)
	all = append(all, routes...)
	return routeFixture{res: newResolver(all...), routes: routes}
}

func (f routeFixture) apply(t *testing.T, req Request) []string {
	t.Helper()
	out, err := Apply(f.routes, req, routeFilters(), f.res)
	require.NoError(t, err)
	return keysOf(out)
}

func TestApply_EmptyRequestReturnsAll(t *testing.T) {
	f := newRouteFixture()

	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, f.apply(t, Request{}))
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, f.apply(t, nil))
}

func TestApply_Exact(t *testing.T) {
	f := newRouteFixture()

	tests := []struct {
		name     string
		req      Request
		expected []string
	}{
		{"single name", Request{"name": {"Route 1"}}, []string{"r1"}},
		{"names are ORed", Request{"name": {"Route 1", "Route 3"}}, []string{"r1", "r3"}},
		{"name is case sensitive", Request{"name": {"route 1"}}, []string{}},
		{"prefix host bits masked", Request{"prefix": {"1.1.1.5/24"}}, []string{"r2"}},
		{"next hop", Request{"next_hop": {"10.10.10.3"}}, []string{"r3"}},
		{"metric default", Request{"metric": {"1"}}, []string{"r1", "r2"}},
		{"metric no match", Request{"metric": {"99"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.apply(t, tt.req))
		})
	}
}

func TestApply_Conjunction(t *testing.T) {
	f := newRouteFixture()

	byDevice := f.apply(t, Request{"device": {"Device 1"}})
	byMetric := f.apply(t, Request{"metric": {"1"}})
	both := f.apply(t, Request{"device": {"Device 1"}, "vrf_id": {vrf1}})

	assert.Equal(t, []string{"r1", "r2"}, byDevice)
	assert.Equal(t, []string{"r1", "r2"}, byMetric)
	assert.Equal(t, []string{"r1"}, both)
	for _, k := range both {
		assert.Contains(t, byDevice, k)
	}
}

func TestApply_Membership(t *testing.T) {
	f := newRouteFixture()

	assert.Equal(t, []string{"r1", "r2", "r3"}, f.apply(t, Request{"device": {"Device 1", "Device 2"}}))
	assert.Equal(t, []string{"r3"}, f.apply(t, Request{"device_id": {dev2}}))

	// well-formed references that resolve to nothing match nothing
	assert.Empty(t, f.apply(t, Request{"device": {"Nope"}}))
	assert.Empty(t, f.apply(t, Request{"device_id": {devGone}}))
}

func TestApply_Traversal(t *testing.T) {
	f := newRouteFixture()

	assert.Equal(t, []string{"r1", "r2"}, f.apply(t, Request{"device_site": {"ams"}}))
	assert.Equal(t, []string{"r3"}, f.apply(t, Request{"device_site": {"fra"}}))
}

func TestApply_DanglingReferenceNeverMatches(t *testing.T) {
	f := newRouteFixture()

	// r4 points at a device the resolver does not know
	assert.NotContains(t, f.apply(t, Request{"device_site": {"ams", "fra"}}), "r4")
}

func TestApply_Nullable(t *testing.T) {
	f := newRouteFixture()

	assert.Equal(t, []string{"r2", "r4"}, f.apply(t, Request{"vrf_id": {"null"}}))
	assert.Equal(t, []string{"r2", "r4"}, f.apply(t, Request{"vrf_id": {"NULL"}}))
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, f.apply(t, Request{"vrf_id": {"null", vrf1}}))
}

func TestApply_Substring(t *testing.T) {
	f := newRouteFixture()

	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{"matches any field", "route", []string{"r1", "r2", "r3"}},
		{"case insensitive", "ROUTE 2", []string{"r2"}},
		{"matches prefix field", "2.2.2", []string{"r3"}},
		{"suffix wildcard", "*/24", []string{"r2", "r3", "r4"}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.apply(t, Request{"q": {tt.value}}))
		})
	}
}

func TestApply_Threshold(t *testing.T) {
	f := newRouteFixture()

	assert.Equal(t, []string{"r3", "r4"}, f.apply(t, Request{"metric__gte": {"10"}}))
	assert.Equal(t, []string{"r1", "r2"}, f.apply(t, Request{"metric__cmp": {"<5"}}))
	assert.Equal(t, []string{"r3"}, f.apply(t, Request{"metric__cmp": {"10"}}))
	assert.Equal(t, []string{"r1", "r2", "r4"}, f.apply(t, Request{"metric__cmp": {"<=1", ">15"}}))
}

func TestApply_BlankValuesSkipped(t *testing.T) {
	f := newRouteFixture()

	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, f.apply(t, Request{"name": {"", "  "}}))
	assert.Equal(t, []string{"r1"}, f.apply(t, Request{"name": {"", "Route 1"}}))
}

func TestApply_UnknownFilter(t *testing.T) {
	f := newRouteFixture()

	_, err := Apply(f.routes, Request{"colour": {"blue"}}, routeFilters(), f.res)
	require.Error(t, err)

	var unknown *UnknownFilterError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "colour", unknown.Filter)
	assert.Equal(t, "route", unknown.Kind)
}

func TestApply_UnknownFilterWithBlankValue(t *testing.T) {
	f := newRouteFixture()

	_, err := Apply(f.routes, Request{"colour": {""}}, routeFilters(), f.res)

	var unknown *UnknownFilterError
	assert.True(t, errors.As(err, &unknown))
}

func TestApply_CoercionError(t *testing.T) {
	f := newRouteFixture()

	tests := []struct {
		name   string
		req    Request
		filter string
	}{
		{"bad prefix", Request{"prefix": {"not-a-prefix"}}, "prefix"},
		{"bad address", Request{"next_hop": {"10.10.10"}}, "next_hop"},
		{"bad integer", Request{"metric": {"one"}}, "metric"},
		{"bad uuid", Request{"device_id": {"42"}}, "device_id"},
		{"bad threshold", Request{"metric__gte": {">=5"}}, "metric__gte"},
		{"bad comparison", Request{"metric__cmp": {"abc"}}, "metric__cmp"},
		{"NaN threshold", Request{"metric__gte": {"NaN"}}, "metric__gte"},
		{"infinite threshold", Request{"metric__gte": {"inf"}}, "metric__gte"},
		{"negative infinite comparison", Request{"metric__cmp": {">-Inf"}}, "metric__cmp"},
		{"hex float threshold", Request{"metric__gte": {"0x1p4"}}, "metric__gte"},
		{"null on non-nullable", Request{"device_id": {"null"}}, "device_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply(f.routes, tt.req, routeFilters(), f.res)
			require.Error(t, err)
			assert.Nil(t, out)

			var coercion *CoercionError
			require.True(t, errors.As(err, &coercion))
			assert.Equal(t, tt.filter, coercion.Filter)
		})
	}
}

func TestApply_ErrorsAreCollected(t *testing.T) {
	f := newRouteFixture()

	req := Request{
		"colour": {"blue"},
		"metric": {"one"},
		"prefix": {"bad"},
	}
	_, err := Apply(f.routes, req, routeFilters(), f.res)
	require.Error(t, err)

	var unknown *UnknownFilterError
	var coercion *CoercionError
	assert.True(t, errors.As(err, &unknown))
	assert.True(t, errors.As(err, &coercion))
	assert.Contains(t, err.Error(), "colour")
	assert.Contains(t, err.Error(), "metric")
	assert.Contains(t, err.Error(), "prefix")
}

func TestApply_Deterministic(t *testing.T) {
	f := newRouteFixture()
	req := Request{"q": {"route"}, "device": {"Device 1"}}

	first := f.apply(t, req)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, f.apply(t, req))
	}
}

func TestApply_NilResolver(t *testing.T) {
	f := newRouteFixture()

	// direct fields work without a resolver
	out, err := Apply(f.routes, Request{"name": {"Route 2"}}, routeFilters(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, keysOf(out))

	// reference lookups do not
	_, err = Apply(f.routes, Request{"device": {"Device 1"}}, routeFilters(), nil)
	var coercion *CoercionError
	assert.True(t, errors.As(err, &coercion))
}

func TestCompile_NilSet(t *testing.T) {
	_, err := Compile(Request{}, nil, nil)
	assert.Error(t, err)
}

func TestCompile_SelectivityOrder(t *testing.T) {
	f := newRouteFixture()

	m, err := Compile(Request{
		"q":           {"route"},
		"metric__gte": {"1"},
		"device":      {"Device 1"},
		"name":        {"Route 1"},
	}, routeFilters(), f.res)
	require.NoError(t, err)

	filters := m.Filters()
	require.Len(t, filters, 4)
	assert.True(t, strings.HasPrefix(filters[0], "name exact"))
	assert.True(t, strings.HasPrefix(filters[1], "device membership"))
	assert.True(t, strings.HasPrefix(filters[2], "metric__gte threshold"))
	assert.True(t, strings.HasPrefix(filters[3], "q substring"))
}

func TestCompile_SelectivityOverride(t *testing.T) {
	set := MustFilterSet("route",
		Spec{Name: "name", Mode: ModeExact, Paths: []FieldPath{Field("name")}, Coerce: Text, Selectivity: 0.1},
		Spec{Name: "q", Mode: ModeSubstring, Paths: []FieldPath{Field("name")}},
	)

	m, err := Compile(Request{"name": {"x"}, "q": {"y"}}, set, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(m.Filters()[0], "q "))
}

func TestCompile_EmptyMatcher(t *testing.T) {
	m, err := Compile(Request{"name": {" "}}, routeFilters(), nil)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
	assert.True(t, m.Match(rec("route", "x")))
}

func TestSelect_ReusesMatcher(t *testing.T) {
	f := newRouteFixture()

	m, err := Compile(Request{"metric": {"1"}}, routeFilters(), f.res)
	require.NoError(t, err)

	assert.Equal(t, []string{"r1", "r2"}, keysOf(Select(f.routes, m)))
	assert.Equal(t, []string{"r2"}, keysOf(Select(f.routes[1:], m)))
}

func TestRequest(t *testing.T) {
	req := Request{}
	req.Add("name", "Route 1", "Route 2")
	req.Add("device", "Device 1")

	assert.Equal(t, []string{"device", "name"}, req.Names())
	assert.False(t, req.IsEmpty())

	req.Add("metric", "5")
	assert.Equal(t, []string{"5"}, req["metric"])

	assert.True(t, Request{"name": {"", " "}}.IsEmpty())
	assert.True(t, Request{}.IsEmpty())
}
