// Package routing defines the named filters available for each routing
// record kind.
package routing

import (
	"sort"

	"github.com/endorses/routefilter/internal/pkg/filtering"
	"github.com/endorses/routefilter/internal/pkg/inventory"
)

var (
	f   = filtering.Field
	via = filtering.Via
)

func paths(p ...filtering.FieldPath) []filtering.FieldPath { return p }

// StaticRoutes filters static routes
var StaticRoutes = filtering.MustFilterSet(inventory.KindStaticRoute,
	filtering.Spec{Name: "q", Mode: filtering.ModeSubstring,
		Paths: paths(f("name"), f("description"), f("prefix"), f("next_hop"))},
	filtering.Spec{Name: "name", Mode: filtering.ModeExact,
		Paths: paths(f("name")), Coerce: filtering.Text},
	filtering.Spec{Name: "device", Mode: filtering.ModeMembership,
		Paths: paths(f("devices")), Coerce: filtering.ByName(inventory.KindDevice)},
	filtering.Spec{Name: "device_id", Mode: filtering.ModeMembership,
		Paths: paths(f("devices")), Coerce: filtering.ByIdentifier(inventory.KindDevice)},
	filtering.Spec{Name: "vrf", Mode: filtering.ModeExact,
		Paths: paths(f("vrf")), Coerce: filtering.ByName(inventory.KindVRF), Nullable: true},
	filtering.Spec{Name: "vrf_id", Mode: filtering.ModeExact,
		Paths: paths(f("vrf")), Coerce: filtering.ByIdentifier(inventory.KindVRF), Nullable: true},
	filtering.Spec{Name: "prefix", Mode: filtering.ModeExact,
		Paths: paths(f("prefix")), Coerce: filtering.Prefix},
	filtering.Spec{Name: "next_hop", Mode: filtering.ModeExact,
		Paths: paths(f("next_hop")), Coerce: filtering.Address},
	filtering.Spec{Name: "metric", Mode: filtering.ModeExact,
		Paths: paths(f("metric")), Coerce: filtering.Integer},
	filtering.Spec{Name: "metric__gt", Mode: filtering.ModeThreshold,
		Paths: paths(f("metric")), Operator: filtering.OpGT},
	filtering.Spec{Name: "metric__gte", Mode: filtering.ModeThreshold,
		Paths: paths(f("metric")), Operator: filtering.OpGTE},
	filtering.Spec{Name: "metric__lt", Mode: filtering.ModeThreshold,
		Paths: paths(f("metric")), Operator: filtering.OpLT},
	filtering.Spec{Name: "metric__lte", Mode: filtering.ModeThreshold,
		Paths: paths(f("metric")), Operator: filtering.OpLTE},
	filtering.Spec{Name: "permanent", Mode: filtering.ModeExact,
		Paths: paths(f("permanent")), Coerce: filtering.Boolean},
)

// OSPFInstances filters OSPF instances
var OSPFInstances = filtering.MustFilterSet(inventory.KindOSPFInstance,
	filtering.Spec{Name: "q", Mode: filtering.ModeSubstring,
		Paths: paths(f("name"), f("router_id"), f("description"))},
	filtering.Spec{Name: "name", Mode: filtering.ModeExact,
		Paths: paths(f("name")), Coerce: filtering.Text},
	filtering.Spec{Name: "device", Mode: filtering.ModeMembership,
		Paths: paths(f("device")), Coerce: filtering.ByName(inventory.KindDevice)},
	filtering.Spec{Name: "device_id", Mode: filtering.ModeMembership,
		Paths: paths(f("device")), Coerce: filtering.ByIdentifier(inventory.KindDevice)},
	filtering.Spec{Name: "vrf", Mode: filtering.ModeExact,
		Paths: paths(f("vrf")), Coerce: filtering.ByName(inventory.KindVRF), Nullable: true},
	filtering.Spec{Name: "vrf_id", Mode: filtering.ModeExact,
		Paths: paths(f("vrf")), Coerce: filtering.ByIdentifier(inventory.KindVRF), Nullable: true},
	filtering.Spec{Name: "router_id", Mode: filtering.ModeExact,
		Paths: paths(f("router_id")), Coerce: filtering.DottedQuad},
	filtering.Spec{Name: "process_id", Mode: filtering.ModeExact,
		Paths: paths(f("process_id")), Coerce: filtering.Integer},
)

// OSPFAreas filters OSPF areas
var OSPFAreas = filtering.MustFilterSet(inventory.KindOSPFArea,
	filtering.Spec{Name: "q", Mode: filtering.ModeSubstring,
		Paths: paths(f("area_id"), f("description"))},
	filtering.Spec{Name: "area_id", Mode: filtering.ModeExact,
		Paths: paths(f("area_id")), Coerce: filtering.DottedQuad},
	filtering.Spec{Name: "area_type", Mode: filtering.ModeExact,
		Paths: paths(f("area_type")), Coerce: filtering.Choice(inventory.AreaTypes()...)},
)

// OSPFInterfaces filters OSPF interface bindings. Device filters reach the
// device through the bound interface.
var OSPFInterfaces = filtering.MustFilterSet(inventory.KindOSPFInterface,
	filtering.Spec{Name: "q", Mode: filtering.ModeSubstring,
		Paths: paths(
			via("interface", inventory.KindInterface, "name"),
			via("instance", inventory.KindOSPFInstance, "name"),
		)},
	filtering.Spec{Name: "interface", Mode: filtering.ModeExact,
		Paths: paths(f("interface")), Coerce: filtering.ByName(inventory.KindInterface)},
	filtering.Spec{Name: "interface_id", Mode: filtering.ModeExact,
		Paths: paths(f("interface")), Coerce: filtering.ByIdentifier(inventory.KindInterface)},
	filtering.Spec{Name: "instance", Mode: filtering.ModeExact,
		Paths: paths(via("instance", inventory.KindOSPFInstance, "name")), Coerce: filtering.Text},
	filtering.Spec{Name: "instance_id", Mode: filtering.ModeExact,
		Paths: paths(f("instance")), Coerce: filtering.ByIdentifier(inventory.KindOSPFInstance)},
	filtering.Spec{Name: "area", Mode: filtering.ModeExact,
		Paths: paths(via("area", inventory.KindOSPFArea, "area_id")), Coerce: filtering.DottedQuad},
	filtering.Spec{Name: "area_id", Mode: filtering.ModeExact,
		Paths: paths(f("area")), Coerce: filtering.ByIdentifier(inventory.KindOSPFArea)},
	filtering.Spec{Name: "device", Mode: filtering.ModeMembership,
		Paths: paths(via("interface", inventory.KindInterface, "device")), Coerce: filtering.ByName(inventory.KindDevice)},
	filtering.Spec{Name: "device_id", Mode: filtering.ModeMembership,
		Paths: paths(via("interface", inventory.KindInterface, "device")), Coerce: filtering.ByIdentifier(inventory.KindDevice)},
	filtering.Spec{Name: "passive", Mode: filtering.ModeExact,
		Paths: paths(f("passive")), Coerce: filtering.Boolean},
	filtering.Spec{Name: "bfd", Mode: filtering.ModeExact,
		Paths: paths(f("bfd")), Coerce: filtering.Boolean},
	filtering.Spec{Name: "priority", Mode: filtering.ModeExact,
		Paths: paths(f("priority")), Coerce: filtering.Integer},
)

var registry = map[string]*filtering.FilterSet{
	inventory.KindStaticRoute:   StaticRoutes,
	inventory.KindOSPFInstance:  OSPFInstances,
	inventory.KindOSPFArea:      OSPFAreas,
	inventory.KindOSPFInterface: OSPFInterfaces,
}

// ForKind returns the filter set for a record kind
func ForKind(kind string) (*filtering.FilterSet, bool) {
	set, ok := registry[kind]
	return set, ok
}

// Kinds returns the filterable record kinds, sorted
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
