// Package inventory holds the routing records that queries run against:
// devices, VRFs, interfaces, static routes and OSPF objects. Records are
// loaded from a YAML file into an immutable Snapshot, which also serves as
// the filtering.Resolver for reference lookups.
package inventory

import (
	"net/netip"
	"strconv"

	"github.com/google/uuid"
)

// Record kinds
const (
	KindDevice        = "device"
	KindVRF           = "vrf"
	KindInterface     = "interface"
	KindStaticRoute   = "static-route"
	KindOSPFInstance  = "ospf-instance"
	KindOSPFArea      = "ospf-area"
	KindOSPFInterface = "ospf-interface"
)

// Kinds lists every record kind in load order. Referenced kinds come first.
func Kinds() []string {
	return []string{
		KindDevice,
		KindVRF,
		KindInterface,
		KindStaticRoute,
		KindOSPFInstance,
		KindOSPFArea,
		KindOSPFInterface,
	}
}

// DefaultMetric is the metric of a static route that does not set one.
const DefaultMetric = 1

// OSPF area types
const (
	AreaTypeStandard = "standard"
	AreaTypeStub     = "stub"
	AreaTypeNSSA     = "nssa"
)

// AreaTypes lists the valid OSPF area types.
func AreaTypes() []string {
	return []string{AreaTypeStandard, AreaTypeStub, AreaTypeNSSA}
}

// Reference is one outgoing link from a record to another record.
type Reference struct {
	Field string
	Kind  string
	Key   uuid.UUID
}

type Device struct {
	ID   uuid.UUID
	Name string
}

func (d *Device) Kind() string { return KindDevice }
func (d *Device) Key() string  { return d.ID.String() }

func (d *Device) Values(field string) []string {
	switch field {
	case "id":
		return []string{d.Key()}
	case "name":
		return text(d.Name)
	}
	return nil
}

func (d *Device) References() []Reference { return nil }

type VRF struct {
	ID   uuid.UUID
	Name string
	RD   string
}

func (v *VRF) Kind() string { return KindVRF }
func (v *VRF) Key() string  { return v.ID.String() }

func (v *VRF) Values(field string) []string {
	switch field {
	case "id":
		return []string{v.Key()}
	case "name":
		return text(v.Name)
	case "rd":
		return text(v.RD)
	}
	return nil
}

func (v *VRF) References() []Reference { return nil }

type Interface struct {
	ID     uuid.UUID
	Name   string
	Device uuid.UUID
	Type   string
}

func (i *Interface) Kind() string { return KindInterface }
func (i *Interface) Key() string  { return i.ID.String() }

func (i *Interface) Values(field string) []string {
	switch field {
	case "id":
		return []string{i.Key()}
	case "name":
		return text(i.Name)
	case "device":
		return ref(i.Device)
	case "type":
		return text(i.Type)
	}
	return nil
}

func (i *Interface) References() []Reference {
	return refs(Reference{Field: "device", Kind: KindDevice, Key: i.Device})
}

// StaticRoute is a static route installed on one or more devices.
type StaticRoute struct {
	ID          uuid.UUID
	Name        string
	Devices     []uuid.UUID
	VRF         uuid.UUID // uuid.Nil for the global table
	Prefix      netip.Prefix
	NextHop     netip.Addr
	Metric      int
	Permanent   bool
	Description string
}

func (r *StaticRoute) Kind() string { return KindStaticRoute }
func (r *StaticRoute) Key() string  { return r.ID.String() }

func (r *StaticRoute) Values(field string) []string {
	switch field {
	case "id":
		return []string{r.Key()}
	case "name":
		return text(r.Name)
	case "devices":
		out := make([]string, 0, len(r.Devices))
		for _, d := range r.Devices {
			out = append(out, ref(d)...)
		}
		return out
	case "vrf":
		return ref(r.VRF)
	case "prefix":
		if !r.Prefix.IsValid() {
			return nil
		}
		return []string{r.Prefix.Masked().String()}
	case "next_hop":
		return addr(r.NextHop)
	case "metric":
		return []string{strconv.Itoa(r.Metric)}
	case "permanent":
		return []string{strconv.FormatBool(r.Permanent)}
	case "description":
		return text(r.Description)
	}
	return nil
}

func (r *StaticRoute) References() []Reference {
	out := make([]Reference, 0, len(r.Devices)+1)
	for _, d := range r.Devices {
		out = append(out, Reference{Field: "devices", Kind: KindDevice, Key: d})
	}
	out = append(out, Reference{Field: "vrf", Kind: KindVRF, Key: r.VRF})
	return refs(out...)
}

// OSPFInstance is an OSPF process running on a device.
type OSPFInstance struct {
	ID          uuid.UUID
	Name        string
	Device      uuid.UUID
	VRF         uuid.UUID // uuid.Nil for the global table
	RouterID    netip.Addr
	ProcessID   int
	Description string
}

func (o *OSPFInstance) Kind() string { return KindOSPFInstance }
func (o *OSPFInstance) Key() string  { return o.ID.String() }

func (o *OSPFInstance) Values(field string) []string {
	switch field {
	case "id":
		return []string{o.Key()}
	case "name":
		return text(o.Name)
	case "device":
		return ref(o.Device)
	case "vrf":
		return ref(o.VRF)
	case "router_id":
		return addr(o.RouterID)
	case "process_id":
		return []string{strconv.Itoa(o.ProcessID)}
	case "description":
		return text(o.Description)
	}
	return nil
}

func (o *OSPFInstance) References() []Reference {
	return refs(
		Reference{Field: "device", Kind: KindDevice, Key: o.Device},
		Reference{Field: "vrf", Kind: KindVRF, Key: o.VRF},
	)
}

// OSPFArea is identified by its dotted-quad area id, which is also its name.
type OSPFArea struct {
	ID          uuid.UUID
	AreaID      netip.Addr
	AreaType    string
	Description string
}

func (a *OSPFArea) Kind() string { return KindOSPFArea }
func (a *OSPFArea) Key() string  { return a.ID.String() }

func (a *OSPFArea) Values(field string) []string {
	switch field {
	case "id":
		return []string{a.Key()}
	case "name", "area_id":
		return addr(a.AreaID)
	case "area_type":
		return text(a.AreaType)
	case "description":
		return text(a.Description)
	}
	return nil
}

func (a *OSPFArea) References() []Reference { return nil }

// OSPFInterface binds an interface to an OSPF instance and area.
type OSPFInterface struct {
	ID             uuid.UUID
	Interface      uuid.UUID
	Instance       uuid.UUID
	Area           uuid.UUID
	Passive        bool
	Priority       int
	BFD            bool
	Authentication string
}

func (o *OSPFInterface) Kind() string { return KindOSPFInterface }
func (o *OSPFInterface) Key() string  { return o.ID.String() }

func (o *OSPFInterface) Values(field string) []string {
	switch field {
	case "id":
		return []string{o.Key()}
	case "interface":
		return ref(o.Interface)
	case "instance":
		return ref(o.Instance)
	case "area":
		return ref(o.Area)
	case "passive":
		return []string{strconv.FormatBool(o.Passive)}
	case "priority":
		return []string{strconv.Itoa(o.Priority)}
	case "bfd":
		return []string{strconv.FormatBool(o.BFD)}
	case "authentication":
		return text(o.Authentication)
	}
	return nil
}

func (o *OSPFInterface) References() []Reference {
	return refs(
		Reference{Field: "interface", Kind: KindInterface, Key: o.Interface},
		Reference{Field: "instance", Kind: KindOSPFInstance, Key: o.Instance},
		Reference{Field: "area", Kind: KindOSPFArea, Key: o.Area},
	)
}

func text(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func ref(id uuid.UUID) []string {
	if id == uuid.Nil {
		return nil
	}
	return []string{id.String()}
}

func addr(a netip.Addr) []string {
	if !a.IsValid() {
		return nil
	}
	return []string{a.String()}
}

// refs drops null references
func refs(in ...Reference) []Reference {
	out := in[:0]
	for _, r := range in {
		if r.Key != uuid.Nil {
			out = append(out, r)
		}
	}
	return out
}
