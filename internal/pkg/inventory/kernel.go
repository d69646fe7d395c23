package inventory

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/google/uuid"
)

// ErrKernelUnsupported is returned when the host routing table cannot be read
// on this platform.
var ErrKernelUnsupported = errors.New("kernel route import is only supported on linux")

// KernelRoute is a gateway route read from the host's main routing table.
type KernelRoute struct {
	Prefix    netip.Prefix
	Gateway   netip.Addr
	Priority  int
	Interface string
}

// KernelOptions selects where kernel routes are read from
type KernelOptions struct {
	// Namespace is a named network namespace; empty means the current one.
	Namespace string
}

// ImportKernelRoutes returns a snapshot extending s with one static route per
// kernel route, attached to the device named deviceName. Routes already
// present on that device (same prefix and next hop in the global table) are
// skipped.
func ImportKernelRoutes(s *Snapshot, deviceName string, routes []KernelRoute) (*Snapshot, []*StaticRoute, error) {
	devices := s.LookupByName(KindDevice, deviceName)
	switch len(devices) {
	case 0:
		return nil, nil, fmt.Errorf("unknown device %q", deviceName)
	case 1:
	default:
		return nil, nil, fmt.Errorf("ambiguous device name %q matches %d devices", deviceName, len(devices))
	}
	device := devices[0].(*Device)

	existing := make(map[string]struct{})
	for _, r := range All[*StaticRoute](s, KindStaticRoute) {
		if r.VRF != uuid.Nil || !containsID(r.Devices, device.ID) {
			continue
		}
		existing[routeKey(r.Prefix, r.NextHop)] = struct{}{}
	}

	b := NewBuilder()
	for _, kind := range Kinds() {
		for _, e := range s.Entities(kind) {
			if err := b.Add(e); err != nil {
				return nil, nil, err
			}
		}
	}

	var added []*StaticRoute
	for _, kr := range routes {
		key := routeKey(kr.Prefix.Masked(), kr.Gateway)
		if _, ok := existing[key]; ok {
			continue
		}
		existing[key] = struct{}{}

		metric := kr.Priority
		if metric <= 0 {
			metric = DefaultMetric
		}

		route := &StaticRoute{
			ID:          uuid.New(),
			Name:        fmt.Sprintf("%s via %s", kr.Prefix.Masked(), kr.Gateway),
			Devices:     []uuid.UUID{device.ID},
			Prefix:      kr.Prefix.Masked(),
			NextHop:     kr.Gateway,
			Metric:      metric,
			Description: kernelDescription(kr),
		}
		if err := b.Add(route); err != nil {
			return nil, nil, err
		}
		added = append(added, route)
	}

	return b.Build(), added, nil
}

func kernelDescription(kr KernelRoute) string {
	if kr.Interface == "" {
		return "imported from kernel"
	}
	return "imported from kernel (dev " + kr.Interface + ")"
}

func routeKey(prefix netip.Prefix, nextHop netip.Addr) string {
	return prefix.String() + "|" + nextHop.String()
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
