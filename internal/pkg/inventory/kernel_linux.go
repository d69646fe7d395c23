//go:build linux

package inventory

import (
	"fmt"
	"net"
	"net/netip"
	"os"

	"github.com/endorses/routefilter/internal/pkg/logger"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// ReadKernelRoutes lists the gateway routes of the main routing table.
// Directly connected routes carry no next hop and are skipped.
func ReadKernelRoutes(opts KernelOptions) ([]KernelRoute, error) {
	h, err := openHandle(opts.Namespace)
	if err != nil {
		return nil, err
	}
	defer h.Delete()

	filter := &netlink.Route{Table: unix.RT_TABLE_MAIN}
	routes, err := h.RouteListFiltered(netlink.FAMILY_ALL, filter, netlink.RT_FILTER_TABLE)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	out := make([]KernelRoute, 0, len(routes))
	for _, r := range routes {
		if r.Gw == nil {
			continue
		}

		gw, ok := netip.AddrFromSlice(r.Gw)
		if !ok {
			continue
		}
		gw = gw.Unmap()

		prefix, ok := kernelPrefix(r.Dst, gw)
		if !ok {
			logger.Debug("skipping kernel route with unparsable destination", "dst", r.Dst)
			continue
		}

		kr := KernelRoute{
			Prefix:   prefix,
			Gateway:  gw,
			Priority: r.Priority,
		}
		if link, err := h.LinkByIndex(r.LinkIndex); err == nil {
			kr.Interface = link.Attrs().Name
		}
		out = append(out, kr)
	}

	logger.Debug("read kernel routes",
		"namespace", opts.Namespace,
		"total", len(routes),
		"gateway_routes", len(out))

	return out, nil
}

func openHandle(namespace string) (*netlink.Handle, error) {
	if namespace == "" {
		h, err := netlink.NewHandle()
		if err != nil {
			return nil, fmt.Errorf("failed to open netlink handle: %w", err)
		}
		return h, nil
	}

	ns, err := netns.GetFromName(namespace)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("network namespace not found: %s", namespace)
		}
		return nil, fmt.Errorf("failed to get namespace handle: %w", err)
	}
	defer ns.Close()

	h, err := netlink.NewHandleAt(ns)
	if err != nil {
		return nil, fmt.Errorf("failed to open netlink handle in %s: %w", namespace, err)
	}
	return h, nil
}

// kernelPrefix converts a route destination. A nil destination is the
// default route of the gateway's family.
func kernelPrefix(dst *net.IPNet, gw netip.Addr) (netip.Prefix, bool) {
	if dst == nil {
		if gw.Is4() {
			return netip.PrefixFrom(netip.IPv4Unspecified(), 0), true
		}
		return netip.PrefixFrom(netip.IPv6Unspecified(), 0), true
	}

	addr, ok := netip.AddrFromSlice(dst.IP)
	if !ok {
		return netip.Prefix{}, false
	}
	ones, _ := dst.Mask.Size()
	return netip.PrefixFrom(addr.Unmap(), ones).Masked(), true
}
