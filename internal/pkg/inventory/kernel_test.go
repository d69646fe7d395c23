package inventory

import (
	"net/netip"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportKernelRoutes(t *testing.T) {
	snap := loadFixture(t)

	routes := []KernelRoute{
		// already documented as Route 3 on Device 2, but not on Device 1
		{Prefix: netip.MustParsePrefix("0.0.0.0/0"), Gateway: netip.MustParseAddr("10.10.10.1"), Interface: "eth0"},
		{Prefix: netip.MustParsePrefix("192.168.10.7/24"), Gateway: netip.MustParseAddr("10.10.10.9"), Priority: 50},
		// duplicate in the kernel table
		{Prefix: netip.MustParsePrefix("192.168.10.0/24"), Gateway: netip.MustParseAddr("10.10.10.9"), Priority: 60},
	}

	next, added, err := ImportKernelRoutes(snap, "Device 1", routes)
	require.NoError(t, err)
	require.Len(t, added, 2)

	assert.Equal(t, 5, next.Count(KindStaticRoute))
	assert.Equal(t, 3, snap.Count(KindStaticRoute), "input snapshot is unchanged")
	assert.Equal(t, snap.Count(KindOSPFInterface), next.Count(KindOSPFInterface))

	device := next.LookupByName(KindDevice, "Device 1")[0].(*Device)

	first := added[0]
	assert.Equal(t, "0.0.0.0/0 via 10.10.10.1", first.Name)
	assert.Equal(t, []uuid.UUID{device.ID}, first.Devices)
	assert.Equal(t, DefaultMetric, first.Metric)
	assert.Equal(t, "imported from kernel (dev eth0)", first.Description)
	assert.Equal(t, uuid.Nil, first.VRF)

	second := added[1]
	assert.Equal(t, netip.MustParsePrefix("192.168.10.0/24"), second.Prefix)
	assert.Equal(t, 50, second.Metric)
	assert.Equal(t, "imported from kernel", second.Description)

	_, ok := next.Lookup(KindStaticRoute, second.Key())
	assert.True(t, ok)
}

func TestImportKernelRoutes_SkipsDocumented(t *testing.T) {
	snap := loadFixture(t)

	routes := []KernelRoute{
		{Prefix: netip.MustParsePrefix("0.0.0.0/0"), Gateway: netip.MustParseAddr("10.10.10.1")},
	}

	// Route 3 already covers this on Device 2 in the global table
	next, added, err := ImportKernelRoutes(snap, "Device 2", routes)
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Equal(t, 3, next.Count(KindStaticRoute))
}

func TestImportKernelRoutes_UnknownDevice(t *testing.T) {
	_, _, err := ImportKernelRoutes(loadFixture(t), "Device 9", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown device")
}

func TestImportKernelRoutes_AmbiguousDevice(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(&Device{ID: uuid.New(), Name: "edge"}))
	require.NoError(t, b.Add(&Device{ID: uuid.New(), Name: "edge"}))

	_, _, err := ImportKernelRoutes(b.Build(), "edge", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}
