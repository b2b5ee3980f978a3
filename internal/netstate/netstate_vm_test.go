//go:build linux

package netstate

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"grimm.is/burrow/internal/config"
	"grimm.is/burrow/internal/testutil"
)

// newTestManager returns a kernel-backed manager and a throwaway
// namespace that is cleaned up with the test.
func newTestManager(t *testing.T) (Manager, string) {
	t.Helper()
	testutil.RequireVM(t)
	testutil.RequireRoot(t)

	mgr, err := NewManager(config.Default())
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	ns := "test-" + uuid.New().String()[:8]
	require.NoError(t, mgr.CreateNamespace(context.Background(), ns))
	t.Cleanup(func() { mgr.RemoveNamespace(context.Background(), ns) })

	return mgr, ns
}

func TestNamespaceLifecycle_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	exists, err := mgr.NamespaceExists(ns)
	require.NoError(t, err)
	assert.True(t, exists)

	names, err := mgr.ListNamespaces()
	require.NoError(t, err)
	assert.Contains(t, names, ns)

	// creating the same namespace again reports exists
	err = mgr.CreateNamespace(context.Background(), ns)
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, mgr.RemoveNamespace(context.Background(), ns))

	exists, err = mgr.NamespaceExists(ns)
	require.NoError(t, err)
	assert.False(t, exists)

	err = mgr.RemoveNamespace(context.Background(), ns)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeviceNames_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	// a fresh namespace holds only the loopback device
	names, err := mgr.DeviceNames(ns)
	require.NoError(t, err)
	assert.Contains(t, names, "lo")

	_, err = mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy0"})
	require.NoError(t, err)

	names, err = mgr.DeviceNames(ns)
	require.NoError(t, err)
	assert.Contains(t, names, "dummy0")
}

func TestCreateInterface_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	iface, err := mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy0", Up: true})
	require.NoError(t, err)
	assert.Equal(t, "dummy0", iface.Name)
	assert.Equal(t, "dummy", iface.Kind)
	assert.True(t, iface.Up)
	assert.Greater(t, iface.Index, 0)

	// exclusive create: the same name fails
	_, err = mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy0"})
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, mgr.DeleteInterface(ns, "dummy0"))
	err = mgr.DeleteInterface(ns, "dummy0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateInterfaceExplicitIndex_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	iface, err := mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy5", Index: 5000})
	require.NoError(t, err)
	assert.Equal(t, 5000, iface.Index)

	// a new name on an occupied index is an index problem, not a
	// name collision
	_, err = mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy6", Index: 5000})
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestSetInterfaceUp_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	_, err := mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy0"})
	require.NoError(t, err)

	require.NoError(t, mgr.SetInterfaceUp(ns, "dummy0"))

	iface, err := findInterface(mgr, ns, "dummy0")
	require.NoError(t, err)
	assert.True(t, iface.Up)
}

func findInterface(mgr Manager, ns, name string) (*Interface, error) {
	ifaces, err := mgr.ListInterfaces(ns)
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		if ifaces[i].Name == name {
			return &ifaces[i], nil
		}
	}
	return nil, ErrNotFound
}

func TestAddressRoundTrip_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	_, err := mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy0", Up: true})
	require.NoError(t, err)

	req := AddressRequest{
		Address:   net.ParseIP("192.168.10.20"),
		PrefixLen: 24,
		Scope:     "link",
		Broadcast: true,
	}
	require.NoError(t, mgr.AddAddress(ns, "dummy0", req))

	// exclusive add: same address again reports exists
	err = mgr.AddAddress(ns, "dummy0", req)
	assert.ErrorIs(t, err, ErrExists)

	addrs, err := mgr.ListAddresses(ns, "dummy0")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "192.168.10.20", addrs[0].Address.String())
	assert.Equal(t, 24, addrs[0].PrefixLen)
	assert.Equal(t, "link", addrs[0].Scope)
	assert.Equal(t, "192.168.10.255", addrs[0].Broadcast.String())

	require.NoError(t, mgr.DeleteAddress(ns, "dummy0", req))
	addrs, err = mgr.ListAddresses(ns, "dummy0")
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestAddressListNamespaceWide_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	d0, err := mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy0", Up: true})
	require.NoError(t, err)
	d1, err := mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy1", Up: true})
	require.NoError(t, err)

	require.NoError(t, mgr.AddAddress(ns, "dummy0", AddressRequest{
		Address: net.ParseIP("10.1.0.1"), PrefixLen: 24,
	}))
	require.NoError(t, mgr.AddAddress(ns, "dummy1", AddressRequest{
		Address: net.ParseIP("10.2.0.1"), PrefixLen: 24,
	}))

	// an empty device lists the whole namespace; each entry carries the
	// owning interface index so it can be mapped back to its device
	addrs, err := mgr.ListAddresses(ns, "")
	require.NoError(t, err)

	byIndex := make(map[int][]string)
	for _, a := range addrs {
		byIndex[a.Index] = append(byIndex[a.Index], a.Address.String())
	}
	assert.Contains(t, byIndex[d0.Index], "10.1.0.1")
	assert.Contains(t, byIndex[d1.Index], "10.2.0.1")

	// the per-device view is the same dump filtered to one index
	only, err := mgr.ListAddresses(ns, "dummy1")
	require.NoError(t, err)
	for _, a := range only {
		assert.Equal(t, d1.Index, a.Index)
	}
}

func TestAddressIPv6NoBroadcast_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	_, err := mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy0", Up: true})
	require.NoError(t, err)

	req := AddressRequest{
		Address:   net.ParseIP("2001:db8::20"),
		PrefixLen: 64,
		Broadcast: true, // ignored for IPv6
	}
	require.NoError(t, mgr.AddAddress(ns, "dummy0", req))

	addrs, err := mgr.ListAddresses(ns, "dummy0")
	require.NoError(t, err)

	var found bool
	for _, a := range addrs {
		if a.Address.Equal(net.ParseIP("2001:db8::20")) {
			found = true
			assert.Nil(t, a.Broadcast)
		}
	}
	assert.True(t, found)
}

func TestDefaultRules_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	// the kernel installs local/main/default for IPv4 and local/main
	// for IPv6 in every new namespace
	v4, err := mgr.ListRules(ns, unix.AF_INET)
	require.NoError(t, err)
	assert.Len(t, v4, 3)

	v6, err := mgr.ListRules(ns, unix.AF_INET6)
	require.NoError(t, err)
	assert.Len(t, v6, 2)
}

func TestRuleRoundTrip_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	prio, table := 100, 10
	spec := RuleSpec{
		Family:   unix.AF_INET,
		Priority: &prio,
		Table:    &table,
		Src:      net.ParseIP("10.0.0.0"),
		SrcLen:   8,
	}
	require.NoError(t, mgr.AddRule(ns, spec))

	rules, err := mgr.ListRules(ns, unix.AF_INET)
	require.NoError(t, err)

	var found *Rule
	for i := range rules {
		if rules[i].Priority == prio {
			found = &rules[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, table, found.Table)
	assert.Equal(t, 8, found.SrcLen)
	assert.True(t, found.Src.Equal(net.ParseIP("10.0.0.0")))

	require.NoError(t, mgr.DeleteRule(ns, spec))

	err = mgr.DeleteRule(ns, spec)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRuleWideTable_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	prio, table := 200, 4000
	spec := RuleSpec{Family: unix.AF_INET, Priority: &prio, Table: &table}
	require.NoError(t, mgr.AddRule(ns, spec))

	rules, err := mgr.ListRules(ns, unix.AF_INET)
	require.NoError(t, err)

	var found bool
	for _, r := range rules {
		if r.Priority == prio {
			found = true
			assert.Equal(t, table, r.Table)
		}
	}
	assert.True(t, found)
}

func TestRuleDuplicate_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	prio, table := 300, 20
	spec := RuleSpec{Family: unix.AF_INET, Priority: &prio, Table: &table}
	require.NoError(t, mgr.AddRule(ns, spec))

	// default policy surfaces the kernel's duplicate report
	err := mgr.AddRule(ns, spec)
	assert.ErrorIs(t, err, ErrRuleExists)
}

func TestRuleDuplicateAccepted_Integration(t *testing.T) {
	testutil.RequireVM(t)
	testutil.RequireRoot(t)

	cfg := config.Default()
	cfg.Rules.AcceptDuplicate = true
	mgr, err := NewManager(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	ns := "test-" + uuid.New().String()[:8]
	require.NoError(t, mgr.CreateNamespace(context.Background(), ns))
	t.Cleanup(func() { mgr.RemoveNamespace(context.Background(), ns) })

	prio, table := 300, 20
	spec := RuleSpec{Family: unix.AF_INET, Priority: &prio, Table: &table}
	require.NoError(t, mgr.AddRule(ns, spec))
	assert.NoError(t, mgr.AddRule(ns, spec), "accept_duplicate absorbs the report")
}

func TestWatch_Integration(t *testing.T) {
	mgr, ns := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := mgr.Watch(ctx, ns)
	require.NoError(t, err)

	_, err = mgr.CreateInterface(ns, InterfaceRequest{Name: "dummy0", Up: true})
	require.NoError(t, err)

	ev, ok := <-events
	require.True(t, ok)
	assert.Equal(t, "link", ev.Kind)
	assert.Equal(t, ns, ev.Namespace)
}
