package netstate

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestBroadcastAddr(t *testing.T) {
	tests := []struct {
		name      string
		ip        string
		prefixLen int
		want      string
	}{
		{"slash24", "192.168.10.20", 24, "192.168.10.255"},
		{"slash16", "10.1.2.3", 16, "10.1.255.255"},
		{"slash30", "192.168.0.1", 30, "192.168.0.3"},
		{"slash8", "10.0.0.1", 8, "10.255.255.255"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BroadcastAddr(net.ParseIP(tt.ip), tt.prefixLen)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestBroadcastAddrNoBroadcast(t *testing.T) {
	// point-to-point and host prefixes have no distinct broadcast
	assert.Nil(t, BroadcastAddr(net.ParseIP("192.168.0.1"), 31))
	assert.Nil(t, BroadcastAddr(net.ParseIP("192.168.0.1"), 32))
	// broadcast is an IPv4 concept
	assert.Nil(t, BroadcastAddr(net.ParseIP("2001:db8::1"), 64))
}

func TestInterfaceRequestValidate(t *testing.T) {
	req := InterfaceRequest{Name: "dummy0"}
	assert.NoError(t, req.Validate())
	assert.Equal(t, "dummy", req.DeviceKind())

	req = InterfaceRequest{Name: "vlan0", Kind: "vlan"}
	assert.Equal(t, "vlan", req.DeviceKind())

	assert.Error(t, (&InterfaceRequest{}).Validate())
	assert.Error(t, (&InterfaceRequest{Name: "dummy0", Index: -1}).Validate())
	assert.Error(t, (&InterfaceRequest{Name: "a-name-way-longer-than-ifnamsiz-allows"}).Validate())
}

func TestAddressRequestValidate(t *testing.T) {
	req := AddressRequest{Address: net.ParseIP("192.168.10.20"), PrefixLen: 24}
	assert.NoError(t, req.Validate())
	assert.Equal(t, unix.AF_INET, req.Family())

	req = AddressRequest{Address: net.ParseIP("2001:db8::1"), PrefixLen: 64}
	assert.NoError(t, req.Validate())
	assert.Equal(t, unix.AF_INET6, req.Family())

	assert.Error(t, (&AddressRequest{PrefixLen: 24}).Validate())
	assert.Error(t, (&AddressRequest{Address: net.ParseIP("10.0.0.1"), PrefixLen: 33}).Validate())
	assert.Error(t, (&AddressRequest{Address: net.ParseIP("10.0.0.1"), PrefixLen: 24, Scope: "galactic"}).Validate())
}

func TestRuleSpecValidate(t *testing.T) {
	prio, table := 100, 10
	spec := RuleSpec{
		Family:   unix.AF_INET,
		Priority: &prio,
		Table:    &table,
		Src:      net.ParseIP("10.0.0.0"),
		SrcLen:   8,
		IIFName:  "eth0",
	}
	assert.NoError(t, spec.Validate())

	assert.Error(t, (&RuleSpec{Family: unix.AF_PACKET}).Validate())

	bad := -1
	assert.Error(t, (&RuleSpec{Family: unix.AF_INET, Priority: &bad}).Validate())
	assert.Error(t, (&RuleSpec{Family: unix.AF_INET, Table: &bad}).Validate())

	// family mismatch between rule and source prefix
	spec = RuleSpec{Family: unix.AF_INET6, Src: net.ParseIP("10.0.0.0"), SrcLen: 8}
	assert.Error(t, spec.Validate())

	spec = RuleSpec{Family: unix.AF_INET, Src: net.ParseIP("10.0.0.0"), SrcLen: 40}
	assert.Error(t, spec.Validate())
}
