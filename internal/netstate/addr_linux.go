//go:build linux

package netstate

import (
	"errors"
	"fmt"
	"net"

	vnl "github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"

	"grimm.is/burrow/internal/rtnl"
)

// parseAddress decodes one RTM_NEWADDR reply body.
func parseAddress(body []byte) (Address, error) {
	msg := vnl.DeserializeIfAddrmsg(body)
	attrs, err := rtnl.ParseAttrs(body[msg.Len():])
	if err != nil {
		return Address{}, fmt.Errorf("address reply: %w", err)
	}

	addr := Address{
		Index:     int(msg.Index),
		Family:    int(msg.Family),
		PrefixLen: int(msg.Prefixlen),
		Scope:     ScopeName(msg.Scope),
		Attrs:     rtnl.AttrMap(attrs, rtnl.AddrAttrName),
	}
	// IFA_LOCAL is the interface's own address; IFA_ADDRESS doubles as
	// the peer on point-to-point links. Prefer local when both appear.
	if v, ok := rtnl.Lookup(attrs, unix.IFA_LOCAL); ok {
		addr.Address = net.IP(v)
	} else if v, ok := rtnl.Lookup(attrs, unix.IFA_ADDRESS); ok {
		addr.Address = net.IP(v)
	}
	if v, ok := rtnl.Lookup(attrs, unix.IFA_BROADCAST); ok {
		addr.Broadcast = net.IP(v)
	}
	return addr, nil
}

// ListAddresses returns the addresses assigned to a device, or to
// every device in the namespace when device is empty. The kernel dump
// is always namespace-wide; a named device just filters it.
func (m *manager) ListAddresses(ns, device string) ([]Address, error) {
	wantIndex := 0
	if device != "" {
		iface, err := m.interfaceByName(ns, device)
		if err != nil {
			return nil, err
		}
		wantIndex = iface.Index
	}

	c, err := m.conn(ns)
	if err != nil {
		return nil, err
	}

	req := vnl.NewNetlinkRequest(unix.RTM_GETADDR, unix.NLM_F_DUMP)
	req.AddData(vnl.NewIfAddrmsg(unix.AF_UNSPEC))

	bodies, err := c.Execute("addr_list", req, unix.RTM_NEWADDR)
	if err != nil {
		return nil, err
	}

	var addrs []Address
	for _, b := range bodies {
		addr, err := parseAddress(b)
		if err != nil {
			return nil, err
		}
		if wantIndex != 0 && addr.Index != wantIndex {
			continue
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// addressBytes returns the wire form of an IP for its family.
func addressBytes(ip net.IP) []byte {
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip.To16()
}

// buildAddrRequest assembles the shared body of address add and delete
// requests.
func buildAddrRequest(msgType int, flags int, ifindex int, areq AddressRequest) (*vnl.NetlinkRequest, error) {
	scope, err := ScopeCode(areq.Scope)
	if err != nil {
		return nil, err
	}

	req := vnl.NewNetlinkRequest(msgType, flags)
	msg := vnl.NewIfAddrmsg(areq.Family())
	msg.Prefixlen = uint8(areq.PrefixLen)
	msg.Scope = scope
	msg.Index = uint32(ifindex)
	req.AddData(msg)

	raw := addressBytes(areq.Address)
	req.AddData(rtnl.NewAttr(unix.IFA_LOCAL, raw))
	req.AddData(rtnl.NewAttr(unix.IFA_ADDRESS, raw))

	// Broadcast addresses only exist for IPv4; the kernel rejects
	// IFA_BROADCAST on other families.
	if areq.Broadcast {
		if bcast := BroadcastAddr(areq.Address, areq.PrefixLen); bcast != nil {
			req.AddData(rtnl.NewAttr(unix.IFA_BROADCAST, bcast))
		}
	}
	return req, nil
}

// AddAddress assigns an address to a device. The add is exclusive; the
// same address twice reports ErrExists.
func (m *manager) AddAddress(ns, device string, areq AddressRequest) error {
	if err := areq.Validate(); err != nil {
		return err
	}

	iface, err := m.interfaceByName(ns, device)
	if err != nil {
		return err
	}

	c, err := m.conn(ns)
	if err != nil {
		return err
	}

	req, err := buildAddrRequest(unix.RTM_NEWADDR,
		unix.NLM_F_CREATE|unix.NLM_F_EXCL|unix.NLM_F_ACK, iface.Index, areq)
	if err != nil {
		return err
	}

	if _, err := c.Execute("addr_add", req, 0); err != nil {
		if errors.Is(err, ErrExists) {
			return fmt.Errorf("address %s/%d on %q: %w", areq.Address, areq.PrefixLen, device, ErrExists)
		}
		return err
	}

	m.log.Audit("addr_add", device, map[string]any{
		"namespace": ns,
		"address":   fmt.Sprintf("%s/%d", areq.Address, areq.PrefixLen),
		"scope":     areq.Scope,
	})
	return nil
}

// DeleteAddress removes an address from a device.
func (m *manager) DeleteAddress(ns, device string, areq AddressRequest) error {
	if err := areq.Validate(); err != nil {
		return err
	}

	iface, err := m.interfaceByName(ns, device)
	if err != nil {
		return err
	}

	c, err := m.conn(ns)
	if err != nil {
		return err
	}

	req, err := buildAddrRequest(unix.RTM_DELADDR, unix.NLM_F_ACK, iface.Index, areq)
	if err != nil {
		return err
	}

	if _, err := c.Execute("addr_del", req, 0); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("address %s/%d on %q: %w", areq.Address, areq.PrefixLen, device, ErrNotFound)
		}
		return err
	}

	m.log.Audit("addr_del", device, map[string]any{
		"namespace": ns,
		"address":   fmt.Sprintf("%s/%d", areq.Address, areq.PrefixLen),
	})
	return nil
}
