//go:build linux

package netstate

import (
	"errors"
	"fmt"

	vnl "github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"

	"grimm.is/burrow/internal/rtnl"
)

// parseInterface decodes one RTM_NEWLINK reply body.
func parseInterface(body []byte) (Interface, error) {
	msg := vnl.DeserializeIfInfomsg(body)
	attrs, err := rtnl.ParseAttrs(body[msg.Len():])
	if err != nil {
		return Interface{}, fmt.Errorf("link reply: %w", err)
	}

	iface := Interface{
		Index: int(msg.Index),
		Up:    msg.Flags&unix.IFF_UP != 0,
		Attrs: rtnl.AttrMap(attrs, rtnl.LinkAttrName),
	}
	if v, ok := rtnl.Lookup(attrs, unix.IFLA_IFNAME); ok {
		iface.Name = rtnl.NewAttr(0, v).String()
	}
	if v, ok := rtnl.Lookup(attrs, unix.IFLA_MTU); ok && len(v) >= 4 {
		iface.MTU = int(rtnl.NewAttr(0, v).Uint32())
	}
	if v, ok := rtnl.Lookup(attrs, unix.IFLA_LINKINFO); ok {
		if info, err := rtnl.ParseAttrs(v); err == nil {
			if kind, ok := rtnl.Lookup(info, unix.IFLA_INFO_KIND); ok {
				iface.Kind = rtnl.NewAttr(0, kind).String()
			}
		}
	}
	return iface, nil
}

// ListInterfaces returns every interface in the namespace, in kernel
// dump order.
func (m *manager) ListInterfaces(ns string) ([]Interface, error) {
	c, err := m.conn(ns)
	if err != nil {
		return nil, err
	}

	req := vnl.NewNetlinkRequest(unix.RTM_GETLINK, unix.NLM_F_DUMP)
	req.AddData(vnl.NewIfInfomsg(unix.AF_UNSPEC))

	bodies, err := c.Execute("link_list", req, unix.RTM_NEWLINK)
	if err != nil {
		return nil, err
	}

	ifaces := make([]Interface, 0, len(bodies))
	for _, b := range bodies {
		iface, err := parseInterface(b)
		if err != nil {
			return nil, err
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

// DeviceNames returns the interface names present in the namespace, in
// kernel dump order. A freshly created namespace reports just "lo".
func (m *manager) DeviceNames(ns string) ([]string, error) {
	ifaces, err := m.ListInterfaces(ns)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		names = append(names, iface.Name)
	}
	return names, nil
}

// interfaceByName finds one interface in the namespace by name.
func (m *manager) interfaceByName(ns, name string) (*Interface, error) {
	ifaces, err := m.ListInterfaces(ns)
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		if ifaces[i].Name == name {
			return &ifaces[i], nil
		}
	}
	return nil, fmt.Errorf("interface %q in namespace %q: %w", name, ns, ErrNotFound)
}

// CreateInterface creates a virtual interface in the namespace. A
// non-zero Index asks the kernel for that exact ifindex; the create is
// exclusive, so a second interface can never silently replace an
// existing one.
func (m *manager) CreateInterface(ns string, ifreq InterfaceRequest) (*Interface, error) {
	if err := ifreq.Validate(); err != nil {
		return nil, err
	}

	c, err := m.conn(ns)
	if err != nil {
		return nil, err
	}

	req := vnl.NewNetlinkRequest(unix.RTM_NEWLINK,
		unix.NLM_F_CREATE|unix.NLM_F_EXCL|unix.NLM_F_ACK)
	msg := vnl.NewIfInfomsg(unix.AF_UNSPEC)
	msg.Index = int32(ifreq.Index)
	if ifreq.Up {
		msg.Flags = unix.IFF_UP
		msg.Change = unix.IFF_UP
	}
	req.AddData(msg)
	req.AddData(rtnl.StringAttr(unix.IFLA_IFNAME, ifreq.Name))
	req.AddData(rtnl.NestedAttr(unix.IFLA_LINKINFO, []rtnl.Attr{
		rtnl.NewAttr(unix.IFLA_INFO_KIND, []byte(ifreq.DeviceKind())),
	}))

	if _, err := c.Execute("link_add", req, 0); err != nil {
		// With an explicit index the kernel reports "exists" both for a
		// name collision and for an index it cannot honor. Only the
		// former actually exists; look the name up to tell them apart.
		if errors.Is(err, ErrExists) && ifreq.Index != 0 {
			if _, lookupErr := m.interfaceByName(ns, ifreq.Name); lookupErr != nil {
				return nil, fmt.Errorf("interface %q index %d: %w", ifreq.Name, ifreq.Index, ErrInvalidIndex)
			}
		}
		if errors.Is(err, ErrExists) {
			return nil, fmt.Errorf("interface %q in namespace %q: %w", ifreq.Name, ns, ErrExists)
		}
		return nil, err
	}

	m.log.Audit("link_add", ifreq.Name, map[string]any{
		"namespace": ns, "kind": ifreq.DeviceKind(), "index": ifreq.Index,
	})
	return m.interfaceByName(ns, ifreq.Name)
}

// DeleteInterface removes an interface by name.
func (m *manager) DeleteInterface(ns, name string) error {
	iface, err := m.interfaceByName(ns, name)
	if err != nil {
		return err
	}

	c, err := m.conn(ns)
	if err != nil {
		return err
	}

	req := vnl.NewNetlinkRequest(unix.RTM_DELLINK, unix.NLM_F_ACK)
	msg := vnl.NewIfInfomsg(unix.AF_UNSPEC)
	msg.Index = int32(iface.Index)
	req.AddData(msg)

	if _, err := c.Execute("link_del", req, 0); err != nil {
		return err
	}

	m.log.Audit("link_del", name, map[string]any{"namespace": ns, "index": iface.Index})
	return nil
}

// SetInterfaceUp brings an interface administratively up.
func (m *manager) SetInterfaceUp(ns, name string) error {
	iface, err := m.interfaceByName(ns, name)
	if err != nil {
		return err
	}

	c, err := m.conn(ns)
	if err != nil {
		return err
	}

	req := vnl.NewNetlinkRequest(unix.RTM_NEWLINK, unix.NLM_F_ACK)
	msg := vnl.NewIfInfomsg(unix.AF_UNSPEC)
	msg.Index = int32(iface.Index)
	msg.Flags = unix.IFF_UP
	msg.Change = unix.IFF_UP
	req.AddData(msg)

	if _, err := c.Execute("link_set_up", req, 0); err != nil {
		return err
	}

	m.log.Audit("link_set_up", name, map[string]any{"namespace": ns, "index": iface.Index})
	return nil
}
