package netstate

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Interface is a network device as reported by the kernel.
type Interface struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	MTU   int    `json:"mtu,omitempty"`
	Up    bool   `json:"up"`

	// Attrs carries every link attribute from the kernel reply, keyed
	// by IFLA_* name (numeric fallback for codes we do not know).
	Attrs map[string][]byte `json:"-"`
}

// InterfaceRequest describes an interface to create.
type InterfaceRequest struct {
	Name string `json:"name"`
	// Kind selects the device type; empty means "dummy".
	Kind string `json:"kind,omitempty"`
	// Index, when non-zero, asks the kernel for that exact ifindex.
	Index int  `json:"index,omitempty"`
	Up    bool `json:"up,omitempty"`
}

// Validate checks the request before it reaches the kernel.
func (r *InterfaceRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("interface name is required")
	}
	if len(r.Name) >= unix.IFNAMSIZ {
		return fmt.Errorf("interface name %q exceeds %d characters", r.Name, unix.IFNAMSIZ-1)
	}
	if r.Index < 0 {
		return fmt.Errorf("interface index must be >= 0, got %d", r.Index)
	}
	return nil
}

// DeviceKind returns the requested device kind with the default applied.
func (r *InterfaceRequest) DeviceKind() string {
	if r.Kind == "" {
		return "dummy"
	}
	return r.Kind
}

// Address is an IP address assigned to an interface.
type Address struct {
	Index     int    `json:"index"`
	Family    int    `json:"family"`
	PrefixLen int    `json:"prefix_len"`
	Scope     string `json:"scope"`
	Address   net.IP `json:"address"`
	Broadcast net.IP `json:"broadcast,omitempty"`

	// Attrs carries every address attribute, keyed by IFA_* name.
	Attrs map[string][]byte `json:"-"`
}

// AddressRequest describes an address to add to or remove from an
// interface.
type AddressRequest struct {
	Address   net.IP `json:"address"`
	PrefixLen int    `json:"prefix_len"`
	// Scope is a symbolic scope name ("global", "link", "host",
	// "nowhere") or a numeric code. Empty means global.
	Scope string `json:"scope,omitempty"`
	// Broadcast requests a broadcast address derived from the prefix.
	// Only meaningful for IPv4; ignored for other families.
	Broadcast bool `json:"broadcast,omitempty"`
}

// Family returns the address family for the request.
func (r *AddressRequest) Family() int {
	if r.Address.To4() != nil {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

// Validate checks the request before it reaches the kernel.
func (r *AddressRequest) Validate() error {
	if r.Address == nil {
		return fmt.Errorf("address is required")
	}
	max := 128
	if r.Address.To4() != nil {
		max = 32
	}
	if r.PrefixLen < 0 || r.PrefixLen > max {
		return fmt.Errorf("prefix length %d out of range for family", r.PrefixLen)
	}
	if _, err := ScopeCode(r.Scope); err != nil {
		return err
	}
	return nil
}

// Rule is a routing policy rule as reported by the kernel.
type Rule struct {
	Family   int    `json:"family"`
	Priority int    `json:"priority"`
	Table    int    `json:"table"`
	Action   int    `json:"action"`
	SrcLen   int    `json:"src_len,omitempty"`
	Src      net.IP `json:"src,omitempty"`
	IIFName  string `json:"iif_name,omitempty"`

	// Attrs carries every rule attribute, keyed by FRA_* name, so
	// selectors this type does not model are still visible to callers.
	Attrs map[string][]byte `json:"-"`
}

// RuleSpec selects or describes a policy rule. For adds, nil Priority
// lets the kernel choose and nil Table means the main table. For
// deletes, nil fields are wildcards: the kernel removes the first rule
// matching every field that is set.
type RuleSpec struct {
	Family   int    `json:"family"`
	Priority *int   `json:"priority,omitempty"`
	Table    *int   `json:"table,omitempty"`
	Src      net.IP `json:"src,omitempty"`
	SrcLen   int    `json:"src_len,omitempty"`
	IIFName  string `json:"iif_name,omitempty"`
}

// Validate checks the spec before it reaches the kernel.
func (s *RuleSpec) Validate() error {
	switch s.Family {
	case unix.AF_INET, unix.AF_INET6:
	default:
		return fmt.Errorf("unsupported rule family %d", s.Family)
	}
	if s.Priority != nil && *s.Priority < 0 {
		return fmt.Errorf("rule priority must be >= 0, got %d", *s.Priority)
	}
	if s.Table != nil && *s.Table < 0 {
		return fmt.Errorf("rule table must be >= 0, got %d", *s.Table)
	}
	if s.Src != nil {
		v4 := s.Src.To4() != nil
		if v4 != (s.Family == unix.AF_INET) {
			return fmt.Errorf("source address family does not match rule family")
		}
		max := 128
		if v4 {
			max = 32
		}
		if s.SrcLen < 0 || s.SrcLen > max {
			return fmt.Errorf("source prefix length %d out of range", s.SrcLen)
		}
	}
	return nil
}

// BroadcastAddr computes the directed broadcast address for an IPv4
// prefix: the address with all host bits set. Returns nil for non-IPv4
// addresses and for prefixes longer than 30 bits, which have no
// distinct broadcast.
func BroadcastAddr(ip net.IP, prefixLen int) net.IP {
	v4 := ip.To4()
	if v4 == nil || prefixLen < 0 || prefixLen > 30 {
		return nil
	}
	mask := net.CIDRMask(prefixLen, 32)
	bcast := make(net.IP, 4)
	for i := range bcast {
		bcast[i] = v4[i] | ^mask[i]
	}
	return bcast
}
