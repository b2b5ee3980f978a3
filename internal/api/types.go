package api

import (
	"encoding/hex"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"grimm.is/burrow/internal/netstate"
)

// NamespaceRequest is the body of POST /v1/netns.
type NamespaceRequest struct {
	Name string `json:"name"`
}

// InterfaceResponse is the wire form of an interface.
type InterfaceResponse struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	MTU   int    `json:"mtu,omitempty"`
	Up    bool   `json:"up"`
	// Attrs holds every kernel attribute hex-encoded, including codes
	// the daemon does not model.
	Attrs map[string]string `json:"attrs,omitempty"`
}

// AddressResponse is the wire form of an assigned address. Index is
// the owning interface's kernel index, so namespace-wide listings can
// be mapped back to their interfaces.
type AddressResponse struct {
	Index     int               `json:"index"`
	CIDR      string            `json:"cidr"`
	Family    int               `json:"family"`
	Scope     string            `json:"scope"`
	Broadcast string            `json:"broadcast,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// AddressRequest is the body of address add and delete calls.
type AddressRequest struct {
	CIDR      string `json:"cidr"`
	Scope     string `json:"scope,omitempty"`
	Broadcast bool   `json:"broadcast,omitempty"`
}

// RuleResponse is the wire form of a policy rule.
type RuleResponse struct {
	Family   int               `json:"family"`
	Priority int               `json:"priority"`
	Table    int               `json:"table"`
	Action   int               `json:"action"`
	Src      string            `json:"src,omitempty"`
	IIFName  string            `json:"iif_name,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// RuleRequest is the body of rule add and delete calls. Family is 4 or
// 6; omitted fields are defaulted on add and wildcards on delete.
type RuleRequest struct {
	Family   int    `json:"family"`
	Priority *int   `json:"priority,omitempty"`
	Table    *int   `json:"table,omitempty"`
	Src      string `json:"src,omitempty"`
	IIFName  string `json:"iif_name,omitempty"`
}

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	Version    string   `json:"version"`
	UptimeSecs int64    `json:"uptime_secs"`
	Namespaces []string `json:"namespaces"`
}

func hexAttrs(attrs map[string][]byte) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = hex.EncodeToString(v)
	}
	return out
}

func interfaceResponse(iface netstate.Interface) InterfaceResponse {
	return InterfaceResponse{
		Index: iface.Index,
		Name:  iface.Name,
		Kind:  iface.Kind,
		MTU:   iface.MTU,
		Up:    iface.Up,
		Attrs: hexAttrs(iface.Attrs),
	}
}

func addressResponse(addr netstate.Address) AddressResponse {
	resp := AddressResponse{
		Index:  addr.Index,
		CIDR:   fmt.Sprintf("%s/%d", addr.Address, addr.PrefixLen),
		Family: addr.Family,
		Scope:  addr.Scope,
		Attrs:  hexAttrs(addr.Attrs),
	}
	if addr.Broadcast != nil {
		resp.Broadcast = addr.Broadcast.String()
	}
	return resp
}

func ruleResponse(rule netstate.Rule) RuleResponse {
	resp := RuleResponse{
		Family:   rule.Family,
		Priority: rule.Priority,
		Table:    rule.Table,
		Action:   rule.Action,
		IIFName:  rule.IIFName,
		Attrs:    hexAttrs(rule.Attrs),
	}
	if rule.Src != nil {
		resp.Src = fmt.Sprintf("%s/%d", rule.Src, rule.SrcLen)
	}
	return resp
}

// ruleFamily translates the wire family (4 or 6) to the kernel's.
func ruleFamily(family int) (int, error) {
	switch family {
	case 4:
		return unix.AF_INET, nil
	case 6:
		return unix.AF_INET6, nil
	default:
		return 0, fmt.Errorf("family must be 4 or 6, got %d", family)
	}
}

// wireFamily is the inverse of ruleFamily for responses.
func wireFamily(af int) int {
	if af == unix.AF_INET6 {
		return 6
	}
	return 4
}

func (r *RuleRequest) toSpec() (netstate.RuleSpec, error) {
	af, err := ruleFamily(r.Family)
	if err != nil {
		return netstate.RuleSpec{}, err
	}
	spec := netstate.RuleSpec{
		Family:   af,
		Priority: r.Priority,
		Table:    r.Table,
		IIFName:  r.IIFName,
	}
	if r.Src != "" {
		ip, ipnet, err := net.ParseCIDR(r.Src)
		if err != nil {
			return netstate.RuleSpec{}, fmt.Errorf("invalid src %q: %w", r.Src, err)
		}
		ones, _ := ipnet.Mask.Size()
		spec.Src = ip
		spec.SrcLen = ones
	}
	return spec, nil
}

func (r *AddressRequest) toRequest() (netstate.AddressRequest, error) {
	ip, ipnet, err := net.ParseCIDR(r.CIDR)
	if err != nil {
		return netstate.AddressRequest{}, fmt.Errorf("invalid cidr %q: %w", r.CIDR, err)
	}
	ones, _ := ipnet.Mask.Size()
	return netstate.AddressRequest{
		Address:   ip,
		PrefixLen: ones,
		Scope:     r.Scope,
		Broadcast: r.Broadcast,
	}, nil
}
