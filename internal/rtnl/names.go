package rtnl

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Symbolic names for the attribute codes the managers surface to
// callers. Codes missing from these tables are still carried through,
// named by their numeric value.

var ruleAttrNames = map[uint16]string{
	unix.FRA_DST:                 "FRA_DST",
	unix.FRA_SRC:                 "FRA_SRC",
	unix.FRA_IIFNAME:             "FRA_IIFNAME",
	unix.FRA_GOTO:                "FRA_GOTO",
	unix.FRA_PRIORITY:            "FRA_PRIORITY",
	unix.FRA_FWMARK:              "FRA_FWMARK",
	unix.FRA_FLOW:                "FRA_FLOW",
	unix.FRA_TUN_ID:              "FRA_TUN_ID",
	unix.FRA_SUPPRESS_IFGROUP:    "FRA_SUPPRESS_IFGROUP",
	unix.FRA_SUPPRESS_PREFIXLEN:  "FRA_SUPPRESS_PREFIXLEN",
	unix.FRA_TABLE:               "FRA_TABLE",
	unix.FRA_FWMASK:              "FRA_FWMASK",
	unix.FRA_OIFNAME:             "FRA_OIFNAME",
	unix.FRA_PAD:                 "FRA_PAD",
	unix.FRA_L3MDEV:              "FRA_L3MDEV",
	unix.FRA_UID_RANGE:           "FRA_UID_RANGE",
	unix.FRA_PROTOCOL:            "FRA_PROTOCOL",
	unix.FRA_IP_PROTO:            "FRA_IP_PROTO",
	unix.FRA_SPORT_RANGE:         "FRA_SPORT_RANGE",
	unix.FRA_DPORT_RANGE:         "FRA_DPORT_RANGE",
}

var addrAttrNames = map[uint16]string{
	unix.IFA_ADDRESS:   "IFA_ADDRESS",
	unix.IFA_LOCAL:     "IFA_LOCAL",
	unix.IFA_LABEL:     "IFA_LABEL",
	unix.IFA_BROADCAST: "IFA_BROADCAST",
	unix.IFA_ANYCAST:   "IFA_ANYCAST",
	unix.IFA_CACHEINFO: "IFA_CACHEINFO",
	unix.IFA_MULTICAST: "IFA_MULTICAST",
	unix.IFA_FLAGS:     "IFA_FLAGS",
}

var linkAttrNames = map[uint16]string{
	unix.IFLA_ADDRESS:   "IFLA_ADDRESS",
	unix.IFLA_BROADCAST: "IFLA_BROADCAST",
	unix.IFLA_IFNAME:    "IFLA_IFNAME",
	unix.IFLA_MTU:       "IFLA_MTU",
	unix.IFLA_LINK:      "IFLA_LINK",
	unix.IFLA_QDISC:     "IFLA_QDISC",
	unix.IFLA_STATS:     "IFLA_STATS",
	unix.IFLA_MASTER:    "IFLA_MASTER",
	unix.IFLA_TXQLEN:    "IFLA_TXQLEN",
	unix.IFLA_OPERSTATE: "IFLA_OPERSTATE",
	unix.IFLA_LINKMODE:  "IFLA_LINKMODE",
	unix.IFLA_LINKINFO:  "IFLA_LINKINFO",
	unix.IFLA_GROUP:     "IFLA_GROUP",
}

// RuleAttrName returns the FRA_* name for a rule attribute code.
func RuleAttrName(code uint16) string {
	if n, ok := ruleAttrNames[code]; ok {
		return n
	}
	return fmt.Sprintf("FRA_%d", code)
}

// AddrAttrName returns the IFA_* name for an address attribute code.
func AddrAttrName(code uint16) string {
	if n, ok := addrAttrNames[code]; ok {
		return n
	}
	return fmt.Sprintf("IFA_%d", code)
}

// LinkAttrName returns the IFLA_* name for a link attribute code.
func LinkAttrName(code uint16) string {
	if n, ok := linkAttrNames[code]; ok {
		return n
	}
	return fmt.Sprintf("IFLA_%d", code)
}

// AttrMap converts a decoded attribute list into a mapping keyed by
// symbolic names produced by nameFn. The first occurrence of a code
// wins, matching Lookup semantics.
func AttrMap(attrs []Attr, nameFn func(uint16) string) map[string][]byte {
	m := make(map[string][]byte, len(attrs))
	for _, a := range attrs {
		name := nameFn(a.Code())
		if _, ok := m[name]; !ok {
			m[name] = a.Value
		}
	}
	return m
}
