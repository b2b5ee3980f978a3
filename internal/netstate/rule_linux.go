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

// Policy rule actions (FR_ACT_*). Rules this manager adds always send
// traffic to a table; deletes leave the action unspecified so it acts
// as a wildcard.
const (
	ruleActionUnspec  = 0
	ruleActionToTable = 1
)

// parseRule decodes one RTM_NEWRULE reply body. The rule header shares
// its layout with the route header, so the route deserializer applies:
// the route "type" field is the rule action.
func parseRule(body []byte) (Rule, error) {
	msg := vnl.DeserializeRtMsg(body)
	attrs, err := rtnl.ParseAttrs(body[msg.Len():])
	if err != nil {
		return Rule{}, fmt.Errorf("rule reply: %w", err)
	}

	rule := Rule{
		Family: int(msg.Family),
		Table:  int(msg.Table),
		Action: int(msg.Type),
		SrcLen: int(msg.Src_len),
		Attrs:  rtnl.AttrMap(attrs, rtnl.RuleAttrName),
	}
	// Tables above 255 do not fit the header byte and arrive as an
	// attribute instead.
	if v, ok := rtnl.Lookup(attrs, unix.FRA_TABLE); ok && len(v) >= 4 {
		rule.Table = int(rtnl.NewAttr(0, v).Uint32())
	}
	if v, ok := rtnl.Lookup(attrs, unix.FRA_PRIORITY); ok && len(v) >= 4 {
		rule.Priority = int(rtnl.NewAttr(0, v).Uint32())
	}
	if v, ok := rtnl.Lookup(attrs, unix.FRA_SRC); ok {
		rule.Src = net.IP(v)
	}
	if v, ok := rtnl.Lookup(attrs, unix.FRA_IIFNAME); ok {
		rule.IIFName = rtnl.NewAttr(0, v).String()
	}
	return rule, nil
}

// ListRules returns the policy rules for one address family, in
// priority order as the kernel reports them. A namespace that has never
// been touched shows only the kernel's own rules: local, main, and
// default for IPv4, local and main for IPv6.
func (m *manager) ListRules(ns string, family int) ([]Rule, error) {
	switch family {
	case unix.AF_INET, unix.AF_INET6:
	default:
		return nil, fmt.Errorf("unsupported rule family %d", family)
	}

	c, err := m.conn(ns)
	if err != nil {
		return nil, err
	}

	req := vnl.NewNetlinkRequest(unix.RTM_GETRULE, unix.NLM_F_DUMP)
	req.AddData(vnl.NewIfInfomsg(family))

	bodies, err := c.Execute("rule_list", req, unix.RTM_NEWRULE)
	if err != nil {
		return nil, err
	}

	rules := make([]Rule, 0, len(bodies))
	for _, b := range bodies {
		rule, err := parseRule(b)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// buildRuleRequest assembles a rule add or delete message. The table is
// carried in the header byte when it fits and as FRA_TABLE otherwise;
// fields left nil in the spec are omitted entirely.
func buildRuleRequest(msgType int, flags int, spec RuleSpec, action uint8) *vnl.NetlinkRequest {
	req := vnl.NewNetlinkRequest(msgType, flags)

	msg := &vnl.RtMsg{}
	msg.Family = uint8(spec.Family)
	msg.Type = action
	var wideTable bool
	if spec.Table != nil {
		if t := *spec.Table; t < 256 {
			msg.Table = uint8(t)
		} else {
			msg.Table = unix.RT_TABLE_UNSPEC
			wideTable = true
		}
	}
	if spec.Src != nil {
		msg.Src_len = uint8(spec.SrcLen)
	}
	req.AddData(msg)

	if wideTable {
		req.AddData(rtnl.Uint32Attr(unix.FRA_TABLE, uint32(*spec.Table)))
	}
	if spec.Priority != nil {
		req.AddData(rtnl.Uint32Attr(unix.FRA_PRIORITY, uint32(*spec.Priority)))
	}
	if spec.Src != nil {
		req.AddData(rtnl.NewAttr(unix.FRA_SRC, addressBytes(spec.Src)))
	}
	if spec.IIFName != "" {
		req.AddData(rtnl.StringAttr(unix.FRA_IIFNAME, spec.IIFName))
	}
	return req
}

// AddRule adds a policy rule sending matched traffic to a table. A nil
// Table means the main table; a nil Priority lets the kernel choose.
//
// The kernel rejects an add as "exists" based on priority alone, so the
// rejection can be spurious for rules that differ in other selectors.
// rules.accept_duplicate decides whether that rejection is surfaced
// (ErrRuleExists) or absorbed; the errno is logged either way.
func (m *manager) AddRule(ns string, spec RuleSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	c, err := m.conn(ns)
	if err != nil {
		return err
	}

	if spec.Table == nil {
		table := unix.RT_TABLE_MAIN
		spec.Table = &table
	}

	req := buildRuleRequest(unix.RTM_NEWRULE,
		unix.NLM_F_CREATE|unix.NLM_F_EXCL|unix.NLM_F_ACK, spec, ruleActionToTable)

	if _, err := c.Execute("rule_add", req, 0); err != nil {
		if errors.Is(err, ErrExists) {
			if m.cfg.Rules.AcceptDuplicate {
				m.log.Warn("kernel reported duplicate rule, accepting",
					"namespace", ns, "family", spec.Family, "error", err)
				return nil
			}
			return fmt.Errorf("%w: %w", ErrRuleExists, err)
		}
		return err
	}

	m.log.Audit("rule_add", ns, ruleAuditDetails(spec))
	return nil
}

// DeleteRule removes the first rule matching every field set in the
// spec; nil fields match anything. Deleting a rule that does not exist
// reports ErrNotFound.
func (m *manager) DeleteRule(ns string, spec RuleSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	c, err := m.conn(ns)
	if err != nil {
		return err
	}

	req := buildRuleRequest(unix.RTM_DELRULE, unix.NLM_F_ACK, spec, ruleActionUnspec)

	if _, err := c.Execute("rule_del", req, 0); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("no matching rule: %w", ErrNotFound)
		}
		return err
	}

	m.log.Audit("rule_del", ns, ruleAuditDetails(spec))
	return nil
}

func ruleAuditDetails(spec RuleSpec) map[string]any {
	details := map[string]any{"family": spec.Family}
	if spec.Priority != nil {
		details["priority"] = *spec.Priority
	}
	if spec.Table != nil {
		details["table"] = *spec.Table
	}
	if spec.Src != nil {
		details["src"] = fmt.Sprintf("%s/%d", spec.Src, spec.SrcLen)
	}
	if spec.IIFName != "" {
		details["iif"] = spec.IIFName
	}
	return details
}
