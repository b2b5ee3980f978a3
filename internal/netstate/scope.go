package netstate

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/unix"
)

// Address scope codes and their iproute2 names. Codes outside this
// table round-trip as their decimal value.
var scopeNames = map[uint8]string{
	unix.RT_SCOPE_UNIVERSE: "global",
	unix.RT_SCOPE_LINK:     "link",
	unix.RT_SCOPE_HOST:     "host",
	unix.RT_SCOPE_NOWHERE:  "nowhere",
}

var scopeCodes = map[string]uint8{
	"global":  unix.RT_SCOPE_UNIVERSE,
	"link":    unix.RT_SCOPE_LINK,
	"host":    unix.RT_SCOPE_HOST,
	"nowhere": unix.RT_SCOPE_NOWHERE,
}

// ScopeName returns the symbolic name for a scope code, or its decimal
// form when no name is known.
func ScopeName(code uint8) string {
	if n, ok := scopeNames[code]; ok {
		return n
	}
	return strconv.Itoa(int(code))
}

// ScopeCode resolves a scope name or decimal string to its code. An
// empty name means global.
func ScopeCode(name string) (uint8, error) {
	if name == "" {
		return unix.RT_SCOPE_UNIVERSE, nil
	}
	if c, ok := scopeCodes[name]; ok {
		return c, nil
	}
	n, err := strconv.Atoi(name)
	if err != nil || n < 0 || n > 255 {
		return 0, fmt.Errorf("unknown address scope %q", name)
	}
	return uint8(n), nil
}
