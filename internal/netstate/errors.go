package netstate

import (
	"errors"

	"grimm.is/burrow/internal/rtnl"
)

// Error taxonomy for callers. The transport-level sentinels are
// re-exported so API handlers only import this package; the raw errno
// remains reachable via errors.As on *rtnl.KernelError.
var (
	ErrNotFound   = rtnl.ErrNotFound
	ErrExists     = rtnl.ErrExists
	ErrPermission = rtnl.ErrPermission
	ErrBusy       = rtnl.ErrBusy
	ErrTimeout    = rtnl.ErrTimeout

	// ErrInvalidIndex reports a rejected explicit interface index: the
	// kernel answered "exists" but no interface of the requested name is
	// present, meaning the index itself was unusable.
	ErrInvalidIndex = errors.New("requested interface index is invalid")

	// ErrRuleExists reports a policy rule add the kernel refused as a
	// duplicate. Kernel duplicate detection is priority-based and can
	// fire for rules that differ in other fields, so this is distinct
	// from ErrExists and subject to the rules.accept_duplicate setting.
	ErrRuleExists = errors.New("policy rule already exists")
)
