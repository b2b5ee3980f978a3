// Package netstate manages kernel network state across network
// namespaces: namespace lifecycle, interfaces, IP addresses, and
// routing policy rules.
//
// # Overview
//
// Each namespace gets its own long-lived netlink connection
// ([internal/rtnl.Conn]) bound inside the namespace at open time, so
// operations never switch the calling thread's namespace and need no
// process-wide lock.
//
// # Key Components
//
//   - [Manager]: namespace, interface, address, and rule operations
//   - [Rule], [Address], [Interface]: decoded kernel objects, with
//     unrecognized attributes carried through opaquely
//   - [Monitor]: link and address change notifications per namespace
//
// # Dependencies
//
// Uses github.com/vishvananda/netns for namespace handles and
// github.com/vishvananda/netlink for message framing and change
// subscriptions; raw rtnetlink exchanges go through internal/rtnl.
package netstate
