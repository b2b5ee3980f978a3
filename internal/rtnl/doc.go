// Package rtnl implements the rtnetlink request/reply plumbing the state
// managers are built on.
//
// # Overview
//
// Two concerns live here:
//
//   - [Attr], [ParseAttrs], [EncodeAttrs]: the netlink attribute (TLV)
//     codec. Attributes are length-prefixed, type-tagged, 4-byte aligned,
//     and may nest. Unknown type codes are carried through as opaque
//     bytes rather than rejected, mirroring the kernel's extensible
//     attribute design.
//
//   - [Conn]: a request/reply transport over a netlink socket bound
//     inside a target network namespace. Opening the socket inside the
//     namespace (rather than switching the calling thread for every
//     request) means no global lock is needed once the socket exists.
//
// # Dependencies
//
// Sockets and message header structs come from
// github.com/vishvananda/netlink/nl; namespace handles from
// github.com/vishvananda/netns.
package rtnl
