// Package api implements the daemon's HTTP/JSON control surface over a
// unix domain socket.
//
// # Overview
//
// The server is local-only: it listens on a unix socket and authorizes
// callers by SO_PEERCRED (root, or UIDs listed in api.allowed_uids).
// Resources live under /v1:
//
//	/v1/status                                       daemon status
//	/v1/netns                                        namespaces
//	/v1/netns/{ns}/interfaces                        interfaces
//	/v1/netns/{ns}/addresses                         all namespace addresses
//	/v1/netns/{ns}/interfaces/{dev}/addresses        per-device addresses
//	/v1/netns/{ns}/rules                             policy rules
//	/v1/events                                       websocket stream
//	/v1/events/history                               persisted events
//	/metrics                                         Prometheus metrics
//
// The path segment "default" names the namespace the daemon runs in.
//
// Kernel outcomes map onto HTTP statuses: not found is 404, already
// exists is 409, invalid input is 400, a netlink timeout is 504, and
// any other kernel rejection is 502 with the errno in the body.
package api
