package api

import "context"

// PeerCred identifies the process on the other end of the API socket,
// as reported by the kernel. It cannot be spoofed by the caller.
type PeerCred struct {
	Pid int32
	Uid uint32
	Gid uint32
}

type peerCredKey struct{}

// PeerCredFromContext returns the caller's socket credentials.
func PeerCredFromContext(ctx context.Context) (PeerCred, bool) {
	cred, ok := ctx.Value(peerCredKey{}).(PeerCred)
	return cred, ok
}

// WithPeerCred returns a context carrying the given credentials.
// Exported for tests that bypass the unix listener.
func WithPeerCred(ctx context.Context, cred PeerCred) context.Context {
	return context.WithValue(ctx, peerCredKey{}, cred)
}
